package hasher

import (
	"fmt"

	attesttypes "github.com/alex-douk/tahini-attest-go/pkg/types"
	"golang.org/x/tools/go/packages"

	"github.com/alex-douk/tahini-attest-go/pkg/rollup"
)

// Result is the output of running the hasher on one package: the crate
// summary (the policy-hash file's first line) and the JSON body that
// follows it. A nil Result with a nil error means there was nothing to do —
// either alohomora.Policy isn't in pkg's import graph, or pkg declares no
// local implementation of it — which is success, not failure.
type Result struct {
	Summary string
	File    attesttypes.PolicyHashFile
}

// Run executes the full policy-hashing pass against an already type-checked
// package: locate the Policy interface, enumerate and hash local
// implementations, roll up dependency summaries, and fold everything into
// the crate summary.
func Run(pkg *packages.Package, usedCrateNames []string, hashIndexContents string, depReader rollup.DepHashReader) (*Result, error) {
	iface, found, err := FindPolicyInterface(pkg)
	if err != nil {
		return nil, fmt.Errorf("hasher: %w", err)
	}
	if !found {
		return nil, nil
	}

	impls := EnumerateImplementations(pkg, iface)
	if len(impls) == 0 {
		return nil, nil
	}

	implHashes, err := HashImplementations(pkg, impls)
	if err != nil {
		return nil, err
	}

	localSummaryHash, err := LocalSummaryHash(implHashes)
	if err != nil {
		return nil, fmt.Errorf("hasher: computing local summary hash: %w", err)
	}

	entries, err := rollup.RollUp(usedCrateNames, hashIndexContents, depReader)
	if err != nil {
		return nil, fmt.Errorf("hasher: %w", err)
	}
	depMap := rollup.Map(entries)

	summary, err := CrateSummary(depMap, localSummaryHash)
	if err != nil {
		return nil, fmt.Errorf("hasher: computing crate summary: %w", err)
	}

	return &Result{
		Summary: summary,
		File: attesttypes.PolicyHashFile{
			DependencyHashes: depMap,
			LocalSummaryHash: localSummaryHash,
			LocalImplHashes:  implHashes,
		},
	}, nil
}

// LoadPackage type-checks the single Go package in directory dir (loaded as
// pattern "." relative to dir) with the mode Run's dependents require.
func LoadPackage(dir string) (*packages.Package, error) {
	cfg := &packages.Config{Mode: LoadMode, Dir: dir}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("hasher: loading package at %s: %w", dir, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("hasher: no package found at %s", dir)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("hasher: type-checking errors in package at %s", dir)
	}
	return pkgs[0], nil
}

// UsedCrateNames returns the direct and transitive import paths of pkg,
// standing in for rustc's "used crates of the current crate" — the input
// the roll-up intersects against the hash index.
func UsedCrateNames(pkg *packages.Package) []string {
	seen := map[string]bool{}
	var names []string
	var walk func(p *packages.Package)
	walk = func(p *packages.Package) {
		for path, imp := range p.Imports {
			if seen[path] {
				continue
			}
			seen[path] = true
			names = append(names, path)
			walk(imp)
		}
	}
	walk(pkg)
	return names
}
