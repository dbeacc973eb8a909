// Package hasher is the Go-native reinterpretation of the policy-hashing
// compiler pass: it has no rustc callback to hook, so it drives
// golang.org/x/tools/go/packages to load a package and its dependency
// graph, locate the alohomora.Policy interface, and hash every local
// implementation of it the same way a compiler plugin would hash optimized
// IR — by printing each method through a fixed go/printer configuration and
// feeding the bytes to a stable hash.
package hasher

import (
	"fmt"
	"go/types"
	"strings"

	"golang.org/x/tools/go/packages"
)

const (
	policyPackageName   = "alohomora"
	policyInterfaceName = "Policy"
)

// LoadMode is the packages.Load mode every caller in this package must use:
// it needs type-checked syntax (NeedSyntax) to print method bodies and the
// full dependency graph (NeedDeps/NeedImports) to find the alohomora
// package wherever it sits in the import graph.
const LoadMode = packages.NeedName | packages.NeedFiles | packages.NeedImports |
	packages.NeedDeps | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo

// FindPolicyInterface looks for a package named "alohomora" anywhere in
// pkg's transitive import graph and returns its exported Policy interface.
// A nil result with no error means the dependency is simply absent, which
// mirrors the "crate not present" case: the caller emits nothing and
// returns success.
func FindPolicyInterface(pkg *packages.Package) (*types.Interface, bool, error) {
	target := findImport(pkg, policyPackageName, map[string]bool{})
	if target == nil {
		return nil, false, nil
	}
	obj := target.Types.Scope().Lookup(policyInterfaceName)
	if obj == nil {
		return nil, false, fmt.Errorf("package %q has no %s declaration", target.PkgPath, policyInterfaceName)
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return nil, false, fmt.Errorf("%s.%s is not a named type", target.PkgPath, policyInterfaceName)
	}
	iface, ok := named.Underlying().(*types.Interface)
	if !ok {
		return nil, false, fmt.Errorf("%s.%s is not an interface", target.PkgPath, policyInterfaceName)
	}
	return iface, true, nil
}

func findImport(pkg *packages.Package, name string, visited map[string]bool) *packages.Package {
	if visited[pkg.PkgPath] {
		return nil
	}
	visited[pkg.PkgPath] = true

	for path, imp := range pkg.Imports {
		if imp.Name == name || lastSegment(path) == name {
			return imp
		}
	}
	for _, imp := range pkg.Imports {
		if found := findImport(imp, name, visited); found != nil {
			return found
		}
	}
	return nil
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
