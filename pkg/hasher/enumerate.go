package hasher

import (
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"
)

// Implementation pairs a locally-declared named type with the subset of its
// method set that satisfies the Policy interface, under the fully-qualified
// type path used as the local_impls_hashes map key.
type Implementation struct {
	TypePath string
	Methods  []*types.Func
}

// EnumerateImplementations walks every named type declared in pkg's package
// scope and keeps the ones whose method set (addressable, i.e. via pointer
// receiver) satisfies iface. Interface-typed declarations are skipped: only
// concrete local types count as "implementations" of Policy.
func EnumerateImplementations(pkg *packages.Package, iface *types.Interface) []Implementation {
	scope := pkg.Types.Scope()
	var impls []Implementation
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok {
			continue
		}
		if _, isIface := named.Underlying().(*types.Interface); isIface {
			continue
		}
		if !types.Implements(named, iface) && !types.Implements(types.NewPointer(named), iface) {
			continue
		}
		impls = append(impls, Implementation{
			TypePath: pkg.PkgPath + "." + named.Obj().Name(),
			Methods:  policyMethods(named, iface),
		})
	}
	sort.Slice(impls, func(i, j int) bool { return impls[i].TypePath < impls[j].TypePath })
	return impls
}

// policyMethods returns the subset of named's method set whose names appear
// on iface, sorted by name. An implementing type may carry helper methods
// that are not part of the Policy contract; those must not affect the hash.
func policyMethods(named *types.Named, iface *types.Interface) []*types.Func {
	want := make(map[string]bool, iface.NumMethods())
	for i := 0; i < iface.NumMethods(); i++ {
		want[iface.Method(i).Name()] = true
	}

	ms := types.NewMethodSet(types.NewPointer(named))
	var methods []*types.Func
	for i := 0; i < ms.Len(); i++ {
		fn, ok := ms.At(i).Obj().(*types.Func)
		if !ok || !want[fn.Name()] {
			continue
		}
		methods = append(methods, fn)
	}
	sort.Slice(methods, func(i, j int) bool { return methods[i].Name() < methods[j].Name() })
	return methods
}
