package hasher

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// stablePrinterConfig pins tab width and spacing mode so a method's printed
// form does not depend on the original file's indentation or alignment
// (tabs vs spaces). Line breaks and blank lines still follow the source
// positions recorded in the file set.
var stablePrinterConfig = &printer.Config{Mode: printer.UseSpaces, Tabwidth: 8}

// funcDecl locates the *ast.FuncDecl backing fn among pkg's parsed files.
func funcDecl(pkg *packages.Package, fn *types.Func) *ast.FuncDecl {
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if def, ok := pkg.TypesInfo.Defs[fd.Name]; ok && def == fn {
				return fd
			}
		}
	}
	return nil
}

// printStable renders fn's declaration through go/printer with a fixed
// configuration, giving a build-stable textual form independent of the
// original source's indentation and alignment.
func printStable(pkg *packages.Package, fn *types.Func) ([]byte, error) {
	decl := funcDecl(pkg, fn)
	if decl == nil {
		return nil, fmt.Errorf("hasher: no declaration found for method %s", fn.FullName())
	}
	var buf bytes.Buffer
	if err := stablePrinterConfig.Fprint(&buf, pkg.Fset, decl); err != nil {
		return nil, fmt.Errorf("hasher: printing %s: %w", fn.FullName(), err)
	}
	return buf.Bytes(), nil
}
