package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/lyn-lang/lyn/internal/ast"
	"github.com/lyn-lang/lyn/internal/target"
)

// Type shorthands shared by the tests.
var (
	tNil       = ast.TConst{Name: "Nil"}
	tBool      = ast.TConst{Name: "Bool"}
	tInt8      = ast.TConst{Name: "Int8"}
	tInt32     = ast.TConst{Name: "Int32"}
	tInt64     = ast.TConst{Name: "Int64"}
	tUInt8     = ast.TConst{Name: "UInt8"}
	tUIntPtr   = ast.TConst{Name: "UIntPtr"}
	tFloat32   = ast.TConst{Name: "Float32"}
	tRealWorld = ast.TConst{Name: "RealWorld"}
	// The runtime's String representation as far as the tests care: the
	// externs only need a lowerable type.
	tString = ast.TPtr(tUInt8)
)

func id(s string) ast.Ident { return ast.Ident{S: s, Pos: ast.SrcPos{File: "test.lyn", Line: 1, Col: 1}} }

func num(lit string, t ast.Type) ast.NumLit {
	return ast.NumLit{Lit: lit, Typ: t, Pos: ast.SrcPos{File: "test.lyn", Line: 1, Col: 1}}
}

func variable(name string, t ast.Type) ast.Variable {
	return ast.Variable{Ident: id(name), Typ: t}
}

// listAdts is (data (List a) (variants Nil1 (Cons1 a (List a)))): a
// recursive ADT with an empty variant and a self-referencing one.
func listAdts() *ast.Adts {
	return ast.NewAdts(&ast.AdtDef{
		Name:   id("List"),
		Params: []string{"a"},
		Variants: []ast.AdtVariant{
			{Name: id("Nil1")},
			{Name: id("Cons1"), Members: []ast.Type{
				ast.TConst{Name: "a"},
				ast.TApp{Ctor: "List", Args: []ast.Type{ast.TConst{Name: "a"}}},
			}},
		},
	})
}

// pairAdts is a flat, non-recursive two-variant ADT.
func pairAdts() *ast.Adts {
	return ast.NewAdts(&ast.AdtDef{
		Name: id("Shape"),
		Variants: []ast.AdtVariant{
			{Name: id("Circle"), Members: []ast.Type{tInt32}},
			{Name: id("Rect"), Members: []ast.Type{tInt32, tInt32}},
		},
	})
}

func testGen(adts *ast.Adts) *Generator {
	return New(target.Default(), adts)
}

// testEnv declares the runtime externs every full emission depends on.
func testEnv(g *Generator) *Env {
	env := NewEnv()
	g.genExternDecls(env, runtimeExterns())
	return env
}

func runtimeExterns() map[string]ast.ExternDecl {
	return map[string]ast.ExternDecl{
		"_panic": {
			Ident: id("_panic"),
			Typ:   ast.TFunc(tString, tNil),
		},
		"str_lit_to_string": {
			Ident: id("str_lit_to_string"),
			Typ:   ast.TFunc(ast.TCons(ast.TConst{Name: "UInt64"}, ast.TPtr(tUInt8)), tString),
		},
	}
}

// hostFn gives emitters a function to build into.
func hostFn(g *Generator) *fn {
	f := g.Module.NewFunc(g.globalName("test_host"), types.I32)
	return newFn(f)
}

// mainBinding is (define (main r) (cons nil r)).
func mainBinding() *ast.Binding {
	sig := ast.TIO(tNil)
	body := ast.Cons{
		Car: ast.Nil{},
		Cdr: variable("r", tRealWorld),
		Typ: ast.TCons(tNil, tRealWorld),
	}
	return &ast.Binding{
		Ident: id("main"),
		Sig:   sig,
		Val: ast.Lambda{
			ParamIdent: id("r"),
			Body:       body,
			Typ:        sig,
		},
	}
}

func testModule(adts *ast.Adts, globals ...*ast.Binding) *ast.Module {
	return &ast.Module{
		Externs: runtimeExterns(),
		Globals: &ast.Group{List: globals},
		Adts:    adts,
	}
}

func findFunc(m *ir.Module, name string) *ir.Func {
	for _, f := range m.Funcs {
		if f.Name() == name {
			return f
		}
	}
	return nil
}
