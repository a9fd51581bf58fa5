package codegen

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/lyn-lang/lyn/internal/ast"
)

func names(fvs freeVarInsts) map[string]int {
	out := make(map[string]int)
	for name, insts := range fvs {
		out[name] = len(insts)
	}
	return out
}

func TestFreeVarsInLambda(t *testing.T) {
	// \x -> (cons x y)
	lam := ast.Lambda{
		ParamIdent: id("x"),
		Body: ast.Cons{
			Car: variable("x", tInt32),
			Cdr: variable("y", tBool),
			Typ: ast.TCons(tInt32, tBool),
		},
		Typ: ast.TFunc(tInt32, ast.TCons(tInt32, tBool)),
	}
	got := names(freeVarsInLambda(lam))
	want := map[string]int{"y": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("free vars mismatch (-want +got):\n%s", diff)
	}
}

func TestFreeVarsKeepDistinctInstantiations(t *testing.T) {
	// A polymorphic local captured at two instantiations contributes two
	// capture-record fields; deduplicating by name would merge them.
	body := ast.Cons{
		Car: variable("f", ast.TScheme{Args: []ast.Type{tInt32}, Body: ast.TFunc(tInt32, tInt32)}),
		Cdr: variable("f", ast.TScheme{Args: []ast.Type{tBool}, Body: ast.TFunc(tBool, tBool)}),
		Typ: ast.TCons(ast.TFunc(tInt32, tInt32), ast.TFunc(tBool, tBool)),
	}
	lam := ast.Lambda{ParamIdent: id("x"), Body: body, Typ: ast.TFunc(tNil, body.Typ)}
	fvs := freeVarsInLambda(lam)
	if fvs.count() != 2 {
		t.Errorf("capture count = %d, want one per instantiation", fvs.count())
	}
}

func TestFreeVarsLetRemovesBindings(t *testing.T) {
	// let y = z in (cons x y): y is bound, x and z are free.
	let := ast.Let{
		Bindings: &ast.Group{List: []*ast.Binding{{
			Ident: id("y"),
			Sig:   tInt32,
			Val:   variable("z", tInt32),
		}}},
		Body: ast.Cons{
			Car: variable("x", tInt32),
			Cdr: variable("y", tInt32),
			Typ: ast.TCons(tInt32, tInt32),
		},
		Typ: ast.TCons(tInt32, tInt32),
	}
	got := names(freeVarsInExpr(let))
	want := map[string]int{"x": 1, "z": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("free vars mismatch (-want +got):\n%s", diff)
	}
}

func TestFreeVarsMatchRemovesPatternBindings(t *testing.T) {
	m := ast.Match{
		Expr: variable("xs", ast.TConst{Name: "List", Inst: []ast.Type{tInt32}}),
		Cases: []ast.Case{
			{
				Patt: ast.PatDeconstr{Constr: id("Cons1"), Subpatts: []ast.Pattern{
					ast.PatVariable{Ident: id("hd"), Typ: tInt32},
					ast.PatVariable{Ident: id("tl"), Typ: ast.TConst{Name: "List", Inst: []ast.Type{tInt32}}},
				}},
				Body: ast.Cons{
					Car: variable("hd", tInt32),
					Cdr: variable("other", tInt32),
					Typ: ast.TCons(tInt32, tInt32),
				},
			},
		},
		Typ: ast.TCons(tInt32, tInt32),
	}
	got := names(freeVarsInMatch(m))
	want := map[string]int{"xs": 1, "other": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("free vars mismatch (-want +got):\n%s", diff)
	}
}

func TestFreeVarsFilterGlobals(t *testing.T) {
	env := NewEnv()
	env.PushLocalMono("local", intVal(1))
	lam := ast.Lambda{
		ParamIdent: id("x"),
		Body: ast.Cons{
			Car: variable("local", tInt64),
			Cdr: variable("global", tInt64),
			Typ: ast.TCons(tInt64, tInt64),
		},
		Typ: ast.TFunc(tNil, ast.TCons(tInt64, tInt64)),
	}
	got := names(freeVarsInLambdaFilterGlobals(env, lam))
	want := map[string]int{"local": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("free vars mismatch (-want +got):\n%s", diff)
	}
}
