package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/value"

	"github.com/lyn-lang/lyn/internal/ast"
)

// monoBinding is one flattened (name, instantiation, value) triple; a
// polymorphic binding contributes one per instantiation in its MonoInsts.
type monoBinding struct {
	name string
	inst []ast.Type
	val  ast.Expr
}

func flattenBindings(bindings []*ast.Binding) []monoBinding {
	var out []monoBinding
	for _, b := range bindings {
		if b.IsMonomorphic() {
			out = append(out, monoBinding{name: b.Ident.S, val: b.Val})
			continue
		}
		for _, mi := range b.MonoInsts {
			out = append(out, monoBinding{name: b.Ident.S, inst: mi.Inst, val: mi.Val})
		}
	}
	return out
}

// separateFuncBindingsMono splits flattened bindings into lambdas and other
// values, preserving order within each class.
func separateFuncBindingsMono(bindings []*ast.Binding) (funcs, vars []monoBinding) {
	for _, mb := range flattenBindings(bindings) {
		if _, isLambda := mb.val.(ast.Lambda); isLambda {
			funcs = append(funcs, mb)
		} else {
			vars = append(vars, mb)
		}
	}
	return funcs, vars
}

// genBindings emits a group of possibly mutually recursive local bindings.
//
// Recursive references through closure captures are resolved in two
// phases: phase A emits every lambda's inner function and a closure whose
// capture record is allocated at its final size but left undefined, and
// installs it in the environment; phase B recomputes each capture record
// from the now fully populated environment and stores it through the
// placeholder's captures pointer, and emits the non-lambda values, which
// can now see every peer.
func (g *Generator) genBindings(env *Env, fb *fn, bindings []*ast.Binding) {
	for _, b := range bindings {
		env.PushLocal(b.Ident.S, nil)
	}
	insts := flattenBindings(bindings)

	var lambdaFvs []freeVarInsts
	for _, mb := range insts {
		if lam, isLambda := mb.val.(ast.Lambda); isLambda {
			closure, fvs := g.genClosureWithoutCaptures(env, fb, lam, mb.name)
			env.AddLocalInst(mb.name, mb.inst, closure)
			lambdaFvs = append(lambdaFvs, fvs)
		}
	}
	for _, mb := range insts {
		if _, isLambda := mb.val.(ast.Lambda); isLambda {
			closure, ok := env.GetLocal(mb.name, mb.inst)
			if !ok {
				panic(ice("binding `%s` disappeared between phases", mb.name))
			}
			fvs := lambdaFvs[0]
			lambdaFvs = lambdaFvs[1:]
			g.closureCaptureEnv(env, fb, closure, fvs, mb.name)
		} else {
			v := g.genExpr(env, fb, mb.val, mb.name)
			env.AddLocalInst(mb.name, mb.inst, v)
		}
	}
}

// genLet emits a let form: bindings, body, then the bound scopes are
// popped.
func (g *Generator) genLet(env *Env, fb *fn, l ast.Let) value.Value {
	bindings := l.Bindings.Bindings()
	g.genBindings(env, fb, bindings)
	v := g.genExpr(env, fb, l.Body, "")
	for _, b := range bindings {
		env.PopLocal(b.Ident.S)
	}
	return v
}

// genGlobVarDecls declares every global variable with an undef initializer,
// so that globals may reference each other before any is initialized.
func (g *Generator) genGlobVarDecls(env *Env, varBindings []monoBinding) {
	for _, mb := range varBindings {
		t := g.lowerType(mb.val.GetType())
		gv := g.Module.NewGlobalDef(g.globalName(mangle(mb.name, mb.inst)), constant.NewUndef(t))
		env.AddGlobalInst(mb.name, mb.inst, GlobVar{Var: gv})
	}
}

// genGlobVarInits emits the run-time initialization of the global
// variables, in source order, into the entry wrapper.
func (g *Generator) genGlobVarInits(env *Env, fb *fn, varBindings []monoBinding) {
	for _, mb := range varBindings {
		gl, ok := env.GetGlobal(mb.name, mb.inst)
		if !ok {
			panic(ice("global variable declaration of `%s` disappeared", mb.name))
		}
		gv, isVar := gl.(GlobVar)
		if !isVar {
			panic(ice("global var to init was not a global var: `%s`", mb.name))
		}
		v := g.genExpr(env, fb, mb.val, "")
		fb.cur.NewStore(v, gv.Var)
	}
}

// genGlobFuncs declares every global function and its closure wrapper
// before emitting any body, so that bodies can reference one another
// freely.
func (g *Generator) genGlobFuncs(env *Env, funcBindings []monoBinding) {
	funcs := make([]GlobFunc, len(funcBindings))
	for i, mb := range funcBindings {
		lam := mb.val.(ast.Lambda)
		id := mangle(mb.name, mb.inst)
		f := g.genFuncDecl(id, lam.Typ)
		closure := g.genWrappingClosure(f, id, lam.Typ)
		funcs[i] = GlobFunc{Func: f, Closure: closure}
		env.AddGlobalInst(mb.name, mb.inst, funcs[i])
	}
	for i, mb := range funcBindings {
		g.genFuncDef(env, funcs[i].Func, mb.val.(ast.Lambda))
	}
}
