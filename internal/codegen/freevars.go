package codegen

import (
	"github.com/lyn-lang/lyn/internal/ast"
)

// instUse is one use of a free variable: the instantiation it was used at
// and the concrete type of that use. A polymorphic local captured at
// several instantiations contributes one entry per instantiation; they must
// not be collapsed by name.
type instUse struct {
	inst []ast.Type
	typ  ast.Type
}

// freeVarInsts maps a free variable name to its uses, keyed by
// instantiation. Iteration is always over sorted keys so that capture
// records have a stable field order.
type freeVarInsts map[string]map[string]instUse

func (fvs freeVarInsts) add(name string, use instUse) {
	insts, ok := fvs[name]
	if !ok {
		insts = make(map[string]instUse)
		fvs[name] = insts
	}
	insts[ast.KeyOf(use.inst)] = use
}

func (fvs freeVarInsts) extend(other freeVarInsts) {
	for name, insts := range other {
		for _, use := range insts {
			fvs.add(name, use)
		}
	}
}

func (fvs freeVarInsts) remove(name string) {
	delete(fvs, name)
}

// count returns the number of (name, instantiation) pairs, i.e. the number
// of fields a capture record for fvs would have.
func (fvs freeVarInsts) count() int {
	n := 0
	for _, insts := range fvs {
		n += len(insts)
	}
	return n
}

func freeVarsInExprs(es ...ast.Expr) freeVarInsts {
	fvs := make(freeVarInsts)
	for _, e := range es {
		fvs.extend(freeVarsInExpr(e))
	}
	return fvs
}

// freeVarsInExpr returns the free variables of e, each mapped to the
// instantiations it is used at.
func freeVarsInExpr(e ast.Expr) freeVarInsts {
	switch e := e.(type) {
	case ast.Nil, ast.NumLit, ast.StrLit, ast.Bool:
		return make(freeVarInsts)
	case ast.Variable:
		fvs := make(freeVarInsts)
		fvs.add(e.Ident.S, instUse{
			inst: ast.GetInstArgs(e.Typ),
			typ:  ast.Canonicalize(e.Typ),
		})
		return fvs
	case ast.App:
		return freeVarsInExprs(e.Func, e.Arg)
	case ast.If:
		return freeVarsInExprs(e.Predicate, e.Consequent, e.Alternative)
	case ast.Lambda:
		return freeVarsInLambda(e)
	case ast.Let:
		es := []ast.Expr{e.Body}
		for _, b := range e.Bindings.Bindings() {
			if b.IsMonomorphic() {
				es = append(es, b.Val)
			} else {
				for _, mi := range b.MonoInsts {
					es = append(es, mi.Val)
				}
			}
		}
		fvs := freeVarsInExprs(es...)
		for _, b := range e.Bindings.Bindings() {
			fvs.remove(b.Ident.S)
		}
		return fvs
	case ast.Cons:
		return freeVarsInExprs(e.Car, e.Cdr)
	case ast.Car:
		return freeVarsInExpr(e.Pair)
	case ast.Cdr:
		return freeVarsInExpr(e.Pair)
	case ast.Cast:
		return freeVarsInExpr(e.Expr)
	case ast.New:
		return freeVarsInExprs(e.Members...)
	case ast.Match:
		return freeVarsInMatch(e)
	}
	panic(ice("freeVarsInExpr: unknown expression %T", e))
}

func freeVarsInLambda(lam ast.Lambda) freeVarInsts {
	fvs := freeVarsInExpr(lam.Body)
	fvs.remove(lam.ParamIdent.S)
	return fvs
}

// freeVarsInLambdaFilterGlobals keeps only the free variables that resolve
// to locals in the enclosing environment; globals need no capture.
func freeVarsInLambdaFilterGlobals(env *Env, lam ast.Lambda) freeVarInsts {
	fvs := freeVarsInLambda(lam)
	for name := range fvs {
		if !env.HasLocal(name) {
			delete(fvs, name)
		}
	}
	return fvs
}

func freeVarsInMatch(m ast.Match) freeVarInsts {
	fvs := freeVarsInExpr(m.Expr)
	for _, c := range m.Cases {
		caseFvs := freeVarsInExpr(c.Body)
		for _, v := range ast.PatternVariables(c.Patt) {
			caseFvs.remove(v.Ident.S)
		}
		fvs.extend(caseFvs)
	}
	return fvs
}
