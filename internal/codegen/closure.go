package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lyn-lang/lyn/internal/ast"
)

// Every function value, global or local, has the uniform closure layout
// {fp, captures}: fp points at a function taking the generic captures
// pointer and the argument, captures is a generic RC pointer. Callers
// cannot tell a global function from a closure by shape.

// genFuncDecl declares a naked function: one parameter, no captures. Used
// for direct calls and for extern linkage.
func (g *Generator) genFuncDecl(id string, typ ast.Type) *ir.Func {
	at, rt, ok := ast.GetFunc(typ)
	if !ok {
		panic(ice("invalid function type `%s`", typ))
	}
	return g.Module.NewFunc(g.globalName(id), g.lowerType(rt), ir.NewParam("", g.lowerType(at)))
}

// genWrappingClosure synthesizes the closure constant for a naked function:
// a dummy-captures wrapper function that forwards to it, paired with an
// undef generic captures pointer, stored as a global constant.
func (g *Generator) genWrappingClosure(f *ir.Func, id string, funcType ast.Type) *ir.Global {
	at, rt, ok := ast.GetFunc(funcType)
	if !ok {
		panic(ice("invalid function type `%s`", funcType))
	}
	closureFunc := g.Module.NewFunc(g.globalName("closure_func_"+id), g.lowerType(rt),
		ir.NewParam("DUMMY-CAPTURES", typeGenericPtr()),
		ir.NewParam("", g.lowerType(at)))
	fb := newFn(closureFunc)
	r := fb.cur.NewCall(f, closureFunc.Params[1])
	fb.cur.NewRet(r)

	closType := g.lowerType(ast.TFunc(at, rt)).(*types.StructType)
	closureVal := constant.NewStruct(closType, closureFunc, constant.NewUndef(g.named.rcGeneric))
	closure := g.Module.NewGlobalDef(g.globalName("closure_"+id), closureVal)
	closure.Immutable = true
	return closure
}

// genExternFunc declares an external function and its closure wrapper.
func (g *Generator) genExternFunc(id string, typ ast.Type) GlobFunc {
	f := g.genFuncDecl(id, typ)
	closure := g.genWrappingClosure(f, id, typ)
	return GlobFunc{Func: f, Closure: closure}
}

// genClosureFuncDecl declares a function with the closure calling
// convention: generic captures pointer first, then the argument.
func (g *Generator) genClosureFuncDecl(id string, typ ast.Type) *ir.Func {
	at, rt, ok := ast.GetFunc(typ)
	if !ok {
		panic(ice("invalid function type `%s`", typ))
	}
	return g.Module.NewFunc(g.globalName(id), g.lowerType(rt),
		ir.NewParam("captures_generic", typeGenericPtr()),
		ir.NewParam("", g.lowerType(at)))
}

// genClosureFunc emits the inner function of a closure. The prologue casts
// the generic captures pointer to the concrete capture-record type and
// loads every captured (name, instantiation) pair into a fresh local
// environment holding exactly the parameter and the captures.
func (g *Generator) genClosureFunc(env *Env, fb *fn, fvs freeVarInsts, lam ast.Lambda, name string) *ir.Func {
	parentName := "global"
	if fb != nil {
		parentName = fb.f.Name()
	}
	f := g.genClosureFuncDecl("lambda_"+parentName+"_"+name, lam.Typ)
	nfb := newFn(f)

	capturesType := g.capturesTypeOfFreeVars(fvs)
	capturesGeneric := f.Params[0]
	capturesPtr := nfb.setName(nfb.cur.NewBitCast(capturesGeneric, types.NewPointer(capturesType)), "captures")
	param := f.Params[1]
	param.SetName(nfb.name(lam.ParamIdent.S))

	inner := make(locals)
	inner[lam.ParamIdent.S] = []map[string]value.Value{{"": param}}
	i := int64(0)
	for _, fvName := range sortedNames(fvs) {
		if _, ok := inner[fvName]; !ok {
			inner[fvName] = []map[string]value.Value{{}}
		}
		insts := fvs[fvName]
		for _, key := range sortedNames(insts) {
			fvPtr := nfb.setName(nfb.cur.NewGetElementPtr(capturesType, capturesPtr,
				constant.NewInt(types.I32, 0), constant.NewInt(types.I32, i)), "capture_"+fvName)
			loaded := nfb.setName(nfb.cur.NewLoad(g.lowerType(insts[key].typ), fvPtr), fvName)
			inner[fvName][len(inner[fvName])-1][key] = loaded
			i++
		}
	}
	oldLocals := env.swapLocals(inner)

	r := g.genExpr(env, nfb, lam.Body, "return-val")
	nfb.cur.NewRet(r)

	env.swapLocals(oldLocals)
	return f
}

// genClosureWithoutCaptures emits a lambda whose capture record is
// allocated at its final size but left undefined, for bindings with
// recursive references; the record is back-filled once every peer is in
// the environment.
func (g *Generator) genClosureWithoutCaptures(env *Env, fb *fn, lam ast.Lambda, name string) (value.Value, freeVarInsts) {
	fvs := freeVarsInLambdaFilterGlobals(env, lam)
	f := g.genClosureFunc(env, fb, fvs, lam, name)
	capturesType := g.capturesTypeOfFreeVars(fvs)
	undefHeap := g.buildMalloc(fb, env, g.sizeOf(types.NewStruct(types.I64, capturesType)))
	undefGenericRC := fb.setName(g.buildAsGenericRC(fb, undefHeap), name+"-undef-capts-gen")
	closure := fb.setName(g.buildStruct(fb, f, undefGenericRC), name+"-clos")
	return closure, fvs
}

// genClosureEnvCapture materializes a capture record from the current
// environment.
func (g *Generator) genClosureEnvCapture(env *Env, fb *fn, fvs freeVarInsts, name string) value.Value {
	var vals []value.Value
	for _, fvName := range sortedNames(fvs) {
		insts := fvs[fvName]
		for _, key := range sortedNames(insts) {
			v, ok := env.GetLocal(fvName, insts[key].inst)
			if !ok {
				panic(ice("free var `%s` not found in env at inst [%s]", fvName, key))
			}
			vals = append(vals, v)
		}
	}
	return fb.setName(g.buildStruct(fb, vals...), name+"-capts")
}

// closureCaptureEnv back-fills the undefined capture record of a closure
// created by genClosureWithoutCaptures.
func (g *Generator) closureCaptureEnv(env *Env, fb *fn, closure value.Value, fvs freeVarInsts, name string) {
	captures := g.genClosureEnvCapture(env, fb, fvs, name)
	capturesRCGeneric := fb.setName(fb.cur.NewExtractValue(closure, 1), name+"-clos-capts-rc-gen")
	capturesRC := fb.setName(fb.cur.NewBitCast(capturesRCGeneric, rcType(captures.Type())), name+"-clos-capts-rc")
	capturesPtr := fb.setName(g.buildGepRCContents(fb, capturesRC), name+"-clos-capts-ptr")
	fb.cur.NewStore(captures, capturesPtr)
}

// genLambda lowers a lambda expression to a closure value.
func (g *Generator) genLambda(env *Env, fb *fn, lam ast.Lambda, name string) value.Value {
	fvs := freeVarsInLambdaFilterGlobals(env, lam)
	f := g.genClosureFunc(env, fb, fvs, lam, name)
	captures := g.genClosureEnvCapture(env, fb, fvs, name)
	capturesRC := fb.setName(g.buildRC(fb, env, captures), name+"-capts-rc")
	capturesRCGeneric := fb.setName(fb.cur.NewBitCast(capturesRC, g.named.rcGeneric), name+"-capts-rc-gen")
	return fb.setName(g.buildStruct(fb, f, capturesRCGeneric), name+"-clos")
}

// genFuncDef emits the body of a global function: the parameter becomes the
// sole local and the lowered body the return value.
func (g *Generator) genFuncDef(env *Env, f *ir.Func, lam ast.Lambda) {
	fb := newFn(f)
	param := f.Params[0]
	param.SetName(fb.name(lam.ParamIdent.S))
	inner := make(locals)
	inner[lam.ParamIdent.S] = []map[string]value.Value{{"": param}}
	oldLocals := env.swapLocals(inner)
	r := g.genExpr(env, fb, lam.Body, "")
	fb.cur.NewRet(r)
	env.swapLocals(oldLocals)
}
