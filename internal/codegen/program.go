package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lyn-lang/lyn/internal/ast"
	"github.com/lyn-lang/lyn/internal/errors"
)

// numClass is the signedness/floatness of a primitive's operand type; it
// selects the division and comparison opcodes.
type numClass int

const (
	classInt numClass = iota
	classUInt
	classFloat
)

// buildBinop emits the instruction of one primitive operator.
func (g *Generator) buildBinop(fb *fn, op string, class numClass, a, b value.Value) value.Value {
	isFloat := class == classFloat
	switch op {
	case "add":
		if isFloat {
			return fb.cur.NewFAdd(a, b)
		}
		return fb.cur.NewAdd(a, b)
	case "sub":
		if isFloat {
			return fb.cur.NewFSub(a, b)
		}
		return fb.cur.NewSub(a, b)
	case "mul":
		if isFloat {
			return fb.cur.NewFMul(a, b)
		}
		return fb.cur.NewMul(a, b)
	case "div":
		switch class {
		case classInt:
			return fb.cur.NewSDiv(a, b)
		case classUInt:
			return fb.cur.NewUDiv(a, b)
		default:
			return fb.cur.NewFDiv(a, b)
		}
	case "eq":
		if isFloat {
			return fb.cur.NewFCmp(enum.FPredOEQ, a, b)
		}
		return fb.cur.NewICmp(enum.IPredEQ, a, b)
	case "lt":
		switch class {
		case classInt:
			return fb.cur.NewICmp(enum.IPredSLT, a, b)
		case classUInt:
			return fb.cur.NewICmp(enum.IPredULT, a, b)
		default:
			return fb.cur.NewFCmp(enum.FPredOLT, a, b)
		}
	}
	panic(ice("unknown binop `%s`", op))
}

// genBinopFunc emits a naked primitive function taking an argument pair and
// its closure wrapper.
func (g *Generator) genBinopFunc(funcName string, typ ast.Type, op string, class numClass) GlobFunc {
	f := g.genFuncDecl(funcName, typ)
	fb := newFn(f)
	a := fb.cur.NewExtractValue(f.Params[0], 0)
	b := fb.cur.NewExtractValue(f.Params[0], 1)
	r := g.buildBinop(fb, op, class, a, b)
	fb.cur.NewRet(r)
	closure := g.genWrappingClosure(f, funcName, typ)
	return GlobFunc{Func: f, Closure: closure}
}

// genCoreFuncs emits the primitive grid: every numeric type crossed with
// the arithmetic and relational operators, each as a naked binop function
// plus its wrapping closure, bound as <op>-<Type>.
func (g *Generator) genCoreFuncs(env *Env) {
	classes := []struct {
		class numClass
		names []string
	}{
		{classInt, []string{"Int8", "Int16", "Int32", "Int64"}},
		{classUInt, []string{"UInt8", "UInt16", "UInt32", "UInt64"}},
		{classFloat, []string{"Float32", "Float64"}},
	}
	arithmOps := []string{"add", "sub", "mul", "div"}
	relationalOps := []string{"eq", "lt"}
	for _, c := range classes {
		for _, typeName := range c.names {
			operand := ast.TConst{Name: typeName}
			for _, op := range arithmOps {
				funcName := fmt.Sprintf("%s-%s", op, typeName)
				gf := g.genBinopFunc(funcName, ast.TBinop(operand), op, c.class)
				env.AddGlobalMono(funcName, gf)
			}
			for _, op := range relationalOps {
				funcName := fmt.Sprintf("%s-%s", op, typeName)
				gf := g.genBinopFunc(funcName, ast.TRelationalBinop(operand), op, c.class)
				env.AddGlobalMono(funcName, gf)
			}
		}
	}
}

// genExternDecls declares the program's externs with their closure
// wrappers. Heap allocation is a core dependency, so malloc is synthesized
// when the program does not declare it itself.
func (g *Generator) genExternDecls(env *Env, externs map[string]ast.ExternDecl) {
	for _, id := range sortedNames(externs) {
		decl := externs[id]
		if _, _, ok := ast.GetFunc(decl.Typ); !ok {
			decl.Pos.ErrorExit("Non-function externs not yet implemented!")
		}
		gf := g.genExternFunc(id, decl.Typ)
		env.AddGlobalMono(id, gf)
	}
	if _, declared := externs["malloc"]; !declared {
		mallocType := ast.TFunc(ast.TConst{Name: "UIntPtr"}, ast.TPtr(ast.TConst{Name: "UInt8"}))
		gf := g.genExternFunc("malloc", mallocType)
		env.AddGlobalMono("malloc", gf)
	}
}

// mainType is the required type of the user main binding:
// an I/O action producing unit.
func mainType() ast.Type {
	return ast.TIO(ast.TConst{Name: "Nil"})
}

// EmitProgram lowers an executable program: primitives, externs, globals,
// and a C-ABI entry wrapper that initializes global variables at run time
// and then calls the user main with a fresh RealWorld token.
//
// Global definitions may perform run-time work (heap allocation, calls), so
// they cannot be constant initializers; the wrapper effectively rewrites
//
//	(define foo ...)
//	(define (main r) ...)
//
// into a main that let-binds foo before running the user main.
func (g *Generator) EmitProgram(mod *ast.Module) {
	main := mod.Globals.ByName("main")
	if main == nil {
		ast.ErrorExit("main function not found")
	}
	expect := mainType()
	if ast.Key(main.Sig) != ast.Key(expect) {
		msg := fmt.Sprintf("main function has wrong type. Expected type `%s`, found type `%s`",
			expect, main.Sig)
		if main.IsMonomorphic() {
			main.Ident.Pos.ErrorExit(msg)
		}
		main.Ident.Pos.PrintError(errors.CodegenBadMain, msg)
		main.Ident.Pos.PrintHelp("Try adding type annotations to enforce correct type " +
			"during type-checking.\n" +
			"E.g. `(define: main (-> RealWorld (Cons Nil RealWorld)) ...)`")
		ast.Exit()
	}

	// The entry wrapper must be declared before any user function so that
	// the name main is claimed by the C-ABI entry point.
	mainWrapper := g.Module.NewFunc(g.globalName("main"), types.I32,
		ir.NewParam("", g.named.nil_))

	env := NewEnv()
	g.genCoreFuncs(env)
	g.genExternDecls(env, mod.Externs)
	for _, b := range mod.Globals.Bindings() {
		env.AddGlobal(b.Ident.S)
	}
	funcBindings, varBindings := separateFuncBindingsMono(mod.Globals.Bindings())
	g.genGlobVarDecls(env, varBindings)
	g.genGlobFuncs(env, funcBindings)

	fb := newFn(mainWrapper)
	g.genGlobVarInits(env, fb, varBindings)
	g.buildCallNamedMono(fb, env, "main", g.newRealWorldVal())
	fb.cur.NewRet(constant.NewInt(types.I32, 0))
}
