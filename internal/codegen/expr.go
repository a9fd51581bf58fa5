package codegen

import (
	"fmt"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lyn-lang/lyn/internal/ast"
)

// genExpr lowers an expression in the current environment and builder
// position, leaving the position at the expression's join block.
func (g *Generator) genExpr(env *Env, fb *fn, e ast.Expr, name string) value.Value {
	switch e := e.(type) {
	case ast.Nil:
		// Nil is the empty struct, unit.
		return g.newNilVal()
	case ast.NumLit:
		return g.genNum(e)
	case ast.StrLit:
		return g.genStr(fb, env, e)
	case ast.Bool:
		if e.Val {
			return constant.NewInt(types.I1, 1)
		}
		return constant.NewInt(types.I1, 0)
	case ast.Variable:
		return g.genVariable(env, fb, e)
	case ast.App:
		return fb.setName(g.genApp(env, fb, e), name)
	case ast.If:
		return fb.setName(g.genIf(env, fb, e), name)
	case ast.Lambda:
		if name == "" {
			name = "lam"
		}
		return g.genLambda(env, fb, e, name)
	case ast.Let:
		return fb.setName(g.genLet(env, fb, e), name)
	case ast.Cons:
		return fb.setName(g.genCons(env, fb, e), name)
	case ast.Car:
		return fb.setName(g.genCar(env, fb, e), name)
	case ast.Cdr:
		return fb.setName(g.genCdr(env, fb, e), name)
	case ast.Cast:
		return fb.setName(g.genCast(env, fb, e), name)
	case ast.New:
		return fb.setName(g.genNew(env, fb, e), name)
	case ast.Match:
		return fb.setName(g.genMatch(env, fb, e), name)
	}
	panic(ice("genExpr: unknown expression %T", e))
}

// genNum parses a numeric literal with the family its resolved type
// selects. A literal that does not fit its type is a user error.
func (g *Generator) genNum(num ast.NumLit) value.Value {
	tname, ok := ast.GetConst(num.Typ)
	if !ok {
		panic(ice("type of numeric literal is not numeric: `%s`", num.Typ))
	}
	fail := func() value.Value {
		num.Pos.ErrorExit(fmt.Sprintf("Could not parse numeric literal as %s", tname))
		return nil
	}
	intConst := func(t *types.IntType, bits int) value.Value {
		if _, err := strconv.ParseInt(num.Lit, 10, bits); err != nil {
			return fail()
		}
		c, err := constant.NewIntFromString(t, num.Lit)
		if err != nil {
			return fail()
		}
		return c
	}
	uintConst := func(t *types.IntType, bits int) value.Value {
		if _, err := strconv.ParseUint(num.Lit, 10, bits); err != nil {
			return fail()
		}
		c, err := constant.NewIntFromString(t, num.Lit)
		if err != nil {
			return fail()
		}
		return c
	}
	floatConst := func(t *types.FloatType, bits int) value.Value {
		v, err := strconv.ParseFloat(num.Lit, bits)
		if err != nil {
			return fail()
		}
		return constant.NewFloat(t, v)
	}
	switch tname {
	case "Int8":
		return intConst(types.I8, 8)
	case "Int16":
		return intConst(types.I16, 16)
	case "Int32":
		return intConst(types.I32, 32)
	case "Int64":
		return intConst(types.I64, 64)
	case "IntPtr":
		return intConst(g.intPtrType(), g.ptrSizeBits())
	case "UInt8":
		return uintConst(types.I8, 8)
	case "UInt16":
		return uintConst(types.I16, 16)
	case "UInt32":
		return uintConst(types.I32, 32)
	case "UInt64":
		return uintConst(types.I64, 64)
	case "UIntPtr":
		return uintConst(g.intPtrType(), g.ptrSizeBits())
	case "Bool":
		b, err := strconv.ParseBool(num.Lit)
		if err != nil {
			return fail()
		}
		if b {
			return constant.NewInt(types.I1, 1)
		}
		return constant.NewInt(types.I1, 0)
	case "Float32":
		return floatConst(types.Float, 32)
	case "Float64":
		return floatConst(types.Double, 64)
	}
	panic(ice("type of numeric literal is not numeric: `%s`", num.Typ))
}

// buildStrLit lowers raw string bytes to a runtime String value: a global
// character array, wrapped as {i64 len, i8* ptr} and handed to the
// str_lit_to_string converter.
func (g *Generator) buildStrLit(fb *fn, env *Env, s string) value.Value {
	arr := constant.NewCharArrayFromString(s + "\x00")
	strConst := g.Module.NewGlobalDef(g.globalName("str_lit"), arr)
	strConst.Immutable = true
	strPtr := fb.cur.NewGetElementPtr(arr.Typ, strConst,
		constant.NewInt(types.I64, 0), constant.NewInt(types.I64, 0))
	pair := fb.setName(g.buildStruct(fb, constant.NewInt(types.I64, int64(len(s))), strPtr), "str-lit")
	gl, ok := env.GetGlobalMono("str_lit_to_string")
	glf, isFunc := gl.(GlobFunc)
	if !ok || !isFunc {
		panic(ice("no global function str_lit_to_string found"))
	}
	return fb.setName(fb.cur.NewCall(glf.Func, pair), "str")
}

func (g *Generator) genStr(fb *fn, env *Env, lit ast.StrLit) value.Value {
	return g.buildStrLit(fb, env, lit.Lit)
}

// genVariable lowers a variable used as an r-value. References to the
// generic arithmetic and relational primitives are rewritten to the
// instantiated primitive (e.g. add at Int32 becomes add-Int32) and lowered
// again; the monomorphizer does not generate those names itself.
func (g *Generator) genVariable(env *Env, fb *fn, v ast.Variable) value.Value {
	inst := ast.GetInstArgs(v.Typ)
	canon := ast.Canonicalize(v.Typ)
	if _, isLocal := env.GetLocal(v.Ident.S, inst); !isLocal {
		// Only specialized primitives exist in the environment; a generic
		// reference is redirected unless a local shadows the name.
		if isArithmBinop(v.Ident.S) {
			return g.genPrimitiveRewrite(env, fb, v, canon, false)
		}
		if isRelationalBinop(v.Ident.S) {
			return g.genPrimitiveRewrite(env, fb, v, canon, true)
		}
	}
	resolved, ok := env.Get(v.Ident.S, inst)
	if !ok {
		panic(ice("undefined variable at codegen: `%s`, inst [%s]", v.Ident.S, ast.KeyOf(inst)))
	}
	switch r := resolved.(type) {
	case VarGlobal:
		switch gl := r.Global.(type) {
		case GlobFunc:
			return fb.cur.NewLoad(gl.Closure.ContentType, gl.Closure)
		case GlobVar:
			return fb.cur.NewLoad(gl.Var.ContentType, gl.Var)
		}
	case VarLocal:
		return r.Value
	}
	panic(ice("undefined variable at codegen: `%s`", v.Ident.S))
}

// genPrimitiveRewrite redirects a generic primitive reference to its
// per-type specialization. Leftover type variables collapse to Int64.
func (g *Generator) genPrimitiveRewrite(env *Env, fb *fn, v ast.Variable, canon ast.Type, relational bool) value.Value {
	var opType ast.Type
	var ok bool
	if relational {
		opType, ok = ast.GetConsRelationalBinop(canon)
	} else {
		opType, ok = ast.GetConsBinop(canon)
	}
	if !ok {
		panic(ice("binop `%s` has bad type `%s`", v.Ident.S, canon))
	}
	opType = ast.VarToInt64(opType)
	if !ast.IsInt(opType) && !ast.IsUInt(opType) && !ast.IsFloat(opType) {
		panic(ice("binop `%s` has bad type `%s`", v.Ident.S, canon))
	}
	tname, ok := ast.GetConst(opType)
	if !ok {
		panic(ice("binop `%s` has bad type `%s`", v.Ident.S, canon))
	}
	var typ ast.Type
	if relational {
		typ = ast.TRelationalBinop(opType)
	} else {
		typ = ast.TBinop(opType)
	}
	rewritten := ast.Variable{
		Ident: ast.Ident{S: v.Ident.S + "-" + tname, Pos: v.Ident.Pos},
		Typ:   typ,
	}
	return g.genVariable(env, fb, rewritten)
}

// genIf lowers a conditional into then/else/next blocks with a phi at the
// join. The phi's incoming edges are the blocks each arm actually ended in,
// which a nested conditional can move away from the arm's entry block.
func (g *Generator) genIf(env *Env, fb *fn, cond ast.If) value.Value {
	pred := g.genExpr(env, fb, cond.Predicate, "")
	thenBr := fb.block("cond_then")
	elseBr := fb.block("cond_else")
	nextBr := fb.block("cond_next")
	fb.cur.NewCondBr(pred, thenBr, elseBr)

	fb.cur = thenBr
	thenVal := g.genExpr(env, fb, cond.Consequent, "")
	thenLast := fb.cur
	fb.cur.NewBr(nextBr)

	fb.cur = elseBr
	elseVal := g.genExpr(env, fb, cond.Alternative, "")
	elseLast := fb.cur
	fb.cur.NewBr(nextBr)

	fb.cur = nextBr
	return fb.cur.NewPhi(ir.NewIncoming(thenVal, thenLast), ir.NewIncoming(elseVal, elseLast))
}

// genApp lowers a function application. A direct application of a global
// function is called as a naked function; anything else goes through the
// closure calling convention. The generic primitives are excluded from the
// direct path because their reference first has to be rewritten to the
// instantiated specialization.
func (g *Generator) genApp(env *Env, fb *fn, app ast.App) value.Value {
	typ := app.Func.GetType()
	inst := ast.GetInstArgs(typ)
	arg := g.genExpr(env, fb, app.Arg, "app-arg")
	if v, isVar := ast.AsVariable(app.Func); isVar {
		if resolved, ok := env.Get(v.Ident.S, inst); ok {
			if vg, isGlobal := resolved.(VarGlobal); isGlobal {
				if gf, isFunc := vg.Global.(GlobFunc); isFunc {
					if !isArithmBinop(v.Ident.S) && !isRelationalBinop(v.Ident.S) {
						return fb.cur.NewCall(gf.Func, arg)
					}
				}
			}
		}
	}
	f := g.genExpr(env, fb, app.Func, "app-func")
	return g.buildApp(fb, f, arg)
}

// genCons lowers pair construction.
func (g *Generator) genCons(env *Env, fb *fn, cons ast.Cons) value.Value {
	car := g.genExpr(env, fb, cons.Car, "car")
	cdr := g.genExpr(env, fb, cons.Cdr, "cdr")
	return g.buildStruct(fb, car, cdr)
}

func (g *Generator) genCar(env *Env, fb *fn, c ast.Car) value.Value {
	cons := g.genExpr(env, fb, c.Pair, "")
	return fb.setName(g.buildExtractCar(fb, cons), "car")
}

func (g *Generator) genCdr(env *Env, fb *fn, c ast.Cdr) value.Value {
	cons := g.genExpr(env, fb, c.Pair, "")
	return fb.setName(g.buildExtractCdr(fb, cons), "cdr")
}

// genCast lowers a numeric conversion, selecting the IR opcode from the
// source and target classifications. A cast with no legal conversion is a
// user error at the cast's position.
func (g *Generator) genCast(env *Env, fb *fn, c ast.Cast) value.Value {
	ptrBits := g.ptrSizeBits()
	fromType := c.Expr.GetType()
	toType := c.To
	toTypeIR := g.lowerType(toType)
	from := g.genExpr(env, fb, c.Expr, "")

	toIntSize := func() (int, bool) {
		if n, ok := ast.IntSize(toType, ptrBits); ok {
			return n, true
		}
		return ast.UIntSize(toType, ptrBits)
	}

	if fromSize, ok := ast.IntSize(fromType, ptrBits); ok {
		// From signed integer.
		if toSize, ok := toIntSize(); ok {
			switch {
			case fromSize < toSize:
				return fb.cur.NewSExt(from, toTypeIR)
			case fromSize > toSize:
				return fb.cur.NewTrunc(from, toTypeIR)
			default:
				return from
			}
		}
		if ast.IsFloat(toType) {
			return fb.cur.NewSIToFP(from, toTypeIR)
		}
	} else if fromSize, ok := ast.UIntSize(fromType, ptrBits); ok {
		// From unsigned integer.
		if toSize, ok := toIntSize(); ok {
			switch {
			case fromSize < toSize:
				return fb.cur.NewZExt(from, toTypeIR)
			case fromSize > toSize:
				return fb.cur.NewTrunc(from, toTypeIR)
			default:
				return from
			}
		}
		if ast.IsFloat(toType) {
			return fb.cur.NewUIToFP(from, toTypeIR)
		}
	} else if ast.IsFloat(fromType) {
		switch {
		case ast.IsFloat(toType):
			return g.buildFpCast(fb, from, toTypeIR)
		case ast.IsInt(toType):
			return fb.cur.NewFPToSI(from, toTypeIR)
		case ast.IsUInt(toType):
			return fb.cur.NewFPToUI(from, toTypeIR)
		}
	}
	c.Pos.ErrorExit(fmt.Sprintf("Invalid cast\nCannot cast from %s to %s", fromType, toType))
	return nil
}

// buildFpCast converts between float widths, or passes the value through
// unchanged when the widths agree.
func (g *Generator) buildFpCast(fb *fn, from value.Value, to types.Type) value.Value {
	fromSize := g.sizeOf(from.Type())
	toSize := g.sizeOf(to)
	switch {
	case fromSize < toSize:
		return fb.cur.NewFPExt(from, to)
	case fromSize > toSize:
		return fb.cur.NewFPTrunc(from, to)
	default:
		return from
	}
}
