package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lyn-lang/lyn/internal/ast"
)

// buildStructOfType assembles a value of the given aggregate type from
// field values, one insertvalue at a time.
func (g *Generator) buildStructOfType(fb *fn, vals []value.Value, typ types.Type) value.Value {
	var out value.Value = constant.NewUndef(typ)
	for i, v := range vals {
		out = fb.cur.NewInsertValue(out, v, uint64(i))
	}
	return out
}

// buildStruct assembles an anonymous struct from field values.
func (g *Generator) buildStruct(fb *fn, vals ...value.Value) value.Value {
	fields := make([]types.Type, len(vals))
	for i, v := range vals {
		fields[i] = v.Type()
	}
	return g.buildStructOfType(fb, vals, types.NewStruct(fields...))
}

// buildCallNamed calls the function or closure bound to name. Global and
// extern functions are called directly, without the closure overhead.
func (g *Generator) buildCallNamed(fb *fn, env *Env, name string, inst []ast.Type, arg value.Value) value.Value {
	v, ok := env.Get(name, inst)
	if !ok {
		panic(ice("no function `%s` defined or declared", name))
	}
	switch v := v.(type) {
	case VarGlobal:
		switch gl := v.Global.(type) {
		case GlobFunc:
			return fb.cur.NewCall(gl.Func, arg)
		case GlobVar:
			loaded := fb.cur.NewLoad(gl.Var.ContentType, gl.Var)
			return g.buildApp(fb, loaded, arg)
		}
	case VarLocal:
		return g.buildApp(fb, v.Value, arg)
	}
	panic(ice("no function `%s` defined or declared", name))
}

func (g *Generator) buildCallNamedMono(fb *fn, env *Env, name string, arg value.Value) value.Value {
	return g.buildCallNamed(fb, env, name, nil, arg)
}

// buildApp applies a closure value to an argument: extract the function
// pointer and the captures pointer, then call fp(captures, arg).
func (g *Generator) buildApp(fb *fn, closure, arg value.Value) value.Value {
	funcVal := fb.setName(fb.cur.NewExtractValue(closure, 0), "func")
	capturesRC := fb.setName(fb.cur.NewExtractValue(closure, 1), "capts-rc")
	capturesPtr := fb.setName(g.buildGepRCContentsGeneric(fb, capturesRC), "capts-ptr")
	return fb.cur.NewCall(funcVal, capturesPtr, arg)
}

// buildMalloc allocates n bytes of heap memory through whatever function is
// bound to malloc, yielding a generic i8* like C's void pointer.
func (g *Generator) buildMalloc(fb *fn, env *Env, n uint64) value.Value {
	size := constant.NewInt(g.intPtrType(), int64(n))
	ptr := g.buildCallNamedMono(fb, env, "malloc", size)
	return fb.setName(ptr, "malloc-ptr")
}

// buildMallocOfType allocates heap space for a value of type typ and
// returns a pointer of type *typ.
func (g *Generator) buildMallocOfType(fb *fn, env *Env, typ types.Type) value.Value {
	p := g.buildMalloc(fb, env, g.sizeOf(typ))
	return fb.cur.NewBitCast(p, types.NewPointer(typ))
}

// buildValOnHeap stores val into fresh heap space and returns the pointer.
func (g *Generator) buildValOnHeap(fb *fn, env *Env, val value.Value) value.Value {
	p := g.buildMallocOfType(fb, env, val.Type())
	fb.cur.NewStore(val, p)
	return p
}

// buildRC wraps val in a reference counting pointer with the count at 1.
func (g *Generator) buildRC(fb *fn, env *Env, val value.Value) value.Value {
	s := g.buildStruct(fb, constant.NewInt(types.I64, 1), val)
	return g.buildValOnHeap(fb, env, s)
}

// buildGepRCContents yields a pointer to the payload of an RC pointer.
func (g *Generator) buildGepRCContents(fb *fn, rc value.Value) value.Value {
	elem := rc.Type().(*types.PointerType).ElemType
	return fb.cur.NewGetElementPtr(elem, rc,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1))
}

// buildGepRCContentsGeneric yields a generic payload pointer from an RC
// pointer of any concrete payload type.
func (g *Generator) buildGepRCContentsGeneric(fb *fn, rc value.Value) value.Value {
	generic := fb.cur.NewBitCast(rc, types.NewPointer(types.NewStruct(types.I64, types.I8)))
	return g.buildGepRCContents(fb, generic)
}

// buildAsGenericRC bitcasts any RC pointer to the uniform {i64, i8}*
// captures type carried inside closure values.
func (g *Generator) buildAsGenericRC(fb *fn, v value.Value) value.Value {
	return fb.cur.NewBitCast(v, g.named.rcGeneric)
}

// buildLoadCar loads the first member of a pair through a pointer to it.
func (g *Generator) buildLoadCar(fb *fn, consPtr value.Value) value.Value {
	elem := consPtr.Type().(*types.PointerType).ElemType
	carPtr := fb.cur.NewGetElementPtr(elem, consPtr,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	carType := elem.(*types.StructType).Fields[0]
	return fb.cur.NewLoad(carType, carPtr)
}

func (g *Generator) buildExtractCar(fb *fn, cons value.Value) value.Value {
	return fb.cur.NewExtractValue(cons, 0)
}

func (g *Generator) buildExtractCdr(fb *fn, cons value.Value) value.Value {
	return fb.cur.NewExtractValue(cons, 1)
}

// buildSizeCast reinterprets an aggregate register value as a larger type
// through a stack round-trip: allocate the target, view the slot as the
// source type, store, and load the target back out.
func (g *Generator) buildSizeCast(fb *fn, val value.Value, typ types.Type) value.Value {
	if g.sizeOf(val.Type()) > g.sizeOf(typ) {
		panic(ice("buildSizeCast to smaller target type, from sizeof(%v)=%d to sizeof(%v)=%d",
			val.Type(), g.sizeOf(val.Type()), typ, g.sizeOf(typ)))
	}
	target := fb.setName(fb.cur.NewAlloca(typ), "cast-target-stack")
	valStack := fb.setName(fb.cur.NewBitCast(target, types.NewPointer(val.Type())), "cast-val-stack")
	fb.cur.NewStore(val, valStack)
	return fb.setName(fb.cur.NewLoad(typ, target), "cast-target")
}

// buildEq compares two values of the same numeric family for equality.
func (g *Generator) buildEq(fb *fn, x, y value.Value) value.Value {
	if _, isFloat := x.Type().(*types.FloatType); isFloat {
		return fb.cur.NewFCmp(enum.FPredOEQ, x, y)
	}
	return fb.cur.NewICmp(enum.IPredEQ, x, y)
}

// buildPanic emits a call to the runtime's _panic with a diagnostic string.
func (g *Generator) buildPanic(fb *fn, env *Env, msg string) {
	sc := g.buildStrLit(fb, env, msg)
	g.buildCallNamedMono(fb, env, "_panic", sc)
}
