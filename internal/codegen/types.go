package codegen

import (
	"github.com/llir/llvm/ir/types"

	"github.com/lyn-lang/lyn/internal/ast"
)

func (g *Generator) intPtrType() *types.IntType {
	switch g.ptrSizeBits() {
	case 8:
		return types.I8
	case 16:
		return types.I16
	case 32:
		return types.I32
	case 64:
		return types.I64
	}
	panic(ice("platform has unsupported pointer size of %d bit", g.ptrSizeBits()))
}

// lowerFuncType is the IR signature of any lowered function: the generic
// captures pointer followed by the single argument.
func (g *Generator) lowerFuncType(arg, ret ast.Type) *types.FuncType {
	return types.NewFunc(g.lowerType(ret), typeGenericPtr(), g.lowerType(arg))
}

// lowerType maps a source type to its IR representation. Identical
// canonical types map to equal IR types; ADT instantiations are cached so
// they also share one handle.
func (g *Generator) lowerType(typ ast.Type) types.Type {
	switch t := ast.Canonicalize(typ).(type) {
	case ast.TConst:
		switch t.Name {
		case "Int8", "UInt8":
			return types.I8
		case "Int16", "UInt16":
			return types.I16
		case "Int32", "UInt32":
			return types.I32
		case "Int64", "UInt64":
			return types.I64
		case "IntPtr", "UIntPtr":
			return g.intPtrType()
		case "Bool":
			return types.I1
		case "Float32":
			return types.Float
		case "Float64":
			return types.Double
		case "Nil":
			return g.named.nil_
		case "RealWorld":
			return g.named.realWorld
		}
		// Not a builtin, so it has to be a user-defined algebraic data
		// type, unless the typechecker let something through.
		if _, ok := g.adts.Defs[t.Name]; ok {
			return g.genOrCacheAdt(t.Name, t.Inst)
		}
		panic(ice("type `%s` is not implemented in lowerType", t))
	case ast.TApp:
		switch t.Ctor {
		case "->":
			fp := types.NewPointer(g.lowerFuncType(t.Args[0], t.Args[1]))
			return types.NewStruct(fp, g.named.rcGeneric)
		case "Cons":
			return types.NewStruct(g.lowerType(t.Args[0]), g.lowerType(t.Args[1]))
		case "Ptr":
			return types.NewPointer(g.lowerType(t.Args[0]))
		}
		panic(ice("type function `%s` is not implemented in lowerType", t.Ctor))
	}
	panic(ice("type `%s` is not implemented in lowerType", typ))
}

func adtKey(name string, inst []ast.Type) string {
	return name + "[" + ast.KeyOf(inst) + "]"
}

// genOrCacheAdt returns the cached IR type of an ADT instantiation,
// lowering it on first use. A recursive ADT is cached as an RC pointer to
// an initially opaque named struct before its elements are populated, which
// is what terminates the recursion.
func (g *Generator) genOrCacheAdt(name string, inst []ast.Type) types.Type {
	key := adtKey(name, inst)
	if t, ok := g.named.adts[key]; ok {
		return t
	}
	def, ok := g.adts.Defs[name]
	if !ok {
		panic(ice("no ADT of name `%s` in genOrCacheAdt", name))
	}
	if g.adts.AdtIsRecursive(def) {
		inner := types.NewStruct()
		inner.Opaque = true
		g.Module.NewTypeDef(g.globalName(name+"_in"), inner)
		g.named.adtsInner[key] = inner
		g.named.adts[key] = rcType(inner)
		g.populateRecursiveAdt(def, inst, inner)
	} else {
		t := g.genAdt(def, inst)
		g.named.adts[key] = t
	}
	return g.named.adts[key]
}

// genAdt lowers a non-recursive ADT: a named struct of a 16-bit tag and the
// largest variant's payload type.
func (g *Generator) genAdt(def *ast.AdtDef, inst []ast.Type) types.Type {
	largest := g.genLargestAdtVariantType(def, inst)
	st := types.NewStruct(types.I16, largest)
	g.Module.NewTypeDef(g.globalName(def.Name.S), st)
	return st
}

// populateRecursiveAdt fills in the elements of a recursive ADT's named
// struct after the RC pointer to it has been cached, so member types that
// mention the ADT resolve through the cache instead of recursing forever.
func (g *Generator) populateRecursiveAdt(def *ast.AdtDef, inst []ast.Type, inner *types.StructType) {
	largest := g.genLargestAdtVariantType(def, inst)
	inner.Fields = []types.Type{types.I16, largest}
	inner.Opaque = false
}

// genLargestAdtVariantType lowers every variant's payload and picks the
// largest by target size. Ties go to the first variant of maximum size; the
// representation does not depend on which one wins.
func (g *Generator) genLargestAdtVariantType(def *ast.AdtDef, inst []ast.Type) types.Type {
	var largest types.Type
	var largestSize uint64
	for _, v := range def.Variants {
		t := g.lowerType(g.adts.TypeWithInstOfVariant(def, v, inst))
		if size := g.sizeOf(t); largest == nil || size > largestSize {
			largest = t
			largestSize = size
		}
	}
	if largest == nil {
		return g.named.nil_
	}
	return largest
}

// capturesTypeOfFreeVars is the IR type of a lambda's capture record: a
// struct of the lowered types of every captured (name, instantiation) pair,
// in sorted order.
func (g *Generator) capturesTypeOfFreeVars(fvs freeVarInsts) *types.StructType {
	var fields []types.Type
	for _, name := range sortedNames(fvs) {
		insts := fvs[name]
		for _, key := range sortedNames(insts) {
			fields = append(fields, g.lowerType(insts[key].typ))
		}
	}
	return types.NewStruct(fields...)
}
