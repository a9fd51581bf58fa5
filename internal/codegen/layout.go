package codegen

import (
	"github.com/llir/llvm/ir/types"
)

// Data-layout sizing for the target. The backend only needs sizes for two
// things: picking the largest variant of an ADT and computing heap
// allocation sizes, so this mirrors the usual C layout rules for the
// targets we emit for (natural alignment, structs padded to the alignment
// of their widest member).

func (g *Generator) ptrSizeBytes() uint64 {
	return uint64(g.cfg.PointerBytes())
}

func (g *Generator) ptrSizeBits() int {
	return g.cfg.PointerBits
}

// sizeOf returns the allocation size of t in bytes.
func (g *Generator) sizeOf(t types.Type) uint64 {
	switch t := t.(type) {
	case *types.IntType:
		return intStoreSize(t.BitSize)
	case *types.FloatType:
		return floatSize(t)
	case *types.PointerType:
		return g.ptrSizeBytes()
	case *types.ArrayType:
		elem := g.sizeOf(t.ElemType)
		elem = align(elem, g.alignOf(t.ElemType))
		return elem * t.Len
	case *types.StructType:
		if t.Opaque {
			panic(ice("sizeOf of opaque struct %q", t.Name()))
		}
		var off uint64
		for _, f := range t.Fields {
			off = align(off, g.alignOf(f))
			off += g.sizeOf(f)
		}
		return align(off, g.alignOf(t))
	}
	panic(ice("sizeOf of unsized type %v", t))
}

// alignOf returns the ABI alignment of t in bytes.
func (g *Generator) alignOf(t types.Type) uint64 {
	switch t := t.(type) {
	case *types.IntType:
		a := intStoreSize(t.BitSize)
		if a > g.ptrSizeBytes() {
			return g.ptrSizeBytes()
		}
		return a
	case *types.FloatType:
		return floatSize(t)
	case *types.PointerType:
		return g.ptrSizeBytes()
	case *types.ArrayType:
		return g.alignOf(t.ElemType)
	case *types.StructType:
		var a uint64 = 1
		for _, f := range t.Fields {
			if fa := g.alignOf(f); fa > a {
				a = fa
			}
		}
		return a
	}
	panic(ice("alignOf of unsized type %v", t))
}

func intStoreSize(bits uint64) uint64 {
	bytes := (bits + 7) / 8
	// Round up to the next power of two, matching the store sizes LLVM
	// uses for the common integer widths.
	var n uint64 = 1
	for n < bytes {
		n *= 2
	}
	return n
}

func floatSize(t *types.FloatType) uint64 {
	switch t.Kind {
	case types.FloatKindFloat:
		return 4
	case types.FloatKindDouble:
		return 8
	case types.FloatKindHalf:
		return 2
	}
	panic(ice("unsupported float kind %v", t.Kind))
}

func align(off, a uint64) uint64 {
	if a == 0 {
		return off
	}
	rem := off % a
	if rem == 0 {
		return off
	}
	return off + (a - rem)
}
