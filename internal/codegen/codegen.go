// Package codegen lowers the elaborated, type-checked, monomorphized AST
// into LLVM IR. Closures become {fp, captures} pairs with reference-counted
// capture records, ADTs become tagged unions sized to their largest variant
// (behind an RC pointer when recursive), and polymorphic bindings are
// emitted once per instantiation.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/lyn-lang/lyn/internal/ast"
	"github.com/lyn-lang/lyn/internal/target"
)

// namedTypes caches the named IR types of one compilation. The ADT caches
// are keyed by (name, instantiation) so that identical instantiations share
// one IR type, which both gives aggregate type equality and closes the knot
// for recursive definitions.
type namedTypes struct {
	nil_      *types.StructType
	realWorld *types.StructType
	// rcGeneric is the uniform captures pointer type {i64, i8}*. Capture
	// records of any shape are bitcast to it inside closure values.
	rcGenericInner *types.StructType
	rcGeneric      *types.PointerType
	adts           map[string]types.Type
	adtsInner      map[string]*types.StructType
}

// Generator emits one program into an IR module. It is a single-threaded
// pass; the only mutable state besides the module is the ADT cache, the
// module-level name uniquifier and the per-call environment threaded through
// the emitters.
type Generator struct {
	cfg    target.Config
	Module *ir.Module
	adts   *ast.Adts
	named  namedTypes

	// globalNames uniquifies module-level identifiers; the IR builder does
	// not rename colliding globals on its own.
	globalNames map[string]int
}

// New prepares a generator targeting cfg for a program using the given ADT
// definitions.
func New(cfg target.Config, adts *ast.Adts) *Generator {
	m := ir.NewModule()
	m.TargetTriple = cfg.Triple
	g := &Generator{
		cfg:         cfg,
		Module:      m,
		adts:        adts,
		globalNames: make(map[string]int),
	}
	rcInner := types.NewStruct(types.I64, types.I8)
	m.NewTypeDef("rc_gen_in", rcInner)
	g.named = namedTypes{
		nil_:           types.NewStruct(),
		realWorld:      types.NewStruct(),
		rcGenericInner: rcInner,
		rcGeneric:      types.NewPointer(rcInner),
		adts:           make(map[string]types.Type),
		adtsInner:      make(map[string]*types.StructType),
	}
	m.NewTypeDef("Nil", g.named.nil_)
	m.NewTypeDef("RealWorld", g.named.realWorld)
	return g
}

// globalName claims a unique module-level name, appending a numeric suffix
// on collision.
func (g *Generator) globalName(base string) string {
	n := g.globalNames[base]
	g.globalNames[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, n)
}

// fn is the builder position within one function under construction: the
// function, the block receiving instructions, and a name uniquifier for its
// locals. Emitters thread a *fn explicitly and leave cur at the join block
// of whatever they emitted; helpers that build other functions construct
// their own fn, so no position is ever saved and restored.
type fn struct {
	f     *ir.Func
	cur   *ir.Block
	names map[string]int
}

func newFn(f *ir.Func) *fn {
	fb := &fn{f: f, names: make(map[string]int)}
	fb.cur = fb.block("entry")
	return fb
}

// block appends a new basic block with a function-unique name.
func (fb *fn) block(base string) *ir.Block {
	return fb.f.NewBlock(fb.name(base))
}

func (fb *fn) name(base string) string {
	n := fb.names[base]
	fb.names[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s.%d", base, n)
}

// setName names a value if it is nameable and a name was requested.
func (fb *fn) setName(v value.Value, name string) value.Value {
	if name == "" {
		return v
	}
	if named, ok := v.(value.Named); ok {
		named.SetName(fb.name(name))
	}
	return v
}

func (g *Generator) newNilVal() value.Value {
	return constant.NewUndef(g.named.nil_)
}

func (g *Generator) newRealWorldVal() value.Value {
	return constant.NewUndef(g.named.realWorld)
}

// typeGenericPtr is the i8* used for opaque captures parameters and raw
// heap pointers.
func typeGenericPtr() *types.PointerType {
	return types.NewPointer(types.I8)
}

// rcType is the type of a reference counted pointer to contents:
// {i64, contents}*. The count is initialized to 1 at allocation; nothing in
// this pass ever decrements it.
func rcType(contents types.Type) *types.PointerType {
	return types.NewPointer(types.NewStruct(types.I64, contents))
}

func ice(format string, args ...interface{}) string {
	return "ICE: " + fmt.Sprintf(format, args...)
}

// mangle derives the IR-level name of a global binding instantiation.
func mangle(name string, inst []ast.Type) string {
	if len(inst) == 0 {
		return name
	}
	return name + "$" + ast.KeyOf(inst)
}

func isArithmBinop(name string) bool {
	switch name {
	case "add", "sub", "mul", "div":
		return true
	}
	return false
}

func isRelationalBinop(name string) bool {
	switch name {
	case "eq", "lt":
		return true
	}
	return false
}
