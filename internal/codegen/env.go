package codegen

import (
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/lyn-lang/lyn/internal/ast"
)

// GlobFunc is a global or extern function. The naked function is used for
// direct calls and external linkage; Closure is a global constant wrapping
// it so the function can also be passed around as an ordinary value.
type GlobFunc struct {
	Func    *ir.Func
	Closure *ir.Global
}

// Global is a global binding: a function or a runtime-initialized variable.
type Global interface{ globalNode() }

func (GlobFunc) globalNode() {}
func (GlobVar) globalNode()  {}

// GlobVar is a global variable, declared undef and initialized inside the
// program entry wrapper.
type GlobVar struct {
	Var *ir.Global
}

// Var is the result of an environment lookup.
type Var interface{ varNode() }

// VarGlobal wraps a global binding.
type VarGlobal struct{ Global Global }

// VarLocal wraps a local value.
type VarLocal struct{ Value value.Value }

func (VarGlobal) varNode() {}
func (VarLocal) varNode()  {}

// locals is a stack of scoped instantiation-indexed maps per name.
type locals map[string][]map[string]value.Value

// Env is the name environment threaded through emission. Globals are keyed
// by name and instantiation; locals additionally stack per lexical scope.
// Lookup prefers locals over globals.
type Env struct {
	globs map[string]map[string]Global
	locs  locals
}

// NewEnv returns an empty environment.
func NewEnv() *Env {
	return &Env{
		globs: make(map[string]map[string]Global),
		locs:  make(locals),
	}
}

// GetLocal looks up a local in the innermost scope holding the name.
func (e *Env) GetLocal(name string, inst []ast.Type) (value.Value, bool) {
	scopes := e.locs[name]
	if len(scopes) == 0 {
		return nil, false
	}
	v, ok := scopes[len(scopes)-1][ast.KeyOf(inst)]
	return v, ok
}

// GetGlobal looks up a global binding instantiation.
func (e *Env) GetGlobal(name string, inst []ast.Type) (Global, bool) {
	insts, ok := e.globs[name]
	if !ok {
		return nil, false
	}
	gl, ok := insts[ast.KeyOf(inst)]
	return gl, ok
}

// GetGlobalMono looks up a monomorphic global binding.
func (e *Env) GetGlobalMono(name string) (Global, bool) {
	return e.GetGlobal(name, nil)
}

// Get resolves a name at an instantiation, preferring locals.
func (e *Env) Get(name string, inst []ast.Type) (Var, bool) {
	if v, ok := e.GetLocal(name, inst); ok {
		return VarLocal{Value: v}, true
	}
	if gl, ok := e.GetGlobal(name, inst); ok {
		return VarGlobal{Global: gl}, true
	}
	return nil, false
}

// AddGlobal registers a global name ahead of its instantiations.
func (e *Env) AddGlobal(name string) {
	if _, ok := e.globs[name]; !ok {
		e.globs[name] = make(map[string]Global)
	}
}

// AddGlobalMono binds a monomorphic global.
func (e *Env) AddGlobalMono(name string, gl Global) {
	e.AddGlobal(name)
	e.globs[name][""] = gl
}

// AddGlobalInst binds one instantiation of a global. Rebinding an
// instantiation is a compiler bug.
func (e *Env) AddGlobalInst(name string, inst []ast.Type, gl Global) {
	e.AddGlobal(name)
	key := ast.KeyOf(inst)
	if _, dup := e.globs[name][key]; dup {
		panic(ice("global `%s` already bound for inst [%s]", name, key))
	}
	e.globs[name][key] = gl
}

// PushLocal opens a scope for name with the given instantiation map.
func (e *Env) PushLocal(name string, insts map[string]value.Value) {
	if insts == nil {
		insts = make(map[string]value.Value)
	}
	e.locs[name] = append(e.locs[name], insts)
}

// PushLocalMono opens a scope binding name monomorphically.
func (e *Env) PushLocalMono(name string, v value.Value) {
	e.PushLocal(name, map[string]value.Value{"": v})
}

// AddLocalInst binds one instantiation of name in its innermost scope,
// opening a scope if none exists. Rebinding is a compiler bug.
func (e *Env) AddLocalInst(name string, inst []ast.Type, v value.Value) {
	if len(e.locs[name]) == 0 {
		e.locs[name] = append(e.locs[name], make(map[string]value.Value))
	}
	scope := e.locs[name][len(e.locs[name])-1]
	key := ast.KeyOf(inst)
	if _, dup := scope[key]; dup {
		panic(ice("local `%s` already bound for inst [%s]", name, key))
	}
	scope[key] = v
}

// PopLocal closes the innermost scope of name.
func (e *Env) PopLocal(name string) map[string]value.Value {
	scopes := e.locs[name]
	if len(scopes) == 0 {
		panic(ice("popped empty local scope stack of `%s`", name))
	}
	top := scopes[len(scopes)-1]
	e.locs[name] = scopes[:len(scopes)-1]
	return top
}

// HasLocal reports whether name currently has an open local scope in the
// current function. Free variables resolving to globals need no capture.
func (e *Env) HasLocal(name string) bool {
	return len(e.locs[name]) > 0
}

// LocalDepth returns how many scopes are stacked for name.
func (e *Env) LocalDepth(name string) int {
	return len(e.locs[name])
}

// swapLocals replaces the whole local environment, returning the previous
// one. Used when emission descends into another function, whose locals are
// exactly its parameter and captures.
func (e *Env) swapLocals(l locals) locals {
	old := e.locs
	e.locs = l
	return old
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
