package ast

// MonoInst is one monomorphic specialization of a polymorphic binding: the
// instantiation type list together with the specialized value.
type MonoInst struct {
	Inst []Type
	Val  Expr
}

// Binding associates an identifier with a value. A polymorphic binding
// (Sig contains type variables) carries one specialized value per concrete
// instantiation in MonoInsts; its Val is the unspecialized original and is
// never lowered directly.
type Binding struct {
	Ident     Ident
	Sig       Type
	Val       Expr
	MonoInsts []MonoInst
}

// IsMonomorphic reports whether the binding needs no specialization.
func (b *Binding) IsMonomorphic() bool { return IsMonomorphic(b.Sig) }

// Group is an ordered list of bindings that may be mutually recursive
// through closures. Callers supply bindings in dependency order; the code
// generator emits them in the order given.
type Group struct {
	List []*Binding
}

// Bindings returns the bindings in emission order.
func (g *Group) Bindings() []*Binding { return g.List }

// ByName finds a binding in the group.
func (g *Group) ByName(name string) *Binding {
	for _, b := range g.List {
		if b.Ident.S == name {
			return b
		}
	}
	return nil
}

// ExternDecl declares a C-ABI foreign function.
type ExternDecl struct {
	Ident Ident
	Typ   Type
	Pos   SrcPos
}

// Module is the elaborated compilation unit the back end consumes: extern
// declarations, the topologically ordered global bindings, and the ADT
// definitions in scope.
type Module struct {
	Externs map[string]ExternDecl
	Globals *Group
	Adts    *Adts
}
