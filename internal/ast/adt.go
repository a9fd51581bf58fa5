package ast

import "fmt"

// AdtVariant is one constructor of an algebraic data type, with its ordered
// member types. Member types may mention the parent ADT's type parameters
// by name.
type AdtVariant struct {
	Name    Ident
	Members []Type
}

// AdtDef is an algebraic data type definition.
type AdtDef struct {
	Name     Ident
	Params   []string
	Variants []AdtVariant
}

// VariantIndex returns the 0-based position of the named variant; the
// position is the tag stored in the lowered representation.
func (d *AdtDef) VariantIndex(name string) (int, bool) {
	for i, v := range d.Variants {
		if v.Name.S == name {
			return i, true
		}
	}
	return 0, false
}

// Adts is the registry of ADT definitions in scope for one compilation.
type Adts struct {
	Defs map[string]*AdtDef

	variantParent map[string]*AdtDef
}

// NewAdts builds a registry from definitions. Variant names must be unique
// across the program, as constructors are referenced unqualified.
func NewAdts(defs ...*AdtDef) *Adts {
	a := &Adts{
		Defs:          make(map[string]*AdtDef, len(defs)),
		variantParent: make(map[string]*AdtDef),
	}
	for _, d := range defs {
		a.Defs[d.Name.S] = d
		for _, v := range d.Variants {
			a.variantParent[v.Name.S] = d
		}
	}
	return a
}

// ParentAdtOfVariant returns the definition the named constructor belongs to.
func (a *Adts) ParentAdtOfVariant(variant string) (*AdtDef, bool) {
	d, ok := a.variantParent[variant]
	return d, ok
}

// VariantIndex returns the tag of the named constructor.
func (a *Adts) VariantIndex(variant string) (int, bool) {
	d, ok := a.variantParent[variant]
	if !ok {
		return 0, false
	}
	return d.VariantIndex(variant)
}

// TypeWithInstOfVariant returns the type of a variant's payload at the given
// instantiation: the member types substituted and folded into a right-nested
// pair chain, or Nil for an empty variant.
func (a *Adts) TypeWithInstOfVariant(d *AdtDef, v AdtVariant, inst []Type) Type {
	members := a.membersWithInst(d, v, inst)
	if len(members) == 0 {
		return TConst{Name: "Nil"}
	}
	t := members[len(members)-1]
	for i := len(members) - 2; i >= 0; i-- {
		t = TCons(members[i], t)
	}
	return t
}

// TypeWithInstOfVariantWithName is TypeWithInstOfVariant looked up by
// constructor name.
func (a *Adts) TypeWithInstOfVariantWithName(variant string, inst []Type) (Type, bool) {
	d, ok := a.variantParent[variant]
	if !ok {
		return nil, false
	}
	for _, v := range d.Variants {
		if v.Name.S == variant {
			return a.TypeWithInstOfVariant(d, v, inst), true
		}
	}
	return nil, false
}

// MembersWithInstOfVariantWithName returns a variant's member types with the
// instantiation substituted, in declaration order.
func (a *Adts) MembersWithInstOfVariantWithName(variant string, inst []Type) ([]Type, bool) {
	d, ok := a.variantParent[variant]
	if !ok {
		return nil, false
	}
	for _, v := range d.Variants {
		if v.Name.S == variant {
			return a.membersWithInst(d, v, inst), true
		}
	}
	return nil, false
}

func (a *Adts) membersWithInst(d *AdtDef, v AdtVariant, inst []Type) []Type {
	if len(inst) != 0 && len(inst) != len(d.Params) {
		panic(fmt.Sprintf("ICE: instantiation arity %d does not match params of ADT %s", len(inst), d.Name.S))
	}
	subst := make(map[string]Type, len(d.Params))
	for i, p := range d.Params {
		if i < len(inst) {
			subst[p] = inst[i]
		}
	}
	members := make([]Type, len(v.Members))
	for i, m := range v.Members {
		members[i] = substType(m, subst)
	}
	return members
}

func substType(t Type, subst map[string]Type) Type {
	switch t := t.(type) {
	case TVar:
		return t
	case TConst:
		if r, ok := subst[t.Name]; ok && len(t.Inst) == 0 {
			return r
		}
		return TConst{Name: t.Name, Inst: substAll(t.Inst, subst)}
	case TApp:
		return TApp{Ctor: t.Ctor, Args: substAll(t.Args, subst)}
	case TScheme:
		return TScheme{Args: substAll(t.Args, subst), Body: substType(t.Body, subst)}
	}
	panic(fmt.Sprintf("ICE: substType: unknown type %T", t))
}

func substAll(ts []Type, subst map[string]Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = substType(t, subst)
	}
	return out
}

// AdtIsRecursive reports whether d reaches itself through the transitive
// closure of its variants' member types, modulo instantiation. Recursive
// ADTs are lowered behind a pointer.
func (a *Adts) AdtIsRecursive(d *AdtDef) bool {
	seen := make(map[string]bool)
	var reaches func(name string) bool
	reaches = func(name string) bool {
		if seen[name] {
			return false
		}
		seen[name] = true
		def, ok := a.Defs[name]
		if !ok {
			return false
		}
		for _, v := range def.Variants {
			for _, m := range v.Members {
				if typeMentions(m, d.Name.S) {
					return true
				}
				for _, n := range mentionedAdtNames(m, a, nil) {
					if reaches(n) {
						return true
					}
				}
			}
		}
		return false
	}
	return reaches(d.Name.S)
}

// AdtOfVariantIsRecursive reports whether the ADT owning the named
// constructor is recursive.
func (a *Adts) AdtOfVariantIsRecursive(variant string) bool {
	d, ok := a.variantParent[variant]
	if !ok {
		panic(fmt.Sprintf("ICE: no ADT for variant `%s`", variant))
	}
	return a.AdtIsRecursive(d)
}

func typeMentions(t Type, name string) bool {
	switch t := t.(type) {
	case TConst:
		if t.Name == name {
			return true
		}
		for _, i := range t.Inst {
			if typeMentions(i, name) {
				return true
			}
		}
	case TApp:
		if t.Ctor == name {
			return true
		}
		for _, arg := range t.Args {
			if typeMentions(arg, name) {
				return true
			}
		}
	case TScheme:
		return typeMentions(t.Body, name)
	}
	return false
}

func mentionedAdtNames(t Type, a *Adts, acc []string) []string {
	switch t := t.(type) {
	case TConst:
		if _, ok := a.Defs[t.Name]; ok {
			acc = append(acc, t.Name)
		}
		for _, i := range t.Inst {
			acc = mentionedAdtNames(i, a, acc)
		}
	case TApp:
		if _, ok := a.Defs[t.Ctor]; ok {
			acc = append(acc, t.Ctor)
		}
		for _, arg := range t.Args {
			acc = mentionedAdtNames(arg, a, acc)
		}
	case TScheme:
		acc = mentionedAdtNames(t.Body, a, acc)
	}
	return acc
}
