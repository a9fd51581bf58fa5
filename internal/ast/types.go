package ast

import (
	"fmt"
	"strings"
)

// Type is an elaborated source type. By the time the back end sees a type it
// has been fully resolved by inference; the only type variables left are the
// ones a primitive-operator instantiation may still carry (see VarToInt64).
type Type interface {
	typeNode()
	String() string
}

// TVar is a leftover inference variable.
type TVar struct {
	ID int
}

// TConst is a named atomic type, optionally carrying the instantiation
// arguments of an algebraic data type (e.g. (List Int32)).
type TConst struct {
	Name string
	Inst []Type
}

// TApp is a type-constructor application: "->" (function), "Cons" (pair),
// "Ptr" (raw pointer), or the name of a user ADT.
type TApp struct {
	Ctor string
	Args []Type
}

// TScheme marks the use of a polymorphic binding at a concrete
// instantiation: Body is the resolved type, Args the instantiation that
// produced it. The environment is keyed by these instantiation lists.
type TScheme struct {
	Args []Type
	Body Type
}

func (TVar) typeNode()    {}
func (TConst) typeNode()  {}
func (TApp) typeNode()    {}
func (TScheme) typeNode() {}

func (t TVar) String() string { return fmt.Sprintf("t%d", t.ID) }

func (t TConst) String() string {
	if len(t.Inst) == 0 {
		return t.Name
	}
	return "(" + t.Name + " " + typesString(t.Inst) + ")"
}

func (t TApp) String() string {
	return "(" + t.Ctor + " " + typesString(t.Args) + ")"
}

func (t TScheme) String() string {
	return fmt.Sprintf("(inst [%s] %s)", typesString(t.Args), t.Body)
}

func typesString(ts []Type) string {
	ss := make([]string, len(ts))
	for i, t := range ts {
		ss[i] = t.String()
	}
	return strings.Join(ss, " ")
}

// Type constructors for the builtin type functions.

func TFunc(arg, ret Type) Type { return TApp{Ctor: "->", Args: []Type{arg, ret}} }
func TCons(car, cdr Type) Type { return TApp{Ctor: "Cons", Args: []Type{car, cdr}} }
func TPtr(t Type) Type         { return TApp{Ctor: "Ptr", Args: []Type{t}} }

// TIO is the type of an I/O action producing t: RealWorld -> (Cons t RealWorld).
func TIO(t Type) Type {
	return TFunc(TConst{Name: "RealWorld"}, TCons(t, TConst{Name: "RealWorld"}))
}

// TBinop is the type of a binary arithmetic primitive over t.
func TBinop(t Type) Type { return TFunc(TCons(t, t), t) }

// TRelationalBinop is the type of a binary relational primitive over t.
func TRelationalBinop(t Type) Type { return TFunc(TCons(t, t), TConst{Name: "Bool"}) }

// Canonicalize collapses instantiation wrappers and rewrites monomorphic ADT
// applications to their TConst form, so that types that denote the same
// lowered representation compare equal by Key.
func Canonicalize(t Type) Type {
	switch t := t.(type) {
	case TVar:
		return t
	case TConst:
		return TConst{Name: t.Name, Inst: canonicalizeAll(t.Inst)}
	case TApp:
		switch t.Ctor {
		case "->", "Cons", "Ptr":
			return TApp{Ctor: t.Ctor, Args: canonicalizeAll(t.Args)}
		default:
			// A non-builtin constructor is a user ADT application.
			return TConst{Name: t.Ctor, Inst: canonicalizeAll(t.Args)}
		}
	case TScheme:
		return Canonicalize(t.Body)
	}
	panic(fmt.Sprintf("ICE: Canonicalize: unknown type %T", t))
}

func canonicalizeAll(ts []Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = Canonicalize(t)
	}
	return out
}

// Key returns the canonical map key of t.
func Key(t Type) string { return Canonicalize(t).String() }

// KeyOf returns the canonical map key of an instantiation list. The empty
// list keys monomorphic bindings.
func KeyOf(ts []Type) string {
	if len(ts) == 0 {
		return ""
	}
	ss := make([]string, len(ts))
	for i, t := range ts {
		ss[i] = Key(t)
	}
	return strings.Join(ss, " ")
}

// GetFunc splits a function type into its parameter and return types.
func GetFunc(t Type) (arg, ret Type, ok bool) {
	app, isApp := Canonicalize(t).(TApp)
	if !isApp || app.Ctor != "->" || len(app.Args) != 2 {
		return nil, nil, false
	}
	return app.Args[0], app.Args[1], true
}

// GetInstArgs returns the scheme instantiation arguments of a use of a
// polymorphic binding, or nil for a monomorphic use.
func GetInstArgs(t Type) []Type {
	if s, ok := t.(TScheme); ok {
		return s.Args
	}
	return nil
}

// GetAdtInstArgs returns the ADT instantiation arguments carried by t.
func GetAdtInstArgs(t Type) []Type {
	switch t := Canonicalize(t).(type) {
	case TConst:
		return t.Inst
	}
	return nil
}

var intSizes = map[string]int{"Int8": 8, "Int16": 16, "Int32": 32, "Int64": 64}
var uintSizes = map[string]int{"UInt8": 8, "UInt16": 16, "UInt32": 32, "UInt64": 64}

// IntSize returns the width in bits of a signed integer type. IntPtr is
// pointer sized.
func IntSize(t Type, ptrBits int) (int, bool) {
	c, ok := Canonicalize(t).(TConst)
	if !ok {
		return 0, false
	}
	if c.Name == "IntPtr" {
		return ptrBits, true
	}
	n, ok := intSizes[c.Name]
	return n, ok
}

// UIntSize returns the width in bits of an unsigned integer type. UIntPtr is
// pointer sized.
func UIntSize(t Type, ptrBits int) (int, bool) {
	c, ok := Canonicalize(t).(TConst)
	if !ok {
		return 0, false
	}
	if c.Name == "UIntPtr" {
		return ptrBits, true
	}
	n, ok := uintSizes[c.Name]
	return n, ok
}

func IsInt(t Type) bool {
	c, ok := Canonicalize(t).(TConst)
	if !ok {
		return false
	}
	_, isSized := intSizes[c.Name]
	return isSized || c.Name == "IntPtr"
}

func IsUInt(t Type) bool {
	c, ok := Canonicalize(t).(TConst)
	if !ok {
		return false
	}
	_, isSized := uintSizes[c.Name]
	return isSized || c.Name == "UIntPtr"
}

func IsFloat(t Type) bool {
	c, ok := Canonicalize(t).(TConst)
	return ok && (c.Name == "Float32" || c.Name == "Float64")
}

// GetConst returns the name of a plain named type.
func GetConst(t Type) (string, bool) {
	c, ok := Canonicalize(t).(TConst)
	if !ok || len(c.Inst) > 0 {
		return "", false
	}
	return c.Name, true
}

// IsMonomorphic reports whether t contains no type variables.
func IsMonomorphic(t Type) bool {
	switch t := t.(type) {
	case TVar:
		return false
	case TConst:
		return allMonomorphic(t.Inst)
	case TApp:
		return allMonomorphic(t.Args)
	case TScheme:
		return allMonomorphic(t.Args) && IsMonomorphic(t.Body)
	}
	return false
}

func allMonomorphic(ts []Type) bool {
	for _, t := range ts {
		if !IsMonomorphic(t) {
			return false
		}
	}
	return true
}

// VarToInt64 collapses any type variables left in t to Int64. Primitive
// operators referenced at a still-polymorphic type default to Int64 until
// the monomorphizer learns to specialize them.
func VarToInt64(t Type) Type {
	switch t := t.(type) {
	case TVar:
		return TConst{Name: "Int64"}
	case TConst:
		return TConst{Name: t.Name, Inst: varsToInt64(t.Inst)}
	case TApp:
		return TApp{Ctor: t.Ctor, Args: varsToInt64(t.Args)}
	case TScheme:
		return TScheme{Args: varsToInt64(t.Args), Body: VarToInt64(t.Body)}
	}
	panic(fmt.Sprintf("ICE: VarToInt64: unknown type %T", t))
}

func varsToInt64(ts []Type) []Type {
	if len(ts) == 0 {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = VarToInt64(t)
	}
	return out
}

// GetConsBinop returns the operand type of a binary arithmetic operator
// type (-> (Cons t t) t).
func GetConsBinop(t Type) (Type, bool) {
	arg, _, ok := GetFunc(t)
	if !ok {
		return nil, false
	}
	pair, isApp := arg.(TApp)
	if !isApp || pair.Ctor != "Cons" || len(pair.Args) != 2 {
		return nil, false
	}
	if Key(pair.Args[0]) != Key(pair.Args[1]) {
		return nil, false
	}
	return pair.Args[0], true
}

// GetConsRelationalBinop returns the operand type of a binary relational
// operator type (-> (Cons t t) Bool).
func GetConsRelationalBinop(t Type) (Type, bool) {
	return GetConsBinop(t)
}
