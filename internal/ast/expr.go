package ast

// Expr is an elaborated expression. Every node carries its resolved type.
type Expr interface {
	exprNode()
	GetType() Type
	GetPos() SrcPos
}

// Nil is the unit value.
type Nil struct {
	Pos SrcPos
}

// NumLit is a numeric literal kept in textual form; the resolved type
// selects the numeric family it is parsed as during lowering.
type NumLit struct {
	Lit string
	Typ Type
	Pos SrcPos
}

// StrLit is a string literal. Its type is the runtime's String type; the
// literal bytes are threaded through the str_lit_to_string converter.
type StrLit struct {
	Lit string
	Typ Type
	Pos SrcPos
}

// Bool is a boolean literal.
type Bool struct {
	Val bool
	Pos SrcPos
}

// Variable is a reference to a local or global binding.
type Variable struct {
	Ident Ident
	Typ   Type
}

// App is the application of a unary function to an argument.
type App struct {
	Func Expr
	Arg  Expr
	Typ  Type
	Pos  SrcPos
}

// If is a two-armed conditional.
type If struct {
	Predicate   Expr
	Consequent  Expr
	Alternative Expr
	Typ         Type
	Pos         SrcPos
}

// Lambda is a single-parameter function literal. Typ is the function type
// (-> param ret).
type Lambda struct {
	ParamIdent Ident
	Body       Expr
	Typ        Type
	Pos        SrcPos
}

// Let binds a group of possibly mutually recursive bindings around a body.
type Let struct {
	Bindings *Group
	Body     Expr
	Typ      Type
	Pos      SrcPos
}

// Cons constructs a pair.
type Cons struct {
	Car Expr
	Cdr Expr
	Typ Type
	Pos SrcPos
}

// Car extracts the first element of a pair.
type Car struct {
	Pair Expr
	Typ  Type
	Pos  SrcPos
}

// Cdr extracts the second element of a pair.
type Cdr struct {
	Pair Expr
	Typ  Type
	Pos  SrcPos
}

// Cast converts a numeric expression to another numeric type.
type Cast struct {
	Expr Expr
	To   Type
	Pos  SrcPos
}

// New constructs an ADT value through the named variant constructor.
type New struct {
	Constr  Ident
	Members []Expr
	Typ     Type
	Pos     SrcPos
}

// Match scrutinizes an expression against a sequence of pattern cases.
type Match struct {
	Expr  Expr
	Cases []Case
	Typ   Type
	Pos   SrcPos
}

// Case is one arm of a match.
type Case struct {
	Patt Pattern
	Body Expr
}

func (Nil) exprNode()      {}
func (NumLit) exprNode()   {}
func (StrLit) exprNode()   {}
func (Bool) exprNode()     {}
func (Variable) exprNode() {}
func (App) exprNode()      {}
func (If) exprNode()       {}
func (Lambda) exprNode()   {}
func (Let) exprNode()      {}
func (Cons) exprNode()     {}
func (Car) exprNode()      {}
func (Cdr) exprNode()      {}
func (Cast) exprNode()     {}
func (New) exprNode()      {}
func (Match) exprNode()    {}

func (Nil) GetType() Type        { return TConst{Name: "Nil"} }
func (e NumLit) GetType() Type   { return e.Typ }
func (e StrLit) GetType() Type   { return e.Typ }
func (Bool) GetType() Type       { return TConst{Name: "Bool"} }
func (e Variable) GetType() Type { return e.Typ }
func (e App) GetType() Type      { return e.Typ }
func (e If) GetType() Type       { return e.Typ }
func (e Lambda) GetType() Type   { return e.Typ }
func (e Let) GetType() Type      { return e.Typ }
func (e Cons) GetType() Type     { return e.Typ }
func (e Car) GetType() Type      { return e.Typ }
func (e Cdr) GetType() Type      { return e.Typ }
func (e Cast) GetType() Type     { return e.To }
func (e New) GetType() Type      { return e.Typ }
func (e Match) GetType() Type    { return e.Typ }

func (e Nil) GetPos() SrcPos      { return e.Pos }
func (e NumLit) GetPos() SrcPos   { return e.Pos }
func (e StrLit) GetPos() SrcPos   { return e.Pos }
func (e Bool) GetPos() SrcPos     { return e.Pos }
func (e Variable) GetPos() SrcPos { return e.Ident.Pos }
func (e App) GetPos() SrcPos      { return e.Pos }
func (e If) GetPos() SrcPos       { return e.Pos }
func (e Lambda) GetPos() SrcPos   { return e.Pos }
func (e Let) GetPos() SrcPos      { return e.Pos }
func (e Cons) GetPos() SrcPos     { return e.Pos }
func (e Car) GetPos() SrcPos      { return e.Pos }
func (e Cdr) GetPos() SrcPos      { return e.Pos }
func (e Cast) GetPos() SrcPos     { return e.Pos }
func (e New) GetPos() SrcPos      { return e.Pos }
func (e Match) GetPos() SrcPos    { return e.Pos }

// AsVariable returns the expression as a variable reference if it is one.
func AsVariable(e Expr) (Variable, bool) {
	v, ok := e.(Variable)
	return v, ok
}
