package lexer

import (
	"fmt"
	"strings"

	"github.com/lyn-lang/lyn/internal/ast"
)

// TokenTree is the s-expression surface of a Lyn source file: atoms and
// parenthesised lists, each carrying the position it was written at. The
// macro expander rewrites token trees before any parsing happens.
type TokenTree interface {
	tokenTree()
	GetPos() ast.SrcPos
	String() string
}

// Ident is an identifier atom.
type Ident struct {
	S   string
	Pos ast.SrcPos
}

// Num is a numeric literal atom, kept textual; the numeric family is only
// known once types are resolved.
type Num struct {
	S   string
	Pos ast.SrcPos
}

// Str is a string literal atom with escapes already processed.
type Str struct {
	S   string
	Pos ast.SrcPos
}

// List is a parenthesised sequence of token trees.
type List struct {
	Items []TokenTree
	Pos   ast.SrcPos
}

func (Ident) tokenTree() {}
func (Num) tokenTree()   {}
func (Str) tokenTree()   {}
func (List) tokenTree()  {}

func (t Ident) GetPos() ast.SrcPos { return t.Pos }
func (t Num) GetPos() ast.SrcPos   { return t.Pos }
func (t Str) GetPos() ast.SrcPos   { return t.Pos }
func (t List) GetPos() ast.SrcPos  { return t.Pos }

func (t Ident) String() string { return t.S }
func (t Num) String() string   { return t.S }
func (t Str) String() string   { return fmt.Sprintf("%q", t.S) }

func (t List) String() string {
	items := make([]string, len(t.Items))
	for i, item := range t.Items {
		items[i] = item.String()
	}
	return "(" + strings.Join(items, " ") + ")"
}
