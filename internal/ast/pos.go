package ast

import (
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/lyn-lang/lyn/internal/errors"
)

var (
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// SrcPos is a position in a Lyn source file.
type SrcPos struct {
	File string
	Line int
	Col  int
}

func (p SrcPos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// ErrorString renders a coded diagnostic anchored at p without printing it.
// Used for messages that are embedded in generated code, e.g. runtime panics.
func (p SrcPos) ErrorString(code errors.Code, msg string) string {
	return fmt.Sprintf("%s %s: %s", code, p, msg)
}

// PrintError prints a coded diagnostic anchored at p to stderr.
func (p SrcPos) PrintError(code errors.Code, msg string) {
	fmt.Fprintf(os.Stderr, "%s: %s: %s: %s\n", cyan(p.String()), red("Error"), code, msg)
}

// PrintHelp prints a follow-up hint to stderr.
func (p SrcPos) PrintHelp(msg string) {
	fmt.Fprintf(os.Stderr, "%s: %s: %s\n", cyan(p.String()), yellow("Help"), msg)
}

// ErrorExit prints an uncoded diagnostic anchored at p and exits the process.
// The first user error terminates the compilation; errors are not accumulated.
func (p SrcPos) ErrorExit(msg string) {
	fmt.Fprintf(os.Stderr, "%s: %s: %s\n", cyan(p.String()), red("Error"), msg)
	os.Exit(1)
}

// ErrorExit prints a diagnostic without a source position and exits.
func ErrorExit(msg string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", red("Error"), msg)
	os.Exit(1)
}

// Exit terminates compilation after diagnostics have already been printed.
func Exit() {
	os.Exit(1)
}

// Ident is a named entity together with where it was written.
type Ident struct {
	S   string
	Pos SrcPos
}

func (id Ident) String() string { return id.S }
