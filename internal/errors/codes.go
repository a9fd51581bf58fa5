// Package errors provides the error code taxonomy shared by the Lyn
// compiler phases and the generated runtime diagnostics.
package errors

import "fmt"

// Code identifies an error condition as a module plus a number within it.
// It renders as e.g. RUNTIME-0, which is the form embedded in generated
// panic messages and printed by compile-time diagnostics.
type Code struct {
	Module string
	Number int
}

func (c Code) String() string {
	return fmt.Sprintf("%s-%d", c.Module, c.Number)
}

// Runtime errors: conditions compiled into the program, reported by the
// runtime's _panic when reached.
var (
	// RuntimeNonExhaustPatts is raised when a match falls through every case.
	RuntimeNonExhaustPatts = Code{Module: "RUNTIME", Number: 0}
)

// Codegen user errors: source programs the type checker accepts but the
// back end cannot lower.
var (
	// CodegenNumParse indicates a numeric literal that does not parse as
	// its resolved type.
	CodegenNumParse = Code{Module: "CODEGEN", Number: 0}

	// CodegenInvalidCast indicates a cast with no legal conversion between
	// the source and target types.
	CodegenInvalidCast = Code{Module: "CODEGEN", Number: 1}

	// CodegenBadMain indicates a missing or wrongly typed main binding.
	CodegenBadMain = Code{Module: "CODEGEN", Number: 2}
)

// Undefined is the placeholder code for diagnostics that predate the taxonomy.
var Undefined = Code{Module: "ERR", Number: 0}
