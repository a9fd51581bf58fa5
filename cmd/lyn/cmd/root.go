package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var red = color.New(color.FgRed).SprintFunc()

var rootCmd = &cobra.Command{
	Use:   "lyn",
	Short: "Compiler for the Lyn programming language",
	Long: `lyn compiles the Lyn programming language: a small, typed,
Lisp-syntax functional language with algebraic data types, parametric
polymorphism, first-class closures, pattern matching and C-ABI externs,
lowered to LLVM IR.

The front half of the pipeline (token trees and macro expansion) is
available as the lex and expand commands; the back end is driven through
the compiler library.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, red("Error")+": "+msg+"\n", args...)
	os.Exit(1)
}
