package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lyn-lang/lyn/internal/lexer"
	"github.com/lyn-lang/lyn/internal/macrox"
)

var expandCmd = &cobra.Command{
	Use:   "expand [file]",
	Short: "Macro-expand a Lyn file and print the rewritten token trees",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpand,
}

func init() {
	rootCmd.AddCommand(expandCmd)
}

func runExpand(_ *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		exitWithError("%v", err)
	}
	trees, err := lexer.New(src, args[0]).Lex()
	if err != nil {
		exitWithError("%v", err)
	}
	expanded, err := macrox.Expand(trees)
	if err != nil {
		exitWithError("%v", err)
	}
	for _, tree := range expanded {
		fmt.Println(tree)
	}
	return nil
}
