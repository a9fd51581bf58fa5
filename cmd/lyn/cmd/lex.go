package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lyn-lang/lyn/internal/lexer"
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Lex a Lyn file and print its token trees",
	Args:  cobra.ExactArgs(1),
	RunE:  runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)
}

func runLex(_ *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		exitWithError("%v", err)
	}
	trees, err := lexer.New(src, args[0]).Lex()
	if err != nil {
		exitWithError("%v", err)
	}
	for _, tree := range trees {
		fmt.Println(tree)
	}
	return nil
}
