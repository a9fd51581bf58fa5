package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/lyn-lang/lyn/internal/lexer"
	"github.com/lyn-lang/lyn/internal/macrox"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactively lex and macro-expand Lyn forms",
	Args:  cobra.NoArgs,
	RunE:  runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(_ *cobra.Command, _ []string) error {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Printf("Lyn %s. Enter forms to see their macro expansion, :quit to leave.\n", Version)
	for {
		input, err := line.Prompt("lyn> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		if strings.TrimSpace(input) == ":quit" {
			return nil
		}
		line.AppendHistory(input)

		trees, err := lexer.New([]byte(input), "<repl>").Lex()
		if err != nil {
			fmt.Printf("%s: %v\n", red("Error"), err)
			continue
		}
		expanded, err := macrox.Expand(trees)
		if err != nil {
			fmt.Printf("%s: %v\n", red("Error"), err)
			continue
		}
		for _, tree := range expanded {
			fmt.Println(tree)
		}
	}
}
