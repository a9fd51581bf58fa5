package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lyn-lang/lyn/internal/target"
)

var targetConfigPath string

var targetCmd = &cobra.Command{
	Use:   "target",
	Short: "Show the build target configuration",
	Long: `Resolve and print the target the back end would emit for: the
LLVM triple and the pointer width, read from the file given with --config,
or the built-in 64-bit target when no file is given.`,
	Args: cobra.NoArgs,
	RunE: runTarget,
}

func init() {
	rootCmd.AddCommand(targetCmd)
	targetCmd.Flags().StringVarP(&targetConfigPath, "config", "c", "", "target config file (defaults to the built-in 64-bit target)")
}

func runTarget(_ *cobra.Command, _ []string) error {
	cfg := target.Default()
	if targetConfigPath != "" {
		loaded, err := target.Load(targetConfigPath)
		if err != nil {
			exitWithError("%v", err)
		}
		cfg = loaded
	}
	fmt.Printf("triple:       %s\n", cfg.Triple)
	fmt.Printf("pointer bits: %d\n", cfg.PointerBits)
	return nil
}
