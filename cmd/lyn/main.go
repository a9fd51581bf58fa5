// Package main is the lyn command line entry point.
package main

import (
	"os"

	"github.com/lyn-lang/lyn/cmd/lyn/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
