// Package main provides the entry point for redistrap-cli.
//
// redistrap-cli is the operator tool for inspecting a running redistrap
// decoy through its admin HTTP plane.
package main

import (
	"fmt"
	"os"

	"github.com/784356225/redistrap/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
