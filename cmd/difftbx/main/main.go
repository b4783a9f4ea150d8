package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/difftbx/cmd/difftbx"
	"github.com/arthur-debert/difftbx/pkg/style"

	// Register the built-in image formats
	_ "github.com/arthur-debert/difftbx/pkg/format/cbf"
	_ "github.com/arthur-debert/difftbx/pkg/format/dip"
	_ "github.com/arthur-debert/difftbx/pkg/format/smv"
)

func main() {
	rootCmd := difftbx.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		// Print the error in red
		fmt.Fprintln(os.Stderr, style.ErrorStyle.Render(fmt.Sprintf("Error: %v", err)))

		// Show the full help for the command that failed
		fmt.Fprintln(os.Stderr)
		_ = rootCmd.Help()

		os.Exit(1)
	}
}
