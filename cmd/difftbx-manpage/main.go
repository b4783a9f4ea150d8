package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/difftbx/cmd/difftbx"
	"github.com/arthur-debert/difftbx/internal/version"

	// Register the built-in image formats so their commands document them.
	_ "github.com/arthur-debert/difftbx/pkg/format/cbf"
	_ "github.com/arthur-debert/difftbx/pkg/format/dip"
	_ "github.com/arthur-debert/difftbx/pkg/format/smv"
)

func main() {
	rootCmd := difftbx.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "DIFFTBX",
		Section: "1",
		Source:  "difftbx " + version.Version,
		Manual:  "difftbx manual",
	}

	err := doc.GenMan(rootCmd, header, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
