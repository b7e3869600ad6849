// Command termsprite draws scripted sprite scenes in the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/dshills/termsprite/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
