// Command theseus is the CLI entry point, grounded on
// therealtimex-entire-cli's cmd/entire/main.go delegation-to-package
// shape rather than the teacher's flag-based cmd/opencode/main.go.
package main

import (
	"fmt"
	"os"

	"github.com/theseusxyz/theseus/cmd/theseus/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
