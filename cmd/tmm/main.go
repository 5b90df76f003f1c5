// Command tmm computes reflectance and transmittance of thin-film stacks.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tmm/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
