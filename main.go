// Command gitmcp runs a Model Context Protocol server that exposes git
// repository operations as tools over standard input and output.
package main

import (
	"fmt"
	"os"

	"github.com/temirov/gitmcp/cmd/cli"
)

const exitErrorTemplateConstant = "%v\n"

func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
