// spec is the CLI for spectree, a spec registry and write gate.
package main

import (
	"fmt"
	"os"

	"spectree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
