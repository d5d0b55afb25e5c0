// ./main.go
package main

import (
	"github.com/deskhand/deskhand/cmd"
)

// main is the entry point for the deskhand binary. Command-line parsing,
// configuration, and execution all live in the cmd package.
func main() {
	cmd.Execute()
}
