// The main package for the shootdash executable.
package main

import (
	"github.com/jeffmasher/Shooting-Dashboard-sub000/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
