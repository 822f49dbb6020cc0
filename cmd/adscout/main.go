// The main package for the adscout executable.
package main

import "github.com/mkarwowski/adscout/internal/cli"

// main defers all execution to the Cobra CLI.
func main() {
	cli.Execute()
}
