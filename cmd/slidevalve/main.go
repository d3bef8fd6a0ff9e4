// Command slidevalve computes the valve events and cycle phases of a slide
// valve steam engine.
//
// Commands:
//
//	points     Critical crank angles for both piston faces
//	query      Piston and valve state at one crank angle
//	sweep      Sample a crank range, optionally recording the run
//	runs       List, show or delete recorded sweep runs
//	plot       Render the cycle as a PNG chart or ASCII plot
//	validate   Check a parameter file
//	test       Run conformance scenarios
package main

import (
	"fmt"
	"os"

	"github.com/roach88/slidevalve/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
