// Basin - colour watershed image segmentation
//
// Basin splits images into coherent regions with a watershed over the
// colour contrast gradient followed by region adjacency graph merging.
package main

import (
	"os"

	"github.com/jmylchreest/basin/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
