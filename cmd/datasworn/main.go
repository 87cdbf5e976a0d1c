package main

import (
	"os"

	"github.com/joeyeti/datasworn/cmd/datasworn/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
