// Package main provides the text-extract CLI entrypoint.
package main

import (
	"fmt"
	"os"

	"github.com/ahmadbhutta823/text-extract-from-images/cmd/text-extract/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
