// Package main is the entry point for the ipgate header pipeline tool.
package main

import (
	"fmt"
	"os"

	"quillfire.xyz/ipgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
