// Package main provides the entry point for hyperfifo, a cycle-accurate model
// of the HyperRAM capture buffer of a USB analyzer.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/hyperfifo/cmd/hyperfifo/commands"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := commands.NewRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
