// Package main provides the entry point for hyperfifo.
// hyperfifo is a cycle-accurate model of the HyperRAM capture buffer of a
// USB analyzer, built on Akita.
//
// For the full CLI, use: go run ./cmd/hyperfifo
package main

import (
	"fmt"
	"os"

	"github.com/sarchlab/hyperfifo/benchmarks"
	"github.com/sarchlab/hyperfifo/gateware/hyperram"
)

func main() {
	fmt.Println("hyperfifo - HyperRAM Capture Buffer Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: hyperfifo [--config file] [--log-level level] <command>")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run      Push synthesized traffic through the capture buffer")
	fmt.Println("  export   Export a stored capture as pcap")
	fmt.Println("  serve    Serve a stored capture over HTTP")
	fmt.Println("  bench    Measure buffer throughput")
	fmt.Println("  config   Show or save the effective configuration")
	fmt.Println("")
	fmt.Printf("Default HyperRAM: %d words\n", hyperram.DefaultCapacityWords)
	fmt.Println("Benchmark scenarios:")
	for _, b := range benchmarks.GetScenarios() {
		fmt.Printf("  %-18s %s\n", b.Name, b.Description)
	}
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/hyperfifo' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/hyperfifo' instead.")
	}
}
