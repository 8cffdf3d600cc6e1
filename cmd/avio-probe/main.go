// ABOUTME: Entry point for the avio-probe media inspector
// ABOUTME: Prints a stream-level report for each file argument
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/avio-player/avio-go/internal/probe"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <media-file> [media-file ...]\n", os.Args[0])
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	exitCode := 0
	for _, path := range flag.Args() {
		report, err := probe.Inspect(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			exitCode = 1
			continue
		}
		fmt.Print(report.String())
	}
	os.Exit(exitCode)
}
