// Package main implements the design-evolution server: an HTTP API that
// turns spoken or typed feedback into a refined design profile and a round
// of nine rendered concepts.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
