// Package main is the leaphed command.
package main

import (
	"os"

	"github.com/leapstack-labs/leaphed/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
