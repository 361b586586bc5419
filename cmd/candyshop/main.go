package main

import (
	"os"

	"github.com/appsecsanta/research/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
