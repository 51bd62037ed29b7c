package main

import (
	"os"

	"github.com/codyseavey/grading-arbitrage/cmd/arbctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
