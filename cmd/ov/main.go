package main

import (
	"os"

	"github.com/halcyra/oracle-validator-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
