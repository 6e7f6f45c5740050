package main

import (
	"os"

	"github.com/dikta/dikta/cmd/dikta/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
