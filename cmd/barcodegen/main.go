package main

import (
	"os"

	"github.com/MeKo-Tech/barcodegen/cmd/barcodegen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
