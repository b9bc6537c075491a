package main

import (
	"os"

	"github.com/rustyeddy/riskbook/cmd/riskbook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
