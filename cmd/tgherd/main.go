package main

import (
	"os"

	"github.com/okhotin/tgherd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
