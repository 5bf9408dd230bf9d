package main

import (
	"os"

	"github.com/contextdeck/contextdeck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
