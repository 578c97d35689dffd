package main

import (
	"os"

	"seamscope/cmd/seamscope/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
