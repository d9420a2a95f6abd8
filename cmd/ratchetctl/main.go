package main

import (
	"os"

	"duskwire/cmd/ratchetctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
