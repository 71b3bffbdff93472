package main

import (
	"os"

	"infobot/cmd/infobot/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
