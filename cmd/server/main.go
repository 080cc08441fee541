package main

import (
	"os"

	"github.com/DoyleJ11/icq-rps-backend/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
