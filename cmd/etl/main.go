package main

import (
	"os"

	"github.com/ougirez/premiums/cmd/etl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
