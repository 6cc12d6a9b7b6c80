package main

import (
	"os"

	"github.com/kaelemc/clabedit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
