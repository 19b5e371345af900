package main

import (
	"os"

	"github.com/abhisek/habla/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
