package main

import (
	"os"

	"github.com/sankofa-learn/sankofa/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
