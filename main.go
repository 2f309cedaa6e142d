package main

import (
	"os"

	"github.com/glbter/stock-ratings/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
