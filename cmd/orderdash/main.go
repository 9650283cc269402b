package main

import (
	"os"

	"github.com/orderdash/orderdash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
