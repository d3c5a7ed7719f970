package main

import (
	"fmt"
	"os"

	"github.com/zjy-dev/lcov-parse/cmd/lcovparse/app"
)

func main() {
	if err := app.NewLcovParseCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
