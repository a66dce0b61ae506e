package main

import (
	"fmt"
	"os"

	"github.com/bassista/go_graphview/internal/cli"
	"github.com/fatih/color"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}
