package main

import (
	"fmt"
	"os"

	"pantrypal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "pantrypal:", err)
		os.Exit(1)
	}
}
