package main

import (
	"os"

	"github.com/nlasala/campus-meet-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
