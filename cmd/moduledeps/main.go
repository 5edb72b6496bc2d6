package main

import (
	"os"

	"moduledeps/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
