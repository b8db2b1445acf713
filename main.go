package main

import (
	"os"

	"github.com/flyfishxu/aurora/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
