package main

import (
	"os"

	"github.com/goalcheck/goalcheck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
