package main

import (
	"os"

	"github.com/okian/auge/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
