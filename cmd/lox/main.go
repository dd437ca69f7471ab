// Command lox is the lox interpreter entry point.
package main

import (
	"os"

	"github.com/loxwalk/lox/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:]))
}
