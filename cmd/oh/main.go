// Command oh evaluates OpenStreetMap opening_hours values.
package main

import (
	"fmt"
	"os"

	"github.com/ngrash/go-openinghours/internal/cli"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "oh:", err)
		os.Exit(1)
	}
}

func run() error {
	return cli.Execute(os.Args[1:], os.Stdout, os.Stderr)
}
