// Command taskctl is a terminal client for the task server.
package main

import (
	"os"
)

func main() {
	if err := newCLI(nil).execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
