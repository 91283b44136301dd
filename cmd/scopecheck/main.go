// # cmd/scopecheck/main.go
package main

import (
	"os"

	"scopecheck/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
