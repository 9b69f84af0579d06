package main

import (
	"fmt"
	"os"

	"github.com/tnaegele/bloxberg-verify/pkg/genreadme"
)

func main() {
	if err := genreadme.Rewrite("README.md"); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
