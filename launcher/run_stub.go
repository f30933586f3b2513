//go:build !windows
// +build !windows

package main

import (
	"fmt"
	"os"
)

func run(args []string) int {
	fmt.Fprintln(os.Stderr, "the launcher only works on Windows")
	return 1
}
