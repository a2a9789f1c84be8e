// Package main is the passwd entry point.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ubuntu/gopasswd/cmd/passwd/app"
)

func main() {
	a := app.New()
	os.Exit(run(a, os.Stderr))
}

type runner interface {
	Run() error
	UsageError() bool
	ExitCode(err error) int
}

func run(a runner, stderr io.Writer) int {
	err := a.Run()
	if err == nil {
		return 0
	}

	fmt.Fprintf(stderr, "passwd: %v\n", err)
	if a.UsageError() {
		fmt.Fprintln(stderr, "Try 'passwd --help' for more information.")
	}
	return a.ExitCode(err)
}
