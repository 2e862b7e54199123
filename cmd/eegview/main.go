// Command eegview loads an EEG recording and opens it in a terminal trace
// browser.
package main

import (
	"os"

	"github.com/simonhull/eegview/internal/cli"
)

func main() {
	os.Exit(cli.Execute(&cli.App{}, os.Args[1:], os.Stdout, os.Stderr))
}
