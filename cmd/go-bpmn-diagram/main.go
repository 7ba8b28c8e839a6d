/*
go-bpmn-diagram is a CLI for converting BPMN XML into editable draw.io diagrams.

Usage:

	go-bpmn-diagram [flags]
	go-bpmn-diagram [command]

Available Commands:

	completion Generate the autocompletion script for the specified shell
	convert    Convert a BPMN file into an editable diagram
	help       Help about any command
	validate   Validate a BPMN file
	version    Show version

Flags:

	    --debug   Log details of the conversion
	-h, --help    help for go-bpmn-diagram

Use "go-bpmn-diagram [command] --help" for more information about a command.
*/
package main

import (
	"os"

	"github.com/gclaussn/go-bpmn-diagram/cli"
)

var (
	version = "unknown-version"
)

func main() {
	cli := cli.New(version)
	os.Exit(cli.Execute())
}
