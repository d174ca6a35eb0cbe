// Command toml is the TOML toolchain driver: it parses and validates
// documents and serves the language protocol over stdio, TCP or a
// named pipe.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

var cli struct {
	Parse    string `help:"Parse the TOML document at the given path." type:"existingfile" placeholder:"<path>"`
	Validate string `help:"Validate the parsed document against the CSL schema file." type:"existingfile" placeholder:"<path>"`
	Schema   string `help:"Name of the config schema to validate against." placeholder:"<name>"`
	Output   string `help:"Write the JSON rendition to this file instead of stdout." placeholder:"<path>"`
	Tagged   bool   `help:"Tag every scalar in the JSON output with its TOML type."`

	Langsvr bool   `help:"Run the language server."`
	Stdio   bool   `help:"Serve the language protocol over stdin/stdout."`
	Port    int    `help:"Connect to the editor over TCP on this port." placeholder:"<port>"`
	Socket  int    `help:"Alias for --port." placeholder:"<port>"`
	Pipe    string `help:"Connect to the editor over this named pipe." placeholder:"<name>"`
}

func main() {
	parser, err := kong.New(&cli,
		kong.Name("toml"),
		kong.Description("A TOML implementation with config schema language support."),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if _, err := parser.Parse(os.Args[1:]); err != nil {
		printInfo(os.Stderr)
		fmt.Fprintf(os.Stderr, "invalid arguments: %v\n", err)
		os.Exit(2)
	}

	switch {
	case cli.Langsvr:
		os.Exit(runLangSvr())
	case cli.Parse != "":
		os.Exit(runParse())
	default:
		printInfo(os.Stderr)
		fmt.Fprintln(os.Stderr, "invalid arguments: expected --parse or --langsvr")
		os.Exit(2)
	}
}

func printInfo(w *os.File) {
	fmt.Fprintln(w, "TOML: A TOML Implementation [alpha]")
	fmt.Fprintln(w, "Copyright (C) 2023-2025 nullptr-0.")
}
