package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/google/gops/agent"

	"github.com/confkit/toml-csl/langsvr"
)

// runLangSvr opens the requested byte channel and serves the language
// protocol over it. The process is a client of the editor for TCP and
// pipe transports.
func runLangSvr() int {
	if err := agent.Listen(agent.Options{}); err != nil {
		fmt.Fprintf(os.Stderr, "gops agent failed: %v\n", err)
	}
	port := cli.Port
	if port == 0 {
		port = cli.Socket
	}
	switch {
	case cli.Stdio:
		return langsvr.New(os.Stdin, os.Stdout).Run()
	case port != 0:
		conn, err := net.Dial("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "unable to open socket on port %d: %v\n", port, err)
			return 1
		}
		defer conn.Close()
		return langsvr.New(conn, conn).Run()
	case cli.Pipe != "":
		conn, err := net.Dial("unix", cli.Pipe)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unable to open pipe %s: %v\n", cli.Pipe, err)
			return 1
		}
		defer conn.Close()
		return langsvr.New(conn, conn).Run()
	default:
		printInfo(os.Stderr)
		fmt.Fprintln(os.Stderr, "invalid arguments: --langsvr requires --stdio, --port, --socket or --pipe")
		return 2
	}
}
