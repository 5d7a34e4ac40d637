// Command betfair is a command line client for the Betfair exchange
// JSON-RPC API. It logs in, keeps the session alive, runs account and
// betting lookups, and records market books into TimescaleDB.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
