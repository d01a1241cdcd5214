// Command recordsctl is the operator CLI for the unarchiving record tracker.
// It talks to the same database as the API, through the same service and
// authorization rules, acting as the user given by --actor-id/--roles.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
