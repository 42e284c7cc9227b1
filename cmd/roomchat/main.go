package main

import (
	"fmt"
	"os"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires configuration, storage, the in-process feed, and the session
// together, then hands control to the command tree. Returning the error
// instead of exiting directly keeps the defers (database close) running
// and the wiring testable.
func run() error {
	config, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	a := newApp(config)
	defer a.teardown()

	return newRootCmd(a).Execute()
}
