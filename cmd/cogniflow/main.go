// Command cogniflow runs the cognitive task orchestrator from the terminal
// or as an HTTP service.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
