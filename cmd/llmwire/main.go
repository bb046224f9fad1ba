// Command llmwire is a thin operational CLI over the provider registry:
// inspect backend health, list models and run one-off generation calls
// against any registered backend, streaming or not.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// Credentials commonly live in a local .env during development; a
	// missing file is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
