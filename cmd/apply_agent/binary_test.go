package main

import (
	"os"
	"path/filepath"
	"testing"
)

// agentBinary returns the apply_agent binary built at bin/apply_agent, or
// skips the test when it has not been built.
func agentBinary(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping binary tests in short mode")
	}

	path := filepath.Join("..", "..", "bin", "apply_agent")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("%s not found, build it with: go build -o bin/apply_agent ./cmd/apply_agent", path)
	}
	return path
}
