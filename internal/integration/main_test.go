// Package integration provides integration tests for benchctl CLI commands.
package integration

import (
	"testing"

	"github.com/bch9248/benchctl/testhelpers"
)

// getBenchctlBinary returns the path to the pre-built benchctl binary.
func getBenchctlBinary(t *testing.T) string {
	t.Helper()
	binaryPath := testhelpers.GetSharedBinaryPath()
	if binaryPath == "" {
		if err := testhelpers.GetBinaryError(); err != nil {
			t.Fatalf("failed to build benchctl binary: %v", err)
		}
		t.Fatal("benchctl binary not built")
	}
	return binaryPath
}
