// Package testutil provides shared test helpers for setting up vaults.
package testutil

import (
	"testing"

	"github.com/dendrite/dendrite/internal/vfs"
)

// TestVault creates a temporary vault directory with a vfs.Physical
// rooted at it.
func TestVault(t *testing.T) (string, *vfs.Physical) {
	t.Helper()
	vaultDir := t.TempDir()
	fs, err := vfs.NewPhysical(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, fs
}
