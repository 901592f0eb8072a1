package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunCopiesExistingAndSkipsMissing(t *testing.T) {
	dataDir := t.TempDir()
	destDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dataDir, "accounts.dat"), []byte("aaa"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "loans.dat"), []byte("lll"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	dest, err := Run(dataDir, destDir, []string{"accounts.dat", "loans.dat", "transactions.dat"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dest, "accounts.dat"))
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(got) != "aaa" {
		t.Errorf("accounts copy = %q", got)
	}
	if _, err := os.Stat(filepath.Join(dest, "loans.dat")); err != nil {
		t.Errorf("loans copy missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, "transactions.dat")); !os.IsNotExist(err) {
		t.Errorf("missing source should not produce a copy: %v", err)
	}
}
