// Package backup copies the data files to a timestamped directory. Backups
// are taken from the admin menu while no operation is in flight, so plain
// file copies are consistent.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// Run copies every named file from dataDir into a new directory under
// destDir and returns the created path. Files that do not exist yet are
// skipped; an empty ledger is a valid thing to back up.
func Run(dataDir, destDir string, names []string) (string, error) {
	stamp := time.Now().UTC().Format("20060102-150405")
	dest := filepath.Join(destDir, "teller-backup-"+stamp)
	if err := os.MkdirAll(dest, 0o700); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			src := filepath.Join(dataDir, name)
			if _, err := os.Stat(src); os.IsNotExist(err) {
				return nil
			}
			return copyFile(src, filepath.Join(dest, name))
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
