// Package render produces the generated artifacts (INDEX.md and
// SNAPSHOT.md) from a loaded registry. Both are pure projections:
// unchanged input reproduces byte-identical output, and both files
// are disposable caches that can be regenerated at any time.
package render

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// atomicWriteFile writes data to path via a write-to-temp-then-rename
// so a concurrent reader never observes a partially written artifact.
func atomicWriteFile(path string, data []byte) error {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return fmt.Errorf("generating random suffix: %w", err)
	}
	tmp := path + ".tmp." + hex.EncodeToString(randBytes)

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
