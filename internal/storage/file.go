package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/atinyakov/parol/internal/crypto"
)

// File layout:
//
//	[revision: 2 bytes, little endian][nonce: 24 bytes][secretbox: rest]
const (
	// CurrentRevision must be incremented for any change that breaks the
	// binary layout.
	CurrentRevision uint16 = 1

	revSize    = 2
	headerSize = revSize + crypto.NonceSize
)

var errTruncated = errors.New("database file truncated")

func encodeFile(nonce *[crypto.NonceSize]byte, box []byte) []byte {
	data := make([]byte, headerSize+len(box))
	binary.LittleEndian.PutUint16(data[:revSize], CurrentRevision)
	copy(data[revSize:headerSize], nonce[:])
	copy(data[headerSize:], box)
	return data
}

func decodeFile(data []byte) (*[crypto.NonceSize]byte, []byte, error) {
	if len(data) < headerSize+crypto.Overhead {
		return nil, nil, errTruncated
	}
	if rev := binary.LittleEndian.Uint16(data[:revSize]); rev != CurrentRevision {
		return nil, nil, fmt.Errorf("unsupported revision %d", rev)
	}
	var nonce [crypto.NonceSize]byte
	copy(nonce[:], data[revSize:headerSize])
	return &nonce, data[headerSize:], nil
}

// writeFileAtomic writes data to a temp file next to path and renames it
// over path, so a failed write never clobbers the previous contents.
func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			if rmErr := os.Remove(name); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = multierr.Append(err, fmt.Errorf("remove temp file: %w", rmErr))
			}
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return multierr.Append(fmt.Errorf("write temp file: %w", err), tmp.Close())
	}
	if err = tmp.Sync(); err != nil {
		return multierr.Append(fmt.Errorf("sync temp file: %w", err), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(name, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(name, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
