// Package files reads, writes and finds metadata files on a filesystem.
//
// The encoding of a metadata file is determined by its extension: .json, .yaml or
// .yml.  Writes are atomic and durable: readers of a file see either its old
// or its new contents, never a partial write.
package files

import (
	"io"
	"os"

	"github.com/google/renameio/v2"
	"github.com/pjxcog/mojap-metadata/metadata"
	"github.com/pkg/errors"
)

// ReadMetadata reads a metadata file
func ReadMetadata(path string) (m *metadata.Metadata, err error) {
	enc, err := metadata.EncodingFor(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open metadata at %s", path)
	}
	defer func() {
		if e := file.Close(); e != nil && err == nil {
			err = errors.Wrapf(e, "error closing file at %s", path)
		}
	}()

	m = &metadata.Metadata{}
	if err = metadata.Read(file, enc, m); err != nil {
		return nil, errors.Wrapf(err, "could not parse metadata at %s", path)
	}
	return m, nil
}

// WriteMetadata atomically writes metadata to a file, in the encoding implied
// by its extension
func WriteMetadata(path string, m *metadata.Metadata) error {
	enc, err := metadata.EncodingFor(path)
	if err != nil {
		return err
	}

	w, err := AtomicWrite(path)
	if err != nil {
		return err
	}
	defer w.Rollback()

	if err := m.Write(w, enc); err != nil {
		return errors.Wrapf(err, "could not write metadata to %s", path)
	}
	return w.Close()
}

// ManagedWrite encapsulates an io.WriteCloser such that the write can be
// rolled back upon error.
type ManagedWrite struct {
	io.Writer
	path    string
	pending *renameio.PendingFile
	closed  bool
}

// Close commits the write, replacing the destination file.
func (w *ManagedWrite) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return errors.Wrapf(w.pending.CloseAtomicallyReplace(), "could not replace %s", w.path)
}

// Rollback discards an incomplete/errored write, leaving the destination
// untouched.  Rollback after Close does nothing.
func (w *ManagedWrite) Rollback() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.pending.Cleanup()
}

// AtomicWrite creates a temporary file which is opened for write (only),
// in the same directory as the specified path.  Once written and closed,
// it is synced and atomically renamed to the given path.
func AtomicWrite(path string) (*ManagedWrite, error) {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return nil, errors.Wrapf(err, "could not create temporary file for %s", path)
	}

	return &ManagedWrite{
		Writer:  pending,
		path:    path,
		pending: pending,
	}, nil
}
