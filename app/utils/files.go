package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFileSync writes data to a file named by filename and syncs to disk.
func WriteFileSync(name string, data []byte, perm os.FileMode) error {
	var err error
	var f *os.File

	f, err = os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	defer func() {
		if err1 := f.Close(); err1 != nil && err == nil {
			err = err1
		}
	}()

	if _, err = f.Write(data); err != nil {
		return err
	}

	if err = f.Sync(); err != nil {
		return err
	}

	return err
}

// WriteFileAtomic writes data to a temporary file in the same directory as
// name, syncs it, then renames it over name. A crash between the write and
// the rename leaves the original file untouched; a crash after the rename
// is indistinguishable from a successful write.
func WriteFileAtomic(name string, data []byte, perm os.FileMode) error {
	tmp := name + ".tmp"

	if err := WriteFileSync(tmp, data, perm); err != nil {
		return fmt.Errorf("error writing temporary file %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("error renaming %s to %s: %w", tmp, name, err)
	}

	return nil
}

// CopyFile copies src to dst, creating dst's parent directory if needed.
// The copy is performed via a temporary file and rename so a reader never
// observes a partially-written dst.
func CopyFile(src, dst string, perm os.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("error reading %s: %w", src, err)
	}

	if err = os.MkdirAll(filepath.Dir(dst), 0700); err != nil {
		return fmt.Errorf("error creating directory for %s: %w", dst, err)
	}

	if err = WriteFileAtomic(dst, data, perm); err != nil {
		return fmt.Errorf("error copying %s to %s: %w", src, dst, err)
	}

	return nil
}

// AppendFile appends data to a file, creating it if necessary.
func AppendFile(name string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_APPEND, perm)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

// CopyReader copies src into dst verbatim, without loading it fully into
// memory.
func CopyReader(dst io.Writer, src io.Reader) error {
	_, err := io.Copy(dst, src)
	return err
}
