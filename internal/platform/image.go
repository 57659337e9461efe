package platform

import (
	"errors"
	"fmt"
	"os"
)

// ImageTarget receives a streamed firmware image. Begin reserves space,
// Commit atomically replaces the active image, Abort discards the staging
// area. A target accepts exactly one Begin/Commit cycle.
type ImageTarget interface {
	Begin(size int64) error
	Write(p []byte) (int, error)
	Commit() error
	Abort()
}

// ErrImageTooLarge reports a declared size beyond the reserved partition.
var ErrImageTooLarge = errors.New("firmware image exceeds available space")

// FileImage stages the download next to the active image and commits with
// an atomic rename, so a failed download never touches the running binary.
type FileImage struct {
	path     string
	capacity int64
	staged   *os.File
	written  int64
}

func NewFileImage(path string, capacity int64) *FileImage {
	return &FileImage{path: path, capacity: capacity}
}

// Begin reserves size bytes, or the full remaining capacity when the size
// is unknown (size < 0).
func (t *FileImage) Begin(size int64) error {
	if t.staged != nil {
		return errors.New("image download already in progress")
	}
	if size > t.capacity {
		return ErrImageTooLarge
	}
	f, err := os.OpenFile(t.stagingPath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create staging image: %w", err)
	}
	if size > 0 {
		if err := f.Truncate(size); err != nil {
			_ = f.Close()
			_ = os.Remove(t.stagingPath())
			return fmt.Errorf("reserve %d bytes: %w", size, err)
		}
		if _, err := f.Seek(0, 0); err != nil {
			_ = f.Close()
			_ = os.Remove(t.stagingPath())
			return err
		}
	}
	t.staged = f
	t.written = 0
	return nil
}

func (t *FileImage) Write(p []byte) (int, error) {
	if t.staged == nil {
		return 0, errors.New("image write before Begin")
	}
	if t.written+int64(len(p)) > t.capacity {
		return 0, ErrImageTooLarge
	}
	n, err := t.staged.Write(p)
	t.written += int64(n)
	return n, err
}

func (t *FileImage) Commit() error {
	if t.staged == nil {
		return errors.New("image commit before Begin")
	}
	if err := t.staged.Truncate(t.written); err != nil {
		t.Abort()
		return fmt.Errorf("trim staging image: %w", err)
	}
	if err := t.staged.Sync(); err != nil {
		t.Abort()
		return fmt.Errorf("sync staging image: %w", err)
	}
	if err := t.staged.Close(); err != nil {
		t.staged = nil
		return fmt.Errorf("close staging image: %w", err)
	}
	t.staged = nil
	if err := os.Rename(t.stagingPath(), t.path); err != nil {
		return fmt.Errorf("activate image: %w", err)
	}
	return nil
}

func (t *FileImage) Abort() {
	if t.staged == nil {
		return
	}
	_ = t.staged.Close()
	_ = os.Remove(t.stagingPath())
	t.staged = nil
}

func (t *FileImage) stagingPath() string { return t.path + ".new" }
