package flash

import (
	"fmt"
	"io"
	"os"
)

// Device is a small byte-addressable persistent region, emulating the
// EEPROM-over-flash area the configuration record lives in. Erased cells
// read back as 0xFF.
type Device interface {
	io.ReaderAt
	io.WriterAt
	Size() int
}

// FileDevice backs the region with a fixed-size file on disk.
// Writes are synced immediately so a crash cannot lose an acknowledged save.
type FileDevice struct {
	f    *os.File
	size int
}

// OpenFile opens (or creates) the backing file and pads it to size with
// erased (0xFF) bytes.
func OpenFile(path string, size int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open flash image %q: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat flash image %q: %w", path, err)
	}
	if st.Size() < int64(size) {
		pad := make([]byte, int64(size)-st.Size())
		for i := range pad {
			pad[i] = 0xFF
		}
		if _, err := f.WriteAt(pad, st.Size()); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("pad flash image %q: %w", path, err)
		}
	}
	return &FileDevice{f: f, size: size}, nil
}

func (d *FileDevice) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

func (d *FileDevice) WriteAt(p []byte, off int64) (int, error) {
	n, err := d.f.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	return n, d.f.Sync()
}

func (d *FileDevice) Size() int { return d.size }

func (d *FileDevice) Close() error { return d.f.Close() }

// MemDevice is an in-memory Device for tests.
type MemDevice struct {
	buf []byte
}

// NewMem returns an erased in-memory region of the given size.
func NewMem(size int) *MemDevice {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0xFF
	}
	return &MemDevice{buf: buf}
}

func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(d.buf)) {
		return 0, io.EOF
	}
	n := copy(p, d.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (d *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	if off+int64(len(p)) > int64(len(d.buf)) {
		return 0, io.ErrShortWrite
	}
	return copy(d.buf[off:], p), nil
}

func (d *MemDevice) Size() int { return len(d.buf) }

// Corrupt flips a byte, for tests exercising signature validation.
func (d *MemDevice) Corrupt(off int) { d.buf[off] ^= 0x5A }
