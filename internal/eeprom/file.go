package eeprom

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// File is a fixed-size EEPROM image on disk, for hosts without the chip.
type File struct {
	f    *os.File
	size int64
}

// OpenFile opens the image at path, creating it erased (0xFF) with the
// given size if it does not exist.
func OpenFile(path string, size int64) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if errors.Is(err, fs.ErrNotExist) {
		f, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return nil, fmt.Errorf("create image %q: %w", path, err)
		}
		if _, err := f.Write(bytes.Repeat([]byte{0xFF}, int(size))); err != nil {
			f.Close()
			return nil, fmt.Errorf("erase image %q: %w", path, err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("sync image %q: %w", path, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open image %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat image %q: %w", path, err)
	}
	if info.Size() != size {
		f.Close()
		return nil, fmt.Errorf("image %q is %d bytes, want %d", path, info.Size(), size)
	}
	return &File{f: f, size: size}, nil
}

// ReadAt reads from the image.
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if err := checkRange(m.size, len(p), off); err != nil {
		return 0, err
	}
	return m.f.ReadAt(p, off)
}

// WriteAt writes to the image and syncs it to disk.
func (m *File) WriteAt(p []byte, off int64) (int, error) {
	if err := checkRange(m.size, len(p), off); err != nil {
		return 0, err
	}
	n, err := m.f.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	if err := m.f.Sync(); err != nil {
		return n, fmt.Errorf("sync: %w", err)
	}
	return n, nil
}

// Close closes the image file.
func (m *File) Close() error {
	return m.f.Close()
}
