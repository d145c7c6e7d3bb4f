package eeprom

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenFileCreatesErasedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")

	m, err := OpenFile(path, 128)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer m.Close()

	got := make([]byte, 128)
	if _, err := m.ReadAt(got, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, bytes.Repeat([]byte{0xFF}, 128)) {
		t.Error("new image should be erased to 0xFF")
	}
}

func TestFilePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")

	m, err := OpenFile(path, 64)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := m.WriteAt([]byte{1, 2, 3, 4}, 8); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	m.Close()

	m2, err := OpenFile(path, 64)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer m2.Close()

	got := make([]byte, 4)
	m2.ReadAt(got, 8)
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("got %v after reopen", got)
	}
}

func TestOpenFileRejectsWrongSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eeprom.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenFile(path, 64); err == nil {
		t.Error("expected error for wrong-sized image")
	}
}

func TestFileOutOfRange(t *testing.T) {
	m, err := OpenFile(filepath.Join(t.TempDir(), "eeprom.bin"), 16)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer m.Close()

	if _, err := m.WriteAt(make([]byte, 4), 14); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("got %v, want ErrOutOfRange", err)
	}
}
