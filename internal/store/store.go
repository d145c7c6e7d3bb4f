// Package store persists the comfort-range thresholds in EEPROM as a
// fixed-size, checksummed record:
//
//	offset  size  field
//	0       4     magic "THR1"
//	4       4     min, float32 little-endian
//	8       4     max, float32 little-endian
//	12      4     CRC-32 (IEEE) of bytes 0..11, little-endian
//
// A record that fails any check loads as the built-in default.
package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/sweeney/smart-clock/internal/eeprom"
	"github.com/sweeney/smart-clock/internal/logger"
	"github.com/sweeney/smart-clock/internal/logic"
)

// RecordSize is the size of the persisted record in bytes.
const RecordSize = 16

// DefaultOffset is the well-known storage offset of the record.
const DefaultOffset = 0x0000

var magic = [4]byte{'T', 'H', 'R', '1'}

var (
	// ErrWriteVerifyMismatch means the read-back after a write differed.
	ErrWriteVerifyMismatch = errors.New("store: write verify mismatch")
	// ErrDeviceUnavailable means the medium did not respond.
	ErrDeviceUnavailable = errors.New("store: device unavailable")
	// ErrInvalidConfig means the configuration is out of range or inverted.
	ErrInvalidConfig = errors.New("store: invalid threshold config")
)

// ThresholdStore reads and writes the threshold record.
type ThresholdStore struct {
	medium eeprom.Medium
	offset int64
	log    *logger.Logger
}

// New creates a store over medium with the record at offset.
func New(medium eeprom.Medium, offset int64, log *logger.Logger) *ThresholdStore {
	return &ThresholdStore{medium: medium, offset: offset, log: log}
}

// Encode serializes cfg into the record layout.
func Encode(cfg logic.ThresholdConfig) [RecordSize]byte {
	var rec [RecordSize]byte
	copy(rec[0:4], magic[:])
	binary.LittleEndian.PutUint32(rec[4:8], math.Float32bits(float32(cfg.Min)))
	binary.LittleEndian.PutUint32(rec[8:12], math.Float32bits(float32(cfg.Max)))
	binary.LittleEndian.PutUint32(rec[12:16], crc32.ChecksumIEEE(rec[0:12]))
	return rec
}

// Decode parses and validates a record.
func Decode(rec []byte) (logic.ThresholdConfig, error) {
	if len(rec) != RecordSize {
		return logic.ThresholdConfig{}, fmt.Errorf("record is %d bytes, want %d", len(rec), RecordSize)
	}
	if !bytes.Equal(rec[0:4], magic[:]) {
		return logic.ThresholdConfig{}, errors.New("missing magic marker")
	}
	want := binary.LittleEndian.Uint32(rec[12:16])
	if got := crc32.ChecksumIEEE(rec[0:12]); got != want {
		return logic.ThresholdConfig{}, fmt.Errorf("checksum mismatch: got %08x, want %08x", got, want)
	}
	cfg := logic.ThresholdConfig{
		Min: logic.Temperature(math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8]))),
		Max: logic.Temperature(math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12]))),
	}
	if !cfg.Valid() {
		return logic.ThresholdConfig{}, fmt.Errorf("thresholds out of range: min=%v max=%v", cfg.Min, cfg.Max)
	}
	return cfg, nil
}

// Load returns the persisted thresholds, or logic.DefaultThresholds if the
// record is absent, corrupt, or unreadable. It never fails.
func (s *ThresholdStore) Load() logic.ThresholdConfig {
	rec := make([]byte, RecordSize)
	if _, err := s.medium.ReadAt(rec, s.offset); err != nil {
		s.log.Warnw("threshold record unreadable, using defaults", "err", err)
		return logic.DefaultThresholds
	}
	cfg, err := Decode(rec)
	if err != nil {
		s.log.Warnw("threshold record invalid, using defaults", "err", err)
		return logic.DefaultThresholds
	}
	s.log.Infow("thresholds loaded", "min", cfg.Min, "max", cfg.Max)
	return cfg
}

// Save writes cfg and verifies it by reading it back.
func (s *ThresholdStore) Save(cfg logic.ThresholdConfig) error {
	if !cfg.Valid() {
		return fmt.Errorf("%w: min=%v max=%v", ErrInvalidConfig, cfg.Min, cfg.Max)
	}
	rec := Encode(cfg)
	if _, err := s.medium.WriteAt(rec[:], s.offset); err != nil {
		return fmt.Errorf("%w: write: %v", ErrDeviceUnavailable, err)
	}

	back := make([]byte, RecordSize)
	if _, err := s.medium.ReadAt(back, s.offset); err != nil {
		return fmt.Errorf("%w: read back: %v", ErrDeviceUnavailable, err)
	}
	if !bytes.Equal(back, rec[:]) {
		return ErrWriteVerifyMismatch
	}
	s.log.Infow("thresholds saved", "min", cfg.Min, "max", cfg.Max)
	return nil
}
