package display

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/sweeney/smart-clock/internal/logic"
)

// MAX7219 registers and Code-B glyphs.
const (
	regDecodeMode = 0x09
	regIntensity  = 0x0A
	regScanLimit  = 0x0B
	regShutdown   = 0x0C
	regTest       = 0x0F

	glyphDash  = 0x0A
	glyphE     = 0x0B
	glyphH     = 0x0C
	glyphL     = 0x0D
	glyphBlank = 0x0F
	dp         = 0x80

	spiClock = 1 * physic.MegaHertz
)

// Digits is the content of an 8-digit module, leftmost first.
type Digits [8]byte

// Encode maps a frame to Code-B digits: HH.MM on the left, the temperature
// on the right. While editing the left half shows L (min) or H (max) and the
// right half the candidate. A failed save replaces the time with E---.
func Encode(f Frame) Digits {
	var d Digits
	for i := range d {
		d[i] = glyphBlank
	}

	switch f.Mode {
	case logic.ModeEditingMin:
		d[0] = glyphL
		copy(d[4:], tempDigits(f.Candidate, true))
		return d
	case logic.ModeEditingMax:
		d[0] = glyphH
		copy(d[4:], tempDigits(f.Candidate, true))
		return d
	}

	switch {
	case f.Notice == NoticeSaveFailed:
		d[0], d[1], d[2], d[3] = glyphE, glyphDash, glyphDash, glyphDash
	case f.Synced:
		d[0] = byte(f.Hour / 10)
		d[1] = byte(f.Hour%10) | dp
		d[2] = byte(f.Minute / 10)
		d[3] = byte(f.Minute % 10)
	default:
		d[0], d[1], d[2], d[3] = glyphDash, glyphDash, glyphDash, glyphDash
	}
	copy(d[4:], tempDigits(f.Temp, f.HaveTemp))
	return d
}

// tempDigits renders t with one decimal in four digits: [sign|tens] tens
// ones. tenths. Values that do not fit show dashes.
func tempDigits(t logic.Temperature, ok bool) []byte {
	dashes := []byte{glyphBlank, glyphDash, glyphDash, glyphDash}
	if !ok {
		return dashes
	}
	tenths := int(math.Round(float64(t) * 10))
	neg := tenths < 0
	if neg {
		tenths = -tenths
	}
	if (neg && tenths > 999) || tenths > 9999 {
		return dashes
	}

	out := []byte{
		byte(tenths / 1000 % 10),
		byte(tenths / 100 % 10),
		byte(tenths/10%10) | dp,
		byte(tenths % 10),
	}
	// Suppress leading zeros, keeping the ones digit.
	for i := 0; i < 2 && out[i] == 0; i++ {
		out[i] = glyphBlank
	}
	if neg {
		i := 0
		for i < 2 && out[i+1] == glyphBlank {
			i++
		}
		out[i] = glyphDash
	}
	return out
}

// MAX7219 drives an 8-digit 7-segment module over SPI.
type MAX7219 struct {
	xfer  func([]byte) error
	close func()
	last  Digits
	shown bool
}

// NewMAX7219 opens the SPI port (e.g. /dev/spidev0.0) and initializes the
// module with brightness 0-15.
func NewMAX7219(path string, brightness int) (*MAX7219, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}
	port, err := spireg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open spi port %s: %w", path, err)
	}
	conn, err := port.Connect(spiClock, spi.Mode0, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi port %s: %w", path, err)
	}
	m := newMAX7219(func(b []byte) error {
		return conn.Tx(b, nil)
	}, func() { port.Close() })

	if err := m.init(brightness); err != nil {
		port.Close()
		return nil, err
	}
	return m, nil
}

func newMAX7219(xfer func([]byte) error, closeFn func()) *MAX7219 {
	return &MAX7219{xfer: xfer, close: closeFn}
}

func (m *MAX7219) init(brightness int) error {
	if brightness < 0 {
		brightness = 0
	}
	if brightness > 15 {
		brightness = 15
	}
	for _, cmd := range [][2]byte{
		{regScanLimit, 0x07},
		{regDecodeMode, 0xFF},
		{regTest, 0x00},
		{regShutdown, 0x01},
		{regIntensity, byte(brightness)},
	} {
		if err := m.xfer(cmd[:]); err != nil {
			return fmt.Errorf("max7219 init: %w", err)
		}
	}
	return nil
}

// Show writes the digits that changed since the last frame.
func (m *MAX7219) Show(f Frame) error {
	d := Encode(f)
	for i, v := range d {
		if m.shown && m.last[i] == v {
			continue
		}
		// Digit registers run 8 (leftmost) down to 1.
		if err := m.xfer([]byte{byte(8 - i), v}); err != nil {
			m.shown = false
			return fmt.Errorf("max7219 digit %d: %w", i, err)
		}
	}
	m.last = d
	m.shown = true
	return nil
}

// Close blanks the module, leaving the rightmost decimal point lit so a
// stopped daemon is distinguishable from a dead board.
func (m *MAX7219) Close() error {
	var firstErr error
	for reg := byte(8); reg >= 1; reg-- {
		v := byte(glyphBlank)
		if reg == 1 {
			v |= dp
		}
		if err := m.xfer([]byte{reg, v}); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if m.close != nil {
		m.close()
	}
	return firstErr
}
