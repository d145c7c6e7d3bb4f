// Package sensor provides temperature sampling with hardware abstraction.
// The real implementation reads a BMP280 over I2C.
// The fake implementation allows testing without hardware.
package sensor

import (
	"context"
	"errors"
	"time"

	"github.com/sweeney/smart-clock/internal/logic"
)

// ErrTransientRead wraps every failed read. The controller reuses the last
// good sample and retries on the next sampling tick.
var ErrTransientRead = errors.New("sensor: transient read failure")

// DefaultTimeout bounds a single read.
const DefaultTimeout = 500 * time.Millisecond

// DefaultAddress is the BMP280 I2C address with SDO tied low.
const DefaultAddress = 0x76

// Reader samples the ambient temperature.
type Reader interface {
	// Sample takes one reading. Failures wrap ErrTransientRead.
	Sample(ctx context.Context) (logic.SensorSample, error)

	// Close releases sensor resources.
	Close() error
}
