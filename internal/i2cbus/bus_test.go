package i2cbus

import (
	"sync"
	"testing"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// overlapBus fails the test if two transactions overlap.
type overlapBus struct {
	t      *testing.T
	mu     sync.Mutex
	active bool
	count  int
	closed bool
}

func (b *overlapBus) enter() {
	b.mu.Lock()
	if b.active {
		b.t.Error("overlapping transactions")
	}
	b.active = true
	b.count++
	b.mu.Unlock()
}

func (b *overlapBus) leave() {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()
}

func (b *overlapBus) Tx(addr uint16, w, r []byte) error {
	b.enter()
	defer b.leave()
	return nil
}

func (b *overlapBus) SetSpeed(f physic.Frequency) error { return nil }
func (b *overlapBus) String() string                    { return "overlap" }
func (b *overlapBus) Close() error                      { b.closed = true; return nil }

func TestSharedSerializesTransactions(t *testing.T) {
	inner := &overlapBus{t: t}
	s := New(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Tx(0x50, []byte{0, 0}, nil)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			s.Exclusive(func(bus i2c.Bus) error {
				inner.enter()
				inner.leave()
				return bus.Tx(0x76, nil, make([]byte, 1))
			})
		}
	}()
	wg.Wait()

	if inner.count != 800+100 {
		t.Errorf("transaction count: got %d, want 900", inner.count)
	}
}

func TestSharedImplementsBus(t *testing.T) {
	var _ i2c.Bus = New(&overlapBus{t: t})
}

func TestSharedClose(t *testing.T) {
	inner := &overlapBus{t: t}
	s := New(inner)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !inner.closed {
		t.Error("inner bus should be closed")
	}
	if s.String() != "overlap" {
		t.Errorf("String: got %q", s.String())
	}
}
