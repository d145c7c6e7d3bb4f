// Package timesync fetches the current date and time once at boot from a
// plain-HTTP time service on the local network.
package timesync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/smart-clock/internal/logger"
	"github.com/sweeney/smart-clock/internal/logic"
)

// Sync errors.
var (
	ErrNetwork   = errors.New("timesync: network error")
	ErrTimeout   = errors.New("timesync: timeout")
	ErrMalformed = errors.New("timesync: malformed response")
)

// Defaults used when the corresponding Client field is zero.
const (
	DefaultAttempts = 3
	DefaultBackoff  = time.Second
	DefaultTimeout  = 3 * time.Second
	DefaultPath     = "/time"

	maxBodyBytes = 4096
)

// Client performs the boot-time synchronisation.
type Client struct {
	HTTP     *http.Client
	Attempts int
	Backoff  time.Duration // first retry delay; doubles per attempt
	Timeout  time.Duration // per attempt
	Location *time.Location
	Log      *logger.Logger

	// Sleep waits between attempts. Replaced in tests.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnAttempt, if set, is called with the outcome of every attempt
	// ("ok", "network", "timeout", "malformed").
	OnAttempt func(result string)
}

// NewClient returns a Client with default settings.
func NewClient(log *logger.Logger) *Client {
	return &Client{
		HTTP:     &http.Client{},
		Attempts: DefaultAttempts,
		Backoff:  DefaultBackoff,
		Timeout:  DefaultTimeout,
		Location: time.UTC,
		Log:      log,
		Sleep:    sleepCtx,
	}
}

// Endpoint builds the request URL for host:port and path.
func Endpoint(host string, port int, path string) string {
	if path == "" {
		path = DefaultPath
	}
	return fmt.Sprintf("http://%s%s", net.JoinHostPort(host, fmt.Sprint(port)), path)
}

// Sync fetches the time from endpoint. On failure the returned state has
// Synced=false and the error describes the last attempt.
func (c *Client) Sync(ctx context.Context, endpoint string) (logic.ClockState, error) {
	attempts := c.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleep(ctx, backoff); err != nil {
				return logic.ClockState{}, backoffError(err)
			}
			backoff *= 2
		}

		state, err := c.attempt(ctx, endpoint)
		c.observe(err)
		if err == nil {
			return state, nil
		}
		lastErr = err
		if c.Log != nil {
			c.Log.Warnw("time sync attempt failed", "attempt", i+1, "of", attempts, "error", err)
		}
		if errors.Is(err, ErrMalformed) {
			break
		}
	}
	return logic.ClockState{}, lastErr
}

func (c *Client) observe(err error) {
	if c.OnAttempt == nil {
		return
	}
	switch {
	case err == nil:
		c.OnAttempt("ok")
	case errors.Is(err, ErrMalformed):
		c.OnAttempt("malformed")
	case errors.Is(err, ErrTimeout):
		c.OnAttempt("timeout")
	default:
		c.OnAttempt("network")
	}
}

func (c *Client) attempt(ctx context.Context, endpoint string) (logic.ClockState, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return logic.ClockState{}, fmt.Errorf("%w: build request: %v", ErrNetwork, err)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return logic.ClockState{}, classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return logic.ClockState{}, fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return logic.ClockState{}, classify(ctx, err)
	}
	if len(body) > maxBodyBytes {
		return logic.ClockState{}, fmt.Errorf("%w: body exceeds %d bytes", ErrMalformed, maxBodyBytes)
	}

	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	t, err := Parse(body, loc)
	if err != nil {
		return logic.ClockState{}, err
	}
	return logic.ClockState{EpochSeconds: uint64(t.Unix()), Synced: true}, nil
}

func classify(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// backoffError maps an interrupted backoff: a deadline is a timeout, a
// cancellation is not.
func backoffError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

type wireDate struct {
	Day   *int `json:"day"`
	Month *int `json:"month"`
	Year  *int `json:"year"`
}

type wireTime struct {
	Hour   *int `json:"hour"`
	Minute *int `json:"minute"`
	Second *int `json:"second"`
}

type wireRecord struct {
	Date *wireDate `json:"date"`
	Time *wireTime `json:"time"`
}

// Parse decodes a time service response body and validates every field.
func Parse(body []byte, loc *time.Location) (time.Time, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var rec wireRecord
	if err := dec.Decode(&rec); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return time.Time{}, fmt.Errorf("%w: trailing data", ErrMalformed)
	}

	if rec.Date == nil || rec.Time == nil {
		return time.Time{}, fmt.Errorf("%w: missing date or time object", ErrMalformed)
	}
	fields := []struct {
		name string
		v    *int
	}{
		{"date.day", rec.Date.Day},
		{"date.month", rec.Date.Month},
		{"date.year", rec.Date.Year},
		{"time.hour", rec.Time.Hour},
		{"time.minute", rec.Time.Minute},
		{"time.second", rec.Time.Second},
	}
	for _, f := range fields {
		if f.v == nil {
			return time.Time{}, fmt.Errorf("%w: missing %s", ErrMalformed, f.name)
		}
	}

	year, month, day := *rec.Date.Year, *rec.Date.Month, *rec.Date.Day
	hour, minute, second := *rec.Time.Hour, *rec.Time.Minute, *rec.Time.Second
	if year < 1970 || year > 9999 {
		return time.Time{}, fmt.Errorf("%w: year %d out of range", ErrMalformed, year)
	}

	// time.Date normalises overflow; a round-trip mismatch means a field was
	// out of range (e.g. February 30th or minute 61).
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d %02d:%02d:%02d is not a valid time",
			ErrMalformed, year, month, day, hour, minute, second)
	}
	return t, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
