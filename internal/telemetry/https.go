package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/sweeney/smart-clock/internal/logic"
)

// HTTPSReporter POSTs each record as JSON to a collector URL.
type HTTPSReporter struct {
	url    string
	client *http.Client
}

// NewHTTPSReporter creates a reporter for url. A nil client uses
// http.DefaultClient.
func NewHTTPSReporter(url string, client *http.Client) *HTTPSReporter {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSReporter{url: url, client: client}
}

// Report sends one record.
func (r *HTTPSReporter) Report(ctx context.Context, rec logic.TelemetryRecord) error {
	payload, err := FormatPayload(rec)
	if err != nil {
		return fmt.Errorf("%w: format payload: %v", ErrReport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrReport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: post: %v", ErrReport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: collector returned %d", ErrReport, resp.StatusCode)
	}
	return nil
}

// Close releases idle connections.
func (r *HTTPSReporter) Close() error {
	r.client.CloseIdleConnections()
	return nil
}
