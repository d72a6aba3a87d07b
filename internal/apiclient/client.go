// Package apiclient holds the HTTP+JSON clients for the storefront's
// remote collaborators: catalog, discount, cart and order services.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every request issued through this package.
const DefaultTimeout = 10 * time.Second

// Error is the single error shape that leaves this package. Status is the
// HTTP status code when the server answered, and 0 when no response was
// received (connection failure or timeout). Message is safe to show to a
// user as-is.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Transient reports whether the failure happened without a server response,
// which is the class of errors worth retrying.
func (e *Error) Transient() bool { return e.Status == 0 }

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func doJSON(ctx context.Context, hc *http.Client, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Message: "Failed to make request. Please try again.", cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &Error{Message: "Failed to make request. Please try again.", cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return &Error{Message: "No response from server. Check your connection and try again.", cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &Error{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Server error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	if out == nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Status: resp.StatusCode, Message: "Invalid response from server.", cause: err}
	}
	return nil
}
