package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/explorenyc/eventcomb/app/events"
)

// retryBackoff is the pause before the single retry allowed for transient
// failures.
const retryBackoff = 500 * time.Millisecond

// NewHTTPClient builds the shared HTTP client used by all adapters.
func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// fetchBody performs one GET with at most one retry. Timeouts, 5xx and 429
// responses count as transient and get the retry; other 4xx responses and
// transport-level permanent failures do not.
func fetchBody(ctx context.Context, client *http.Client, url, userAgent string, headers map[string]string) ([]byte, *events.SourceError) {
	body, srcErr := fetchOnce(ctx, client, url, userAgent, headers)
	if srcErr == nil || !srcErr.Retryable() {
		return body, srcErr
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return nil, &events.SourceError{Kind: events.ErrorKindTransient, Err: ctx.Err()}
	}

	return fetchOnce(ctx, client, url, userAgent, headers)
}

func fetchOnce(ctx context.Context, client *http.Client, url, userAgent string, headers map[string]string) ([]byte, *events.SourceError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &events.SourceError{Kind: events.ErrorKindPermanent, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &events.SourceError{Kind: classifyTransportError(err), Err: err}
	}
	defer resp.Body.Close()

	if srcErr := classifyStatus(resp.StatusCode); srcErr != nil {
		io.Copy(io.Discard, resp.Body)
		return nil, srcErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &events.SourceError{Kind: events.ErrorKindTransient, Err: err}
	}
	return body, nil
}

func classifyTransportError(err error) events.ErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return events.ErrorKindTransient
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return events.ErrorKindTransient
	}
	return events.ErrorKindTransient // connection refused, DNS and friends are worth one retry
}

func classifyStatus(code int) *events.SourceError {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return &events.SourceError{Kind: events.ErrorKindTransient, Err: fmt.Errorf("HTTP error: %d", code)}
	default:
		return &events.SourceError{Kind: events.ErrorKindPermanent, Err: fmt.Errorf("HTTP error: %d", code)}
	}
}
