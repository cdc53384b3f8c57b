// Package source contains the adapters translating each upstream provider's
// API into canonical events. Adapters never let a failure escape: every
// outcome, good or bad, is reported through an AdapterStatus.
package source

import (
	"fmt"
	"net/http"
	"time"

	"github.com/explorenyc/eventcomb/app/config"
	"github.com/explorenyc/eventcomb/app/events"
	"github.com/explorenyc/eventcomb/app/metrics"
)

// New builds a source adapter from its configuration.
func New(cfg *config.Config, client *http.Client, userAgent string) (events.Source, error) {
	b := base{
		cfg:       cfg,
		client:    client,
		limiter:   NewLimiter(cfg.Settings.RateLimit.Tokens, time.Duration(cfg.Settings.RateLimit.RefillInterval)*time.Second),
		userAgent: userAgent,
	}

	switch cfg.Type {
	case config.TypeNYCOpenData:
		return &NYCOpenDataSource{base: b}, nil
	case config.TypeEventbrite:
		return &EventbriteSource{base: b}, nil
	case config.TypeRSS:
		return NewRSSSource(b), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", cfg.Type)
	}
}

// base carries what every adapter needs: its config, the shared HTTP client
// and its own rate-limit bucket.
type base struct {
	cfg       *config.Config
	client    *http.Client
	limiter   *Limiter
	userAgent string
}

func (b *base) Name() string {
	return b.cfg.Name
}

// allow consumes a rate-limit token, returning a ready-made RateLimited
// status when the bucket is empty. No network call is made in that case.
func (b *base) allow() (events.AdapterStatus, bool) {
	if b.limiter.Allow() {
		return events.AdapterStatus{}, true
	}
	metrics.ObserveFetch(b.cfg.Name, "rate_limited", 0)
	return events.AdapterStatus{
		Source:    b.cfg.Name,
		OK:        false,
		ErrorKind: events.ErrorKindRateLimit,
		Message:   "per-source rate limit budget exhausted",
	}, false
}

func (b *base) failStatus(srcErr *events.SourceError, started time.Time) events.AdapterStatus {
	d := time.Since(started)
	metrics.ObserveFetch(b.cfg.Name, string(srcErr.Kind), d)
	return events.AdapterStatus{
		Source:    b.cfg.Name,
		OK:        false,
		ErrorKind: srcErr.Kind,
		Message:   srcErr.Err.Error(),
		Duration:  d,
	}
}

func (b *base) okStatus(fetched, skipped int, started time.Time) events.AdapterStatus {
	d := time.Since(started)
	metrics.ObserveFetch(b.cfg.Name, "ok", d)
	metrics.AddSkipped(b.cfg.Name, skipped)
	return events.AdapterStatus{
		Source:       b.cfg.Name,
		OK:           true,
		FetchedCount: fetched,
		SkippedCount: skipped,
		Duration:     d,
	}
}

func (b *base) timeout() time.Duration {
	return time.Duration(b.cfg.Settings.Timeout) * time.Second
}

func clampMax(requested, configured int) int {
	if requested < 1 || (configured > 0 && requested > configured) {
		return configured
	}
	return requested
}
