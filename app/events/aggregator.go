package events

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/explorenyc/eventcomb/app/metrics"
)

// Source is the adapter contract the aggregator fans out to. Implementations
// live in app/source; a failing adapter reports through AdapterStatus and
// never panics or errors past this boundary.
type Source interface {
	Name() string
	Fetch(ctx context.Context, window TimeWindow, maxResults int) ([]Event, AdapterStatus)
}

const (
	DefaultAggregateTimeout = 15 * time.Second
	DefaultMaxResults       = 100
)

// Aggregator fans out to all configured source adapters, joins their results
// and runs them through dedupe, scoring and ranking. One goroutine per
// configured source, all bounded by a single wall-clock budget.
type Aggregator struct {
	sources    []Source
	fallback   Source
	deduper    *Deduper
	scorer     *Scorer
	ranker     *Ranker
	timeout    time.Duration
	maxResults int
	clock      func() time.Time
}

type AggregatorOpts struct {
	Sources    []Source
	Fallback   Source
	Deduper    *Deduper
	Timeout    time.Duration
	MaxResults int
	Clock      func() time.Time // test hook; defaults to time.Now
}

func NewAggregator(opts AggregatorOpts) *Aggregator {
	a := &Aggregator{
		sources:    opts.Sources,
		fallback:   opts.Fallback,
		deduper:    opts.Deduper,
		scorer:     NewScorer(),
		ranker:     NewRanker(),
		timeout:    opts.Timeout,
		maxResults: opts.MaxResults,
		clock:      opts.Clock,
	}
	if a.deduper == nil {
		a.deduper = NewDeduper(nil, nil)
	}
	if a.timeout <= 0 {
		a.timeout = DefaultAggregateTimeout
	}
	if a.maxResults <= 0 {
		a.maxResults = DefaultMaxResults
	}
	if a.clock == nil {
		a.clock = time.Now
	}
	return a
}

type fetchResult struct {
	source string
	events []Event
	status AdapterStatus
}

// Run executes one aggregation call. Per-source failures are reported in the
// returned statuses, never as an error; the only error returned is a
// ValidationError for bad caller input.
func (a *Aggregator) Run(ctx context.Context, profile Profile, window TimeWindow, page, pageSize int) ([]ScoredEvent, int, []AdapterStatus, error) {
	if !window.To.After(window.From) {
		return nil, 0, nil, NewValidationError("time window must end after it starts")
	}
	if page < 1 {
		return nil, 0, nil, NewValidationError("page must be >= 1")
	}
	if pageSize < 1 {
		return nil, 0, nil, NewValidationError("page_size must be >= 1")
	}

	started := time.Now()
	now := a.clock()

	pool, statuses := a.fanOut(ctx, window)

	// Degraded mode: every configured source failed, so serve the static
	// fallback dataset. The status list keeps one entry per configured
	// source (all !ok), which is how callers detect the degradation.
	if allFailed(statuses) && a.fallback != nil {
		slog.Warn("All sources failed, serving fallback data", "sources", len(a.sources))
		metrics.FallbackActivated()
		fbEvents, _ := a.fallback.Fetch(ctx, window, a.maxResults)
		pool = fbEvents
	}

	pool = a.prefilter(pool, profile, window, now)
	deduped := a.deduper.Run(pool)

	scored := make([]ScoredEvent, 0, len(deduped))
	for _, e := range deduped {
		scored = append(scored, a.scorer.Run(e, profile, now))
	}

	pageEvents, total, err := a.ranker.Run(scored, page, pageSize)
	if err != nil {
		return nil, 0, nil, err
	}

	metrics.ObserveAggregateDuration(time.Since(started))
	slog.Info("Aggregation completed",
		"sources", len(a.sources),
		"pooled", len(pool),
		"deduped", len(deduped),
		"total", total,
		"page", page,
		"duration", time.Since(started))

	return pageEvents, total, statuses, nil
}

// fanOut runs every configured adapter concurrently under the wall-clock
// budget. Adapters that outlive the budget are abandoned: their status is
// marked TimedOut and any late result is discarded, never incorporated.
func (a *Aggregator) fanOut(parent context.Context, window TimeWindow) ([]Event, []AdapterStatus) {
	ctx, cancel := context.WithTimeout(parent, a.timeout)
	defer cancel()

	results := make(chan fetchResult, len(a.sources))
	for _, src := range a.sources {
		go func(s Source) {
			evts, status := s.Fetch(ctx, window, a.maxResults)
			results <- fetchResult{source: s.Name(), events: evts, status: status}
		}(src)
	}

	pool := make([]Event, 0)
	byName := make(map[string]AdapterStatus, len(a.sources))

	pending := len(a.sources)
	for pending > 0 {
		select {
		case r := <-results:
			byName[r.source] = r.status
			pool = append(pool, r.events...)
			pending--
		case <-ctx.Done():
			for _, src := range a.sources {
				if _, ok := byName[src.Name()]; !ok {
					byName[src.Name()] = AdapterStatus{
						Source:    src.Name(),
						OK:        false,
						ErrorKind: ErrorKindTimeout,
						Message:   "adapter exceeded aggregation time budget",
					}
				}
			}
			pending = 0
		}
	}

	statuses := make([]AdapterStatus, 0, len(a.sources))
	for _, src := range a.sources {
		statuses = append(statuses, byName[src.Name()])
	}
	return pool, statuses
}

// prefilter drops events outside the query window, events that already
// started, and events failing the profile's hard accessibility requirement.
// A non-empty free-text interest additionally narrows the pool to events
// mentioning at least one of its keywords.
func (a *Aggregator) prefilter(in []Event, profile Profile, window TimeWindow, now time.Time) []Event {
	keywords := strings.Fields(normalizeText(profile.FreeTextInterest))
	out := make([]Event, 0, len(in))
	for _, e := range in {
		if e.StartTime.Before(now) {
			continue
		}
		if !window.Contains(e.StartTime) {
			continue
		}
		if !a.scorer.MatchesAccessibility(e, profile) {
			continue
		}
		if !matchesKeywords(e, keywords) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesKeywords(e Event, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	haystack := normalizeText(e.Title + " " + e.Description + " " + e.VenueName)
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

func allFailed(statuses []AdapterStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s.OK {
			return false
		}
	}
	return true
}
