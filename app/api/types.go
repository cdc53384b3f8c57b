package api

import (
	"time"

	"github.com/explorenyc/eventcomb/app/cache"
	"github.com/explorenyc/eventcomb/app/config"
	"github.com/explorenyc/eventcomb/app/database"
	"github.com/explorenyc/eventcomb/app/events"
	"github.com/explorenyc/eventcomb/app/tasks"
)

// Handler holds the dependencies for all HTTP endpoints.
type Handler struct {
	aggregator      *events.Aggregator
	sources         map[string]events.Source
	configCache     *config.Cache
	eventRepo       database.EventRepository
	refreshRepo     database.SourceRefreshRepository
	scheduler       tasks.TaskSchedulerInterface
	resultCache     *cache.Cache // nil when Redis is not configured
	maxResults      int
	defaultPageSize int
}

// DiscoverRequest is the inbound shape of POST /discover. All fields except
// the profile are optional; the window defaults to the next 30 days.
type DiscoverRequest struct {
	Profile  ProfileRequest `json:"profile"`
	Window   WindowRequest  `json:"window"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type ProfileRequest struct {
	Categories            []string `json:"categories"`
	BudgetMax             *float64 `json:"budget_max"`
	Neighborhoods         []string `json:"neighborhoods"`
	AccessibilityRequired []string `json:"accessibility_required"`
	FreeTextInterest      string   `json:"free_text_interest"`
}

type WindowRequest struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

// DiscoverResponse is the outbound shape: one page of scored events plus the
// per-source status report.
type DiscoverResponse struct {
	Events     []ScoredEventResponse   `json:"events"`
	TotalCount int                     `json:"total_count"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	Degraded   bool                    `json:"degraded"`
	Sources    []AdapterStatusResponse `json:"sources"`
}

type ScoredEventResponse struct {
	ID            string                  `json:"id"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description,omitempty"`
	Category      string                  `json:"category"`
	StartTime     time.Time               `json:"start_time"`
	EndTime       time.Time               `json:"end_time"`
	VenueName     string                  `json:"venue_name,omitempty"`
	Neighborhood  string                  `json:"neighborhood,omitempty"`
	Borough       string                  `json:"borough,omitempty"`
	Latitude      *float64                `json:"latitude,omitempty"`
	Longitude     *float64                `json:"longitude,omitempty"`
	PriceMin      *float64                `json:"price_min"`
	PriceMax      *float64                `json:"price_max"`
	Accessibility []string                `json:"accessibility,omitempty"`
	Source        string                  `json:"source"`
	SourceURL     string                  `json:"source_url,omitempty"`
	Score         float64                 `json:"score"`
	Breakdown     map[string]FactorDetail `json:"score_breakdown"`
}

type FactorDetail struct {
	Raw      float64 `json:"raw"`
	Weighted float64 `json:"weighted"`
}

type AdapterStatusResponse struct {
	Source       string `json:"source"`
	OK           bool   `json:"ok"`
	ErrorKind    string `json:"error_kind,omitempty"`
	Message      string `json:"message,omitempty"`
	FetchedCount int    `json:"fetched_count"`
	SkippedCount int    `json:"skipped_count"`
}

// toProfile validates the raw profile request against the enumerated
// category and flag sets. Unrecognized values are rejected, never silently
// ignored.
func (p ProfileRequest) toProfile() (events.Profile, error) {
	profile := events.Profile{
		BudgetMax:        p.BudgetMax,
		Neighborhoods:    p.Neighborhoods,
		FreeTextInterest: p.FreeTextInterest,
	}

	for _, raw := range p.Categories {
		c, err := events.ParseCategory(raw)
		if err != nil {
			return events.Profile{}, err
		}
		profile.Categories = append(profile.Categories, c)
	}

	for _, raw := range p.AccessibilityRequired {
		f, err := events.ParseAccessibilityFlag(raw)
		if err != nil {
			return events.Profile{}, err
		}
		profile.AccessibilityRequired = append(profile.AccessibilityRequired, f)
	}

	if profile.BudgetMax != nil && *profile.BudgetMax < 0 {
		return events.Profile{}, events.NewValidationError("budget_max must be non-negative")
	}

	return profile, nil
}

func toScoredEventResponse(e events.ScoredEvent) ScoredEventResponse {
	breakdown := make(map[string]FactorDetail, len(e.Breakdown))
	for name, f := range e.Breakdown {
		breakdown[name] = FactorDetail{Raw: f.Raw, Weighted: f.Weighted}
	}

	flags := make([]string, 0, len(e.Accessibility))
	for _, f := range e.Accessibility {
		flags = append(flags, string(f))
	}

	return ScoredEventResponse{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Category:      string(e.Category),
		StartTime:     e.StartTime,
		EndTime:       e.End(),
		VenueName:     e.VenueName,
		Neighborhood:  e.Neighborhood,
		Borough:       e.Borough,
		Latitude:      e.Latitude,
		Longitude:     e.Longitude,
		PriceMin:      e.PriceMin,
		PriceMax:      e.PriceMax,
		Accessibility: flags,
		Source:        e.Source,
		SourceURL:     e.SourceURL,
		Score:         e.Score,
		Breakdown:     breakdown,
	}
}

func toStatusResponses(statuses []events.AdapterStatus) []AdapterStatusResponse {
	out := make([]AdapterStatusResponse, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, AdapterStatusResponse{
			Source:       s.Source,
			OK:           s.OK,
			ErrorKind:    string(s.ErrorKind),
			Message:      s.Message,
			FetchedCount: s.FetchedCount,
			SkippedCount: s.SkippedCount,
		})
	}
	return out
}
