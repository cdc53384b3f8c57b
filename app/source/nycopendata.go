package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/explorenyc/eventcomb/app/events"
)

// NYCOpenDataSource reads the city's public event calendar from the Socrata
// API. Listings are official city data: no auth, and every event is free.
type NYCOpenDataSource struct {
	base
}

// nycRawEvent is the validated intermediate form of one Socrata record.
// Records that fail validation are skipped individually, never aborting the
// whole fetch.
type nycRawEvent struct {
	EventID   string `json:"event_id"`
	EventName string `json:"event_name"`
	EventType string `json:"event_type"`
	Borough   string `json:"event_borough"`
	Location  string `json:"event_location"`
	Agency    string `json:"event_agency"`
	StartTime string `json:"start_date_time"`
	EndTime   string `json:"end_date_time"`
}

// socrataTimeLayout is the portal's timestamp format. It carries no zone;
// timestamps are NYC local time.
const socrataTimeLayout = "2006-01-02T15:04:05.000"

func (s *NYCOpenDataSource) Fetch(ctx context.Context, window events.TimeWindow, maxResults int) ([]events.Event, events.AdapterStatus) {
	if status, ok := s.allow(); !ok {
		return nil, status
	}

	started := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	body, srcErr := fetchBody(fetchCtx, s.client, s.buildURL(window, clampMax(maxResults, s.cfg.Settings.MaxResults)), s.userAgent, nil)
	if srcErr != nil {
		return nil, s.failStatus(srcErr, started)
	}

	var raw []nycRawEvent
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, s.failStatus(&events.SourceError{
			Kind: events.ErrorKindPermanent,
			Err:  fmt.Errorf("malformed payload: %w", err),
		}, started)
	}

	result := make([]events.Event, 0, len(raw))
	skipped := 0
	for _, r := range raw {
		e, err := s.normalize(r)
		if err != nil {
			skipped++
			continue
		}
		result = append(result, e)
	}

	return result, s.okStatus(len(result), skipped, started)
}

func (s *NYCOpenDataSource) buildURL(window events.TimeWindow, limit int) string {
	where := fmt.Sprintf("start_date_time >= '%s' AND start_date_time < '%s'",
		window.From.In(time.Local).Format(socrataTimeLayout),
		window.To.In(time.Local).Format(socrataTimeLayout))

	q := url.Values{}
	q.Set("$limit", fmt.Sprintf("%d", limit))
	q.Set("$order", "start_date_time")
	q.Set("$where", where)

	return s.cfg.URL + "?" + q.Encode()
}

func (s *NYCOpenDataSource) normalize(r nycRawEvent) (events.Event, error) {
	if r.EventID == "" || r.EventName == "" {
		return events.Event{}, fmt.Errorf("record missing id or name")
	}

	start, err := parseSocrataTime(r.StartTime)
	if err != nil {
		return events.Event{}, fmt.Errorf("bad start time %q: %w", r.StartTime, err)
	}

	var end *time.Time
	if t, err := parseSocrataTime(r.EndTime); err == nil {
		end = &t
	}

	free := 0.0
	e := events.Event{
		ID:           events.EventID(s.cfg.Name, r.EventID),
		Title:        strings.TrimSpace(r.EventName),
		Description:  s.describe(r),
		Category:     mapNYCEventType(r.EventType),
		StartTime:    start,
		EndTime:      end,
		VenueName:    strings.TrimSpace(r.Location),
		Neighborhood: strings.TrimSpace(r.Borough),
		Borough:      strings.TrimSpace(r.Borough),
		PriceMin:     &free, // city calendar events are free
		PriceMax:     &free,
		Source:       s.cfg.Name,
	}
	e.RawHash = e.ContentHash()
	return e, nil
}

func (s *NYCOpenDataSource) describe(r nycRawEvent) string {
	parts := make([]string, 0, 3)
	if r.EventType != "" {
		parts = append(parts, r.EventType)
	}
	if r.Borough != "" {
		parts = append(parts, "in "+r.Borough)
	}
	if r.Agency != "" {
		parts = append(parts, "presented by "+r.Agency)
	}
	return strings.Join(parts, " ")
}

func parseSocrataTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if t, err := time.ParseInLocation(socrataTimeLayout, s, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// mapNYCEventType folds the portal's free-form event types into the
// canonical category set.
func mapNYCEventType(eventType string) events.Category {
	t := strings.ToLower(eventType)
	switch {
	case strings.Contains(t, "sport"):
		return events.CategorySports
	case strings.Contains(t, "concert"), strings.Contains(t, "music"):
		return events.CategoryMusic
	case strings.Contains(t, "market"), strings.Contains(t, "food"):
		return events.CategoryFood
	case strings.Contains(t, "production"), strings.Contains(t, "film"), strings.Contains(t, "theater"):
		return events.CategoryArt
	case strings.Contains(t, "parade"), strings.Contains(t, "celebration"), strings.Contains(t, "street"):
		return events.CategoryCommunity
	default:
		return events.CategoryOther
	}
}
