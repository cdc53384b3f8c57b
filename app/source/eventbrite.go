package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/explorenyc/eventcomb/app/events"
)

// EventbriteSource reads commercial listings from the Eventbrite v3 API.
// Requires a bearer token, referenced by environment variable name in the
// source config so tokens never live in YAML files.
type EventbriteSource struct {
	base
}

type ebSearchResponse struct {
	Events []ebRawEvent `json:"events"`
}

type ebRawEvent struct {
	ID          string  `json:"id"`
	Name        ebText  `json:"name"`
	Description ebText  `json:"description"`
	URL         string  `json:"url"`
	Start       ebWhen  `json:"start"`
	End         ebWhen  `json:"end"`
	CategoryID  string  `json:"category_id"`
	IsFree      bool    `json:"is_free"`
	Venue       ebVenue `json:"venue"`
}

type ebText struct {
	Text string `json:"text"`
}

type ebWhen struct {
	Local string `json:"local"`
}

type ebVenue struct {
	Name      string `json:"name"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Address   struct {
		City                 string `json:"city"`
		Region               string `json:"region"`
		LocalizedAreaDisplay string `json:"localized_area_display"`
	} `json:"address"`
}

const ebTimeLayout = "2006-01-02T15:04:05"

func (s *EventbriteSource) Fetch(ctx context.Context, window events.TimeWindow, maxResults int) ([]events.Event, events.AdapterStatus) {
	if status, ok := s.allow(); !ok {
		return nil, status
	}

	started := time.Now()

	token := os.Getenv(s.cfg.Auth.TokenEnv)
	if token == "" {
		return nil, s.failStatus(&events.SourceError{
			Kind: events.ErrorKindPermanent,
			Err:  fmt.Errorf("API token not set (env %s)", s.cfg.Auth.TokenEnv),
		}, started)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	limit := clampMax(maxResults, s.cfg.Settings.MaxResults)
	headers := map[string]string{"Authorization": "Bearer " + token}
	body, srcErr := fetchBody(fetchCtx, s.client, s.buildURL(window, limit), s.userAgent, headers)
	if srcErr != nil {
		return nil, s.failStatus(srcErr, started)
	}

	var resp ebSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, s.failStatus(&events.SourceError{
			Kind: events.ErrorKindPermanent,
			Err:  fmt.Errorf("malformed payload: %w", err),
		}, started)
	}

	result := make([]events.Event, 0, len(resp.Events))
	skipped := 0
	for _, r := range resp.Events {
		if len(result) >= limit {
			break
		}
		e, err := s.normalize(r)
		if err != nil {
			skipped++
			continue
		}
		result = append(result, e)
	}

	return result, s.okStatus(len(result), skipped, started)
}

func (s *EventbriteSource) buildURL(window events.TimeWindow, limit int) string {
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(limit))
	q.Set("location.address", "New York, NY")
	q.Set("start_date.range_start", window.From.In(time.Local).Format(ebTimeLayout))
	q.Set("start_date.range_end", window.To.In(time.Local).Format(ebTimeLayout))
	q.Set("expand", "venue")
	q.Set("status", "live")

	return strings.TrimRight(s.cfg.URL, "/") + "/events/search/?" + q.Encode()
}

func (s *EventbriteSource) normalize(r ebRawEvent) (events.Event, error) {
	if r.ID == "" || r.Name.Text == "" {
		return events.Event{}, fmt.Errorf("record missing id or name")
	}

	start, err := time.ParseInLocation(ebTimeLayout, r.Start.Local, time.Local)
	if err != nil {
		return events.Event{}, fmt.Errorf("bad start time %q: %w", r.Start.Local, err)
	}

	var end *time.Time
	if t, err := time.ParseInLocation(ebTimeLayout, r.End.Local, time.Local); err == nil {
		end = &t
	}

	e := events.Event{
		ID:           events.EventID(s.cfg.Name, r.ID),
		Title:        strings.TrimSpace(r.Name.Text),
		Description:  strings.TrimSpace(r.Description.Text),
		Category:     mapEventbriteCategory(r.CategoryID),
		StartTime:    start,
		EndTime:      end,
		VenueName:    strings.TrimSpace(r.Venue.Name),
		Neighborhood: strings.TrimSpace(r.Venue.Address.LocalizedAreaDisplay),
		Borough:      strings.TrimSpace(r.Venue.Address.City),
		Source:       s.cfg.Name,
		SourceURL:    r.URL,
	}

	if lat, err := strconv.ParseFloat(r.Venue.Latitude, 64); err == nil {
		if lng, err := strconv.ParseFloat(r.Venue.Longitude, 64); err == nil {
			e.Latitude = &lat
			e.Longitude = &lng
		}
	}

	if r.IsFree {
		free := 0.0
		e.PriceMin = &free
		e.PriceMax = &free
	}
	// Paid events keep nil prices: the search payload does not carry ticket
	// prices, and unknown must stay unknown rather than guessed.

	e.RawHash = e.ContentHash()
	return e, nil
}

// mapEventbriteCategory folds Eventbrite's numeric category ids into the
// canonical set.
func mapEventbriteCategory(id string) events.Category {
	switch id {
	case "103":
		return events.CategoryMusic
	case "105":
		return events.CategoryFood
	case "110", "111":
		return events.CategoryArt
	case "113":
		return events.CategorySports
	case "117", "121":
		return events.CategoryCommunity
	case "119", "126":
		return events.CategoryFamily
	default:
		return events.CategoryOther
	}
}
