package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/explorenyc/eventcomb/app/events"
)

// RSSSource reads community event calendars published as RSS or Atom feeds.
// Calendar feeds set each item's publication date to the event start time;
// items without a parsable date are skipped and counted.
type RSSSource struct {
	base
	parser *gofeed.Parser
}

func NewRSSSource(b base) *RSSSource {
	return &RSSSource{base: b, parser: gofeed.NewParser()}
}

var boroughNames = map[string]string{
	"manhattan":     "Manhattan",
	"brooklyn":      "Brooklyn",
	"queens":        "Queens",
	"bronx":         "Bronx",
	"staten island": "Staten Island",
}

func (s *RSSSource) Fetch(ctx context.Context, window events.TimeWindow, maxResults int) ([]events.Event, events.AdapterStatus) {
	if status, ok := s.allow(); !ok {
		return nil, status
	}

	started := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	body, srcErr := fetchBody(fetchCtx, s.client, s.cfg.URL, s.userAgent, nil)
	if srcErr != nil {
		return nil, s.failStatus(srcErr, started)
	}

	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		return nil, s.failStatus(&events.SourceError{
			Kind: events.ErrorKindPermanent,
			Err:  fmt.Errorf("malformed feed: %w", err),
		}, started)
	}

	limit := clampMax(maxResults, s.cfg.Settings.MaxResults)
	result := make([]events.Event, 0, len(feed.Items))
	skipped := 0
	for _, item := range feed.Items {
		if len(result) >= limit {
			break
		}
		e, err := s.normalize(item)
		if err != nil {
			skipped++
			continue
		}
		result = append(result, e)
	}

	return result, s.okStatus(len(result), skipped, started)
}

func (s *RSSSource) normalize(item *gofeed.Item) (events.Event, error) {
	if item.Title == "" {
		return events.Event{}, fmt.Errorf("item missing title")
	}
	if item.PublishedParsed == nil {
		return events.Event{}, fmt.Errorf("item missing event date")
	}

	localID := item.GUID
	if localID == "" {
		localID = item.Link
	}
	if localID == "" {
		return events.Event{}, fmt.Errorf("item missing GUID and link")
	}

	e := events.Event{
		ID:          events.EventID(s.cfg.Name, localID),
		Title:       strings.TrimSpace(item.Title),
		Description: strings.TrimSpace(item.Description),
		Category:    mapFeedCategories(item.Categories),
		StartTime:   *item.PublishedParsed,
		Source:      s.cfg.Name,
		SourceURL:   item.Link,
	}

	for _, c := range item.Categories {
		if borough, ok := boroughNames[strings.ToLower(strings.TrimSpace(c))]; ok {
			e.Borough = borough
			e.Neighborhood = borough
			break
		}
	}

	e.RawHash = e.ContentHash()
	return e, nil
}

func mapFeedCategories(cats []string) events.Category {
	for _, c := range cats {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "music", "concert", "concerts":
			return events.CategoryMusic
		case "art", "arts", "culture", "theater", "theatre", "film":
			return events.CategoryArt
		case "food", "dining", "market":
			return events.CategoryFood
		case "sports", "fitness", "recreation":
			return events.CategorySports
		case "community", "volunteer", "civic":
			return events.CategoryCommunity
		case "family", "kids", "children":
			return events.CategoryFamily
		}
	}
	return events.CategoryOther
}
