package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/explorenyc/eventcomb/app/database"
)

const (
	enrichBatchSize    = 20
	enrichFetchTimeout = 30 * time.Second
	// descriptions are chat-surface text, keep them short
	maxDescriptionLength = 1000
)

// EnrichDescriptionTask backfills empty descriptions for archived events by
// fetching their listing pages and extracting readable text.
type EnrichDescriptionTask struct {
	Task
	eventRepo  database.EventRepository
	httpClient *http.Client
	extractor  *Extractor
	userAgent  string
}

func NewEnrichDescriptionTask(eventRepo database.EventRepository, httpClient *http.Client,
	extractor *Extractor, userAgent string) *EnrichDescriptionTask {
	return &EnrichDescriptionTask{
		Task:       NewTask(TaskTypeEnrichDescription, ""),
		eventRepo:  eventRepo,
		httpClient: httpClient,
		extractor:  extractor,
		userAgent:  userAgent,
	}
}

func (t *EnrichDescriptionTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	candidates, err := t.eventRepo.GetEventsForEnrichment(enrichBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get events for enrichment: %w", err)
	}

	if len(candidates) == 0 {
		slog.Debug("No events need description enrichment")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, event := range candidates {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		description, err := t.extractDescription(ctx, event.SourceURL)
		if err != nil {
			slog.Debug("Failed to extract description", "event_id", event.ID, "url", event.SourceURL, "error", err)
			errorCount++
			description = "" // mark attempted so the page is not retried forever
		} else {
			successCount++
		}

		if err := t.eventRepo.UpdateDescription(event.ID, description, time.Now()); err != nil {
			slog.Error("Failed to store enriched description", "event_id", event.ID, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"candidates", len(candidates),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *EnrichDescriptionTask) extractDescription(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("event has no source URL")
	}

	data, err := t.fetchPage(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch listing page: %w", err)
	}

	text, err := t.extractor.Run(data)
	if err != nil {
		return "", err
	}

	return truncateDescription(text, maxDescriptionLength), nil
}

// truncateDescription cuts text to at most max bytes without splitting a
// multi-byte rune.
func truncateDescription(text string, max int) string {
	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}
	return text[:max]
}

func (t *EnrichDescriptionTask) fetchPage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, enrichFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
