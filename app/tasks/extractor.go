package tasks

import (
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/readeck/go-readability"
)

// Extractor pulls readable text out of an event's listing page, used to
// backfill descriptions the upstream feed left empty.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no text extracted from HTML data")
	}

	slog.Debug("Description extracted successfully",
		"title", article.Title,
		"text_length", len(text))

	return text, nil
}
