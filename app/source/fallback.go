package source

import (
	"context"
	"time"

	"github.com/explorenyc/eventcomb/app/events"
)

// FallbackName tags every event served from the static dataset so callers
// can tell degraded results apart from live ones.
const FallbackName = "fallback"

// FallbackSource serves a small curated dataset when every live source has
// failed. Start times are projected relative to the query window so the
// degraded results still land inside it.
type FallbackSource struct{}

func NewFallbackSource() *FallbackSource {
	return &FallbackSource{}
}

func (s *FallbackSource) Name() string {
	return FallbackName
}

type fallbackSeed struct {
	localID      string
	title        string
	description  string
	category     events.Category
	startOffset  time.Duration // from window start
	duration     time.Duration
	venue        string
	neighborhood string
	borough      string
	priceMin     float64
	flags        []events.AccessibilityFlag
}

var fallbackSeeds = []fallbackSeed{
	{
		localID:      "central-park-concert",
		title:        "SummerStage Concert in Central Park",
		description:  "Free outdoor concert at the Rumsey Playfield bandshell.",
		category:     events.CategoryMusic,
		startOffset:  26 * time.Hour,
		duration:     3 * time.Hour,
		venue:        "Rumsey Playfield",
		neighborhood: "Central Park",
		borough:      "Manhattan",
		flags:        []events.AccessibilityFlag{events.FlagWheelchair},
	},
	{
		localID:      "brooklyn-museum-first-saturday",
		title:        "First Saturday at the Brooklyn Museum",
		description:  "Free art, music and community programming all evening.",
		category:     events.CategoryArt,
		startOffset:  50 * time.Hour,
		duration:     5 * time.Hour,
		venue:        "Brooklyn Museum",
		neighborhood: "Prospect Heights",
		borough:      "Brooklyn",
		flags:        []events.AccessibilityFlag{events.FlagWheelchair, events.FlagASL},
	},
	{
		localID:      "queens-night-market",
		title:        "Queens Night Market",
		description:  "Open-air food market with vendors from around the world.",
		category:     events.CategoryFood,
		startOffset:  74 * time.Hour,
		duration:     6 * time.Hour,
		venue:        "New York Hall of Science",
		neighborhood: "Corona",
		borough:      "Queens",
		priceMin:     5,
	},
	{
		localID:      "bronx-zoo-family-day",
		title:        "Family Day at the Bronx Zoo",
		description:  "Keeper talks and hands-on exhibits for kids.",
		category:     events.CategoryFamily,
		startOffset:  98 * time.Hour,
		duration:     4 * time.Hour,
		venue:        "Bronx Zoo",
		neighborhood: "Fordham",
		borough:      "Bronx",
		priceMin:     20,
		flags:        []events.AccessibilityFlag{events.FlagWheelchair, events.FlagSensoryFriendly},
	},
	{
		localID:      "si-ferry-fun-run",
		title:        "Staten Island Waterfront Fun Run",
		description:  "Community 5K along the St. George esplanade.",
		category:     events.CategorySports,
		startOffset:  122 * time.Hour,
		duration:     2 * time.Hour,
		venue:        "St. George Esplanade",
		neighborhood: "St. George",
		borough:      "Staten Island",
	},
}

func (s *FallbackSource) Fetch(_ context.Context, window events.TimeWindow, maxResults int) ([]events.Event, events.AdapterStatus) {
	result := make([]events.Event, 0, len(fallbackSeeds))
	for _, seed := range fallbackSeeds {
		if maxResults > 0 && len(result) >= maxResults {
			break
		}

		start := window.From.Add(seed.startOffset)
		if !window.Contains(start) {
			continue
		}
		end := start.Add(seed.duration)
		priceMin := seed.priceMin

		e := events.Event{
			ID:            events.EventID(FallbackName, seed.localID),
			Title:         seed.title,
			Description:   seed.description,
			Category:      seed.category,
			StartTime:     start,
			EndTime:       &end,
			VenueName:     seed.venue,
			Neighborhood:  seed.neighborhood,
			Borough:       seed.borough,
			PriceMin:      &priceMin,
			Accessibility: seed.flags,
			Source:        FallbackName,
		}
		e.RawHash = e.ContentHash()
		result = append(result, e)
	}

	return result, events.AdapterStatus{Source: FallbackName, OK: true, FetchedCount: len(result)}
}
