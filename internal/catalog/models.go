package catalog

import (
	"strings"
	"time"
)

// Series is the top of the containment hierarchy.
type Series struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Episode belongs to a Series; Number is unique within the series.
type Episode struct {
	ID           string
	SeriesID     string
	Number       int
	Title        string
	DefaultModel string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clip is a single generation unit belonging to an episode.
//
// Characters and the reference URL fields are comma-separated strings at the
// persistence boundary; parsing into ordered lists happens in the resolver,
// never deeper in business logic.
type Clip struct {
	ID        string
	EpisodeID string
	Scene     string
	Title     string

	Characters    string // comma-separated character names
	Location      string
	Style         string
	StyleStrength int // 0-10 user-facing slider; 0 means unset
	Camera        string
	Action        string
	Dialog        string

	// ExplicitRefURLs holds user-curated reference URLs verbatim. nil means
	// the field was never set and resolution falls back to the legacy
	// combined field; an empty string is a deliberate "no explicit refs".
	ExplicitRefURLs *string
	// FullRefURLs is the derived library+explicit set, refreshed on dispatch.
	FullRefURLs string

	Status         Status
	TaskID         string
	ResultURL      string
	Model          string
	NegativePrompt string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemType classifies studio library assets.
type ItemType string

const (
	ItemCharacter ItemType = "CHARACTER"
	ItemLocation  ItemType = "LOCATION"
	ItemStyle     ItemType = "STYLE"
	ItemCamera    ItemType = "CAMERA"
	ItemAction    ItemType = "ACTION"
	ItemObject    ItemType = "OBJECT"
	ItemOther     ItemType = "OTHER"
)

var itemTypes = map[ItemType]struct{}{
	ItemCharacter: {},
	ItemLocation:  {},
	ItemStyle:     {},
	ItemCamera:    {},
	ItemAction:    {},
	ItemObject:    {},
	ItemOther:     {},
}

// ParseItemType converts a string into a known ItemType.
func ParseItemType(value string) (ItemType, bool) {
	normalized := ItemType(strings.ToUpper(strings.TrimSpace(value)))
	_, ok := itemTypes[normalized]
	return normalized, ok
}

// StudioItem is a named, typed reference asset in a series library. Name is
// the join key used by reference resolution.
type StudioItem struct {
	ID           string
	SeriesID     string
	Type         ItemType
	Name         string
	Description  string
	RefImageURLs string // comma-separated
	TaskID       string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
