// Package models defines the domain types for info-filter.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Categories.
const (
	CategoryReadLater     = "read_later"
	CategoryLearning      = "learning"
	CategoryInspiration   = "inspiration"
	CategoryEntertainment = "entertainment"
)

// Platforms.
const (
	PlatformTwitter = "Twitter"
	PlatformYouTube = "YouTube"
	PlatformWeb     = "Web"
)

// CreatedAtLayout is the ISO-8601 layout used for new items (millisecond precision, UTC).
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Item is a single saved bookmark. The JSON field names are the persisted
// and exchanged format.
type Item struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	Note      string `json:"note"`
	Image     string `json:"image"`
	Platform  string `json:"platform"`
	CreatedAt string `json:"createdAt"`
	Pinned    bool   `json:"pinned"`
}

// NewItemParams holds parameters for creating a new Item.
type NewItemParams struct {
	URL      string
	Title    string
	Category string
	Note     string
	Image    string
}

// NewItem creates an Item with a time-ordered id, derived platform and creation timestamp.
func NewItem(params NewItemParams) Item {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = params.URL
	}
	category := params.Category
	if category == "" {
		category = CategoryReadLater
	}

	return Item{
		ID:        generateID(),
		URL:       params.URL,
		Title:     title,
		Category:  category,
		Note:      params.Note,
		Image:     params.Image,
		Platform:  DetectPlatform(params.URL),
		CreatedAt: time.Now().UTC().Format(CreatedAtLayout),
		Pinned:    false,
	}
}

// DetectPlatform classifies a URL. The result is stored on the item at
// creation and never recomputed.
func DetectPlatform(rawURL string) string {
	switch {
	case rawURL == "":
		return PlatformWeb
	case strings.Contains(rawURL, "twitter.com"), strings.Contains(rawURL, "x.com"):
		return PlatformTwitter
	case strings.Contains(rawURL, "youtube.com"), strings.Contains(rawURL, "youtu.be"):
		return PlatformYouTube
	default:
		return PlatformWeb
	}
}

var categoryLabels = map[string]string{
	CategoryReadLater:     "Read later",
	CategoryLearning:      "Learning",
	CategoryInspiration:   "Inspiration",
	CategoryEntertainment: "Entertainment",
}

// CategoryLabel returns the display name of a category. Unknown values are returned verbatim.
func CategoryLabel(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return category
}

// IDs returns the ids of items in order.
func IDs(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
