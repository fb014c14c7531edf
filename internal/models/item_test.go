package models_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kexin94yyds/RI-Flow/internal/models"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://twitter.com/golang/status/1", models.PlatformTwitter},
		{"https://x.com/golang", models.PlatformTwitter},
		{"https://www.youtube.com/watch?v=abc", models.PlatformYouTube},
		{"https://youtu.be/abc", models.PlatformYouTube},
		{"https://go.dev/blog", models.PlatformWeb},
		{"", models.PlatformWeb},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := models.DetectPlatform(tt.url); got != tt.want {
				t.Errorf("DetectPlatform(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestNewItem_Defaults(t *testing.T) {
	it := models.NewItem(models.NewItemParams{URL: "https://youtu.be/xyz"})

	if it.ID == "" {
		t.Error("expected generated id")
	}
	if it.Title != "https://youtu.be/xyz" {
		t.Errorf("title = %q, want url fallback", it.Title)
	}
	if it.Category != models.CategoryReadLater {
		t.Errorf("category = %q, want %q", it.Category, models.CategoryReadLater)
	}
	if it.Platform != models.PlatformYouTube {
		t.Errorf("platform = %q", it.Platform)
	}
	if it.Pinned {
		t.Error("new item should not be pinned")
	}
	if !strings.HasSuffix(it.CreatedAt, "Z") {
		t.Errorf("createdAt = %q, want UTC ISO-8601", it.CreatedAt)
	}
	if _, err := time.Parse(time.RFC3339Nano, it.CreatedAt); err != nil {
		t.Errorf("createdAt not ISO-8601: %v", err)
	}
}

func TestNewItem_UniqueIDs(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 500; i++ {
		it := models.NewItem(models.NewItemParams{URL: "https://example.com"})
		if _, dup := seen[it.ID]; dup {
			t.Fatalf("duplicate id %q after %d items", it.ID, i)
		}
		seen[it.ID] = struct{}{}
	}
}

func TestNewItem_KeepsUnknownCategory(t *testing.T) {
	it := models.NewItem(models.NewItemParams{URL: "https://example.com", Category: "recipes"})
	if it.Category != "recipes" {
		t.Errorf("category = %q, want passthrough", it.Category)
	}
	if models.CategoryLabel("recipes") != "recipes" {
		t.Errorf("label = %q", models.CategoryLabel("recipes"))
	}
	if models.CategoryLabel(models.CategoryLearning) != "Learning" {
		t.Errorf("label = %q", models.CategoryLabel(models.CategoryLearning))
	}
}

func TestItem_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(models.Item{ID: "1", URL: "u", CreatedAt: "2024-01-01", Pinned: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"id", "url", "title", "category", "note", "image", "platform", "createdAt", "pinned"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing field %q in %s", key, data)
		}
	}
	if len(raw) != 9 {
		t.Errorf("got %d fields, want 9", len(raw))
	}
}
