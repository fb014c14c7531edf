package api

import (
	"github.com/kexin94yyds/RI-Flow/internal/itemservice"
	"github.com/kexin94yyds/RI-Flow/internal/models"
)

// CreateItemRequest is the request body for adding an item.
type CreateItemRequest = itemservice.AddParams

// ReorderRequest is the request body for a drag reorder made in a filtered view.
type ReorderRequest struct {
	IDs    []string `json:"ids" validate:"required"`
	Filter string   `json:"filter" example:"all"`
}

// ReorderResponse carries the new full collection and the re-filtered view.
type ReorderResponse struct {
	Items []models.Item `json:"items" validate:"required"`
	View  []models.Item `json:"view" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.Item `json:"results" validate:"required"`
}

// PullRequest is the request body for a desktop pull. An empty host triggers discovery.
type PullRequest struct {
	Host string `json:"host" example:"192.168.1.20"`
}

// ImportResponse reports the outcome of an import or pull.
type ImportResponse = itemservice.ImportResult

// PreviewResponse is the metadata preview for the add form.
type PreviewResponse = itemservice.Preview
