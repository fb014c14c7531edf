// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes info-filter tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/collection"
	"github.com/kexin94yyds/RI-Flow/internal/itemservice"
	"github.com/kexin94yyds/RI-Flow/internal/models"
)

const itemFormatURI = "infofilter://item-format"

// Server wraps the MCP server with info-filter tools.
type Server struct {
	mcp *server.MCPServer
	svc *itemservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *itemservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"info-filter",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List saved items in display order (pinned first)."),
		mcp.WithString("platform", mcp.Description("Optional platform filter: Twitter, YouTube, Web or all")),
	), s.listItems)

	s.mcp.AddTool(mcp.NewTool("add_item",
		mcp.WithDescription("Save a URL. Title and preview image are scraped from the page when omitted. "+
			"Read the item format via get_item_format or the "+itemFormatURI+" resource first."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Page URL")),
		mcp.WithString("title", mcp.Description("Optional title")),
		mcp.WithString("category", mcp.Description("read_later, learning, inspiration or entertainment")),
		mcp.WithString("note", mcp.Description("Optional free-text note")),
	), s.addItem)

	s.mcp.AddTool(mcp.NewTool("toggle_pin",
		mcp.WithDescription("Pin or unpin an item. Pinned items are listed first."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), s.togglePin)

	s.mcp.AddTool(mcp.NewTool("delete_item",
		mcp.WithDescription("Delete an item."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
	), s.deleteItem)

	s.mcp.AddTool(mcp.NewTool("reorder_items",
		mcp.WithDescription("Reorder the items visible under a platform filter. "+
			"Items hidden by the filter keep their positions."),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Comma-separated item ids in the new order")),
		mcp.WithString("filter", mcp.Description("Platform filter the order was made in (default all)")),
	), s.reorderItems)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Fuzzy search over item titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("export_items",
		mcp.WithDescription("Return the whole collection as a backup JSON document."),
	), s.exportItems)

	s.mcp.AddTool(mcp.NewTool("get_item_format",
		mcp.WithDescription("Returns the item format and collection rules."),
	), s.getItemFormat)

	s.mcp.AddResource(
		mcp.NewResource(itemFormatURI, "Item Format",
			mcp.WithResourceDescription("Item JSON shape and collection ordering rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readItemFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("item not found"), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

func (s *Server) listItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := req.GetString("platform", collection.FilterAll)
	if filter == "" {
		filter = collection.FilterAll
	}
	items, _ := s.svc.List(ctx, filter)
	return jsonResult(items)
}

func (s *Server) addItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, _, err := s.svc.Add(ctx, itemservice.AddParams{
		URL:      u,
		Title:    req.GetString("title", ""),
		Category: req.GetString("category", ""),
		Note:     req.GetString("note", ""),
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(item)
}

func (s *Server) togglePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	full, err := s.svc.TogglePin(ctx, id)
	if err != nil {
		return errorResult(err)
	}
	for _, it := range full {
		if it.ID == id {
			state := "unpinned"
			if it.Pinned {
				state = "pinned"
			}
			return mcp.NewToolResultText(fmt.Sprintf("%s: %s", state, id)), nil
		}
	}
	return mcp.NewToolResultText("toggled: " + id), nil
}

func (s *Server) deleteItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.Delete(ctx, id); err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText("deleted: " + id), nil
}

func (s *Server) reorderItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	filter := req.GetString("filter", collection.FilterAll)
	if filter == "" {
		filter = collection.FilterAll
	}

	_, view, err := s.svc.Reorder(ctx, ids, filter)
	if err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(strings.Join(models.IDs(view), "\n")), nil
}

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results := s.svc.Search(ctx, query, itemservice.DefaultSearchLimit)
	if len(results) == 0 {
		return mcp.NewToolResultText("no items found"), nil
	}
	return jsonResult(results)
}

func (s *Server) exportItems(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, data, err := s.svc.Export(ctx)
	if err != nil {
		return errorResult(err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getItemFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ItemFormatContract), nil
}

func (s *Server) readItemFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      itemFormatURI,
			MIMEType: "text/markdown",
			Text:     ItemFormatContract,
		},
	}, nil
}
