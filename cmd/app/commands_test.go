package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
	"github.com/kexin94yyds/RI-Flow/internal/itemservice"
	"github.com/kexin94yyds/RI-Flow/internal/models"
)

func TestReportImport(t *testing.T) {
	var buf bytes.Buffer
	if err := reportImport(&buf, itemservice.ImportResult{}, fmt.Errorf("x: %w", apperr.ErrCancelled)); err != nil {
		t.Fatalf("cancelled import should not fail: %v", err)
	}
	if !strings.Contains(buf.String(), "cancelled") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	if err := reportImport(&buf, itemservice.ImportResult{Imported: 2, Total: 5, Host: "10.0.0.2"}, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "imported 2 items from 10.0.0.2, 5 in total\n" {
		t.Errorf("output = %q", got)
	}

	boom := errors.New("boom")
	if err := reportImport(&buf, itemservice.ImportResult{}, boom); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestPrintItems(t *testing.T) {
	var buf bytes.Buffer
	printItems(&buf, []models.Item{
		{ID: "1", URL: "https://go.dev", Title: "Go", Category: models.CategoryLearning, Platform: models.PlatformWeb, Pinned: true},
		{ID: "2", URL: "https://x.com/a", Title: "Post", Category: "recipes", Platform: models.PlatformTwitter},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "*") || !strings.Contains(lines[0], "Learning") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "recipes") || !strings.Contains(lines[1], "Twitter") {
		t.Errorf("line 1 = %q", lines[1])
	}
}
