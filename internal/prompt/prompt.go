// Package prompt asks the terminal user for confirmations and reads URLs
// from the system clipboard.
package prompt

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/chzyer/readline"

	"github.com/kexin94yyds/RI-Flow/internal/apperr"
)

// lineReader reads one line from the terminal. Replaced in tests.
var lineReader = readline.Line

// clipboardReader returns the clipboard text. Replaced in tests.
var clipboardReader = clipboard.ReadAll

// Confirm asks question and reports whether the user answered yes.
// Read errors (closed stdin, Ctrl-C) count as no.
func Confirm(question string) bool {
	answer, err := lineReader(question + " [y/N]: ")
	if err != nil {
		return false
	}
	return IsYes(answer)
}

// IsYes reports whether answer is an affirmative reply.
func IsYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// ImportConfirm returns a confirmation callback for merges. With assumeYes
// it never asks.
func ImportConfirm(assumeYes bool) func(incoming int, source string) bool {
	return func(incoming int, source string) bool {
		if assumeYes {
			return true
		}
		return Confirm(fmt.Sprintf("Merge %d items from %s into the local collection?", incoming, source))
	}
}

// ClipboardURL returns the clipboard content when it looks like a link.
// Text starting with "www" gets an https scheme.
func ClipboardURL() (string, error) {
	text, err := clipboardReader()
	if err != nil {
		return "", fmt.Errorf("prompt: read clipboard: %w", err)
	}
	u, ok := NormalizeClipboardURL(text)
	if !ok {
		return "", fmt.Errorf("prompt: clipboard does not hold a link: %w", apperr.ErrInvalid)
	}
	return u, nil
}

// NormalizeClipboardURL accepts text starting with "http" or "www".
func NormalizeClipboardURL(text string) (string, bool) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, "http"):
		return text, true
	case strings.HasPrefix(text, "www"):
		return "https://" + text, true
	default:
		return "", false
	}
}
