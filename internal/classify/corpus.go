package classify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docintake-backend/internal/extract"
	"docintake-backend/internal/shared/telemetry"
)

// ReferenceEntry pairs a category label with its extracted reference text.
// Entries are evaluated in slice order.
type ReferenceEntry struct {
	Category string
	Text     string

	tokens map[string]struct{}
}

// Corpus is the process-wide set of reference texts. It is loaded once before
// serving traffic and never mutated afterwards.
type Corpus struct {
	entries []ReferenceEntry
}

// Entries returns the ordered reference entries.
func (c *Corpus) Entries() []ReferenceEntry {
	return c.entries
}

// NewCorpus builds a corpus from explicit category/text pairs, in order.
func NewCorpus(pairs []ReferenceEntry) *Corpus {
	entries := make([]ReferenceEntry, 0, len(pairs))
	for _, p := range pairs {
		p.tokens = Tokenize(p.Text)
		entries = append(entries, p)
	}
	return &Corpus{entries: entries}
}

// LoadCorpus reads reference text for each category from dir, in the given
// category order. It looks for <category>_reference.txt first; if absent it
// extracts <category>_reference.pdf through the extractor and caches the text
// file next to it. A missing or unreadable reference yields an empty corpus for
// that category rather than an error.
func LoadCorpus(ctx context.Context, dir string, categories []string, extractor extract.TextExtractor) *Corpus {
	entries := make([]ReferenceEntry, 0, len(categories))
	for _, category := range categories {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		text := loadReferenceText(ctx, dir, category, extractor)
		entries = append(entries, ReferenceEntry{Category: category, Text: text})
		telemetry.Info("corpus.loaded", map[string]any{
			"category": category,
			"chars":    len(text),
		})
	}
	return NewCorpus(entries)
}

func loadReferenceText(ctx context.Context, dir, category string, extractor extract.TextExtractor) string {
	txtPath := filepath.Join(dir, fmt.Sprintf("%s_reference.txt", category))
	if data, err := os.ReadFile(txtPath); err == nil {
		return strings.TrimSpace(string(data))
	}

	pdfPath := filepath.Join(dir, fmt.Sprintf("%s_reference.pdf", category))
	data, err := os.ReadFile(pdfPath)
	if err != nil {
		return ""
	}
	if extractor == nil {
		return ""
	}
	text, err := extractor.Extract(ctx, data, filepath.Base(pdfPath))
	if err != nil {
		telemetry.Warn("corpus.extract_failed", map[string]any{
			"category": category,
			"error":    err.Error(),
		})
		return ""
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	// Cache so the next start skips extraction; best effort.
	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		telemetry.Warn("corpus.cache_failed", map[string]any{
			"category": category,
			"error":    err.Error(),
		})
	}
	return text
}
