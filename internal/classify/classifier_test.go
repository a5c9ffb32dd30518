package classify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTokenizeLowercasesAndDedupes(t *testing.T) {
	tokens := Tokenize("Invoice INVOICE amount\n\tAmount due")
	want := []string{"invoice", "amount", "due"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(tokens), tokens)
	}
	for _, w := range want {
		if _, ok := tokens[w]; !ok {
			t.Fatalf("missing token %q", w)
		}
	}
}

func TestOverlapUsesLargerSetAsDenominator(t *testing.T) {
	a := Tokenize("invoice amount due total")
	b := Tokenize("invoice amount due")
	got := Overlap(a, b)
	if got != 0.75 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	// Symmetric.
	if Overlap(b, a) != got {
		t.Fatalf("overlap is not symmetric")
	}
}

func TestOverlapEmptySet(t *testing.T) {
	if Overlap(Tokenize(""), Tokenize("invoice")) != 0 {
		t.Fatalf("expected 0 for empty left set")
	}
	if Overlap(Tokenize("invoice"), Tokenize("")) != 0 {
		t.Fatalf("expected 0 for empty right set")
	}
}

func TestClassifyAboveThreshold(t *testing.T) {
	c := NewClassifier(NewCorpus([]ReferenceEntry{
		{Category: "billing", Text: "invoice amount due total"},
	}))

	// 3 of 4 reference tokens shared: 0.75 > 0.7.
	if got := c.Classify("invoice amount due"); got != "billing" {
		t.Fatalf("expected billing, got %q", got)
	}
}

func TestClassifyAtThresholdIsUncategorized(t *testing.T) {
	// 7 of 10 tokens shared: exactly 0.7, which does not clear the
	// strict threshold.
	c := NewClassifier(NewCorpus([]ReferenceEntry{
		{Category: "billing", Text: "a b c d e f g h i j"},
	}))
	if got := c.Classify("a b c d e f g"); got != CategoryUncategorized {
		t.Fatalf("expected uncategorized at exact threshold, got %q", got)
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	c := NewClassifier(NewCorpus([]ReferenceEntry{
		{Category: "billing", Text: "invoice amount due"},
		{Category: "contracts", Text: "invoice amount due"},
	}))
	if got := c.Classify("invoice amount due"); got != "billing" {
		t.Fatalf("expected first matching category, got %q", got)
	}
}

func TestClassifyEmptyCorpus(t *testing.T) {
	c := NewClassifier(NewCorpus(nil))
	if got := c.Classify("anything at all"); got != CategoryUncategorized {
		t.Fatalf("expected uncategorized, got %q", got)
	}
}

func TestResolveOverride(t *testing.T) {
	c := NewClassifier(NewCorpus([]ReferenceEntry{
		{Category: "billing", Text: "invoice amount due"},
	}))

	if got := c.Resolve("contracts", "invoice amount due"); got != "contracts" {
		t.Fatalf("expected override to win, got %q", got)
	}
	if got := c.Resolve("", "invoice amount due"); got != "billing" {
		t.Fatalf("expected classification, got %q", got)
	}
	if got := c.Resolve("All", "invoice amount due"); got != "billing" {
		t.Fatalf("expected \"all\" sentinel to fall through, got %q", got)
	}
}

type stubExtractor struct {
	text  string
	err   error
	calls int
}

func (s *stubExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	s.calls++
	return s.text, s.err
}

func TestLoadCorpusPrefersCachedText(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "billing_reference.txt"), []byte("invoice amount due\n"), 0o644); err != nil {
		t.Fatalf("write reference: %v", err)
	}

	ext := &stubExtractor{text: "should not be used"}
	corpus := LoadCorpus(context.Background(), dir, []string{"billing"}, ext)

	entries := corpus.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Text != "invoice amount due" {
		t.Fatalf("unexpected text %q", entries[0].Text)
	}
	if ext.calls != 0 {
		t.Fatalf("extractor should not run when cache exists")
	}
}

func TestLoadCorpusExtractsAndCachesPDF(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "billing_reference.pdf"), []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	ext := &stubExtractor{text: "invoice amount due"}
	corpus := LoadCorpus(context.Background(), dir, []string{"billing"}, ext)

	if corpus.Entries()[0].Text != "invoice amount due" {
		t.Fatalf("unexpected text %q", corpus.Entries()[0].Text)
	}
	cached, err := os.ReadFile(filepath.Join(dir, "billing_reference.txt"))
	if err != nil {
		t.Fatalf("expected cached text file: %v", err)
	}
	if string(cached) != "invoice amount due" {
		t.Fatalf("unexpected cache contents %q", cached)
	}
}

func TestLoadCorpusMissingReferenceIsEmpty(t *testing.T) {
	corpus := LoadCorpus(context.Background(), t.TempDir(), []string{"billing"}, &stubExtractor{})
	entries := corpus.Entries()
	if len(entries) != 1 || entries[0].Text != "" {
		t.Fatalf("expected empty-text entry, got %+v", entries)
	}
}
