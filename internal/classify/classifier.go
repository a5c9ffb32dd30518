package classify

import "strings"

const (
	// CategoryUncategorized is assigned when no reference corpus clears the threshold.
	CategoryUncategorized = "uncategorized"

	// CategoryAll is the sentinel clients send when they want automatic classification.
	CategoryAll = "all"

	similarityThreshold = 0.7
)

// Classifier assigns a category to extracted document text by comparing it
// against an ordered set of reference corpora. Corpus order is the tie-break:
// the first category whose overlap clears the threshold wins.
type Classifier struct {
	corpus *Corpus
}

// NewClassifier constructs a Classifier over an immutable corpus.
func NewClassifier(corpus *Corpus) *Classifier {
	return &Classifier{corpus: corpus}
}

// Classify returns the category for the extracted text, or "uncategorized".
func (c *Classifier) Classify(text string) string {
	tokens := Tokenize(text)
	for _, ref := range c.corpus.Entries() {
		if Overlap(tokens, ref.tokens) > similarityThreshold {
			return ref.Category
		}
	}
	return CategoryUncategorized
}

// Resolve applies a caller-supplied category override. An empty override or the
// "all" sentinel falls through to classification.
func (c *Classifier) Resolve(override, text string) string {
	override = strings.TrimSpace(override)
	if override != "" && !strings.EqualFold(override, CategoryAll) {
		return override
	}
	return c.Classify(text)
}

// Tokenize lower-cases the text and returns its distinct whitespace-separated tokens.
func Tokenize(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		out[tok] = struct{}{}
	}
	return out
}

// Overlap computes |a ∩ b| / max(|a|, |b|). An empty set on either side yields 0.
func Overlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(large))
}
