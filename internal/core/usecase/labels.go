package usecase

import (
	"strings"

	"golang.org/x/text/cases"
)

// LabelNormalizer maps open-vocabulary classifier labels onto catalog names
// through the catalog synonym table. Labels without a synonym pass through
// unchanged, so "banana" stays outside a whitelist that lists "Banana".
type LabelNormalizer struct {
	synonyms map[string]string
}

func NewLabelNormalizer(synonyms map[string]string) *LabelNormalizer {
	normalized := make(map[string]string, len(synonyms))
	for alias, canonical := range synonyms {
		normalized[synonymKey(alias)] = canonical
	}
	return &LabelNormalizer{synonyms: normalized}
}

// Canonical returns the synonym target for label, matching case-insensitively
// with underscores read as spaces ("bell_pepper" matches "bell pepper").
func (n *LabelNormalizer) Canonical(label string) string {
	if canonical, ok := n.synonyms[synonymKey(label)]; ok {
		return canonical
	}
	return label
}

func synonymKey(label string) string {
	collapsed := strings.Join(strings.Fields(strings.ReplaceAll(label, "_", " ")), " ")
	// cases.Caser is stateful; build one per call.
	return cases.Fold().String(collapsed)
}
