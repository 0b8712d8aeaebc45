package domain

// Catalog holds the label sets and thresholds the identification and
// freshness stages depend on.
type Catalog struct {
	FineTunedClasses []string          `yaml:"fine_tuned_classes" toml:"fine_tuned_classes" json:"fine_tuned_classes"`
	KnownSet         []string          `yaml:"known_set" toml:"known_set" json:"known_set"`
	Synonyms         map[string]string `yaml:"synonyms" toml:"synonyms" json:"synonyms"`
	FreshnessLabels  []string          `yaml:"freshness_labels" toml:"freshness_labels" json:"freshness_labels"`
	WeightFactor     float64           `yaml:"weight_factor" toml:"weight_factor" json:"weight_factor"`
	FreshnessGate    float64           `yaml:"freshness_gate" toml:"freshness_gate" json:"freshness_gate"`
}

func (c Catalog) IsKnown(label string) bool {
	for _, known := range c.KnownSet {
		if known == label {
			return true
		}
	}
	return false
}
