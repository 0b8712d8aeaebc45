package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/shelf-inspector/internal/core/domain"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the built-in label catalog.
func Default() (domain.Catalog, error) {
	return Parse(defaultCatalog, "yaml")
}

// Load reads a catalog file; an empty path yields the built-in catalog. The
// format is picked by extension (.toml, otherwise YAML).
func Load(path string) (domain.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog file %q: %w", path, err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	return Parse(data, format)
}

func Parse(data []byte, format string) (domain.Catalog, error) {
	var c domain.Catalog
	switch format {
	case "toml":
		if err := toml.Unmarshal(data, &c); err != nil {
			return domain.Catalog{}, fmt.Errorf("parse catalog toml: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &c); err != nil {
			return domain.Catalog{}, fmt.Errorf("parse catalog yaml: %w", err)
		}
	default:
		return domain.Catalog{}, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err := Validate(c); err != nil {
		return domain.Catalog{}, err
	}
	return c, nil
}

// Validate checks that every freshness label carries a state prefix and that
// thresholds are usable.
func Validate(c domain.Catalog) error {
	if len(c.FineTunedClasses) == 0 {
		return fmt.Errorf("catalog: fine_tuned_classes is empty")
	}
	if len(c.KnownSet) == 0 {
		return fmt.Errorf("catalog: known_set is empty")
	}
	if len(c.FreshnessLabels) == 0 {
		return fmt.Errorf("catalog: freshness_labels is empty")
	}
	for _, label := range c.FreshnessLabels {
		if !strings.HasPrefix(label, domain.StateFresh) && !strings.HasPrefix(label, domain.StateRotten) {
			return fmt.Errorf("catalog: freshness label %q lacks a %s/%s prefix", label, domain.StateFresh, domain.StateRotten)
		}
	}
	if c.WeightFactor <= 0 {
		return fmt.Errorf("catalog: weight_factor must be positive, got %v", c.WeightFactor)
	}
	if c.FreshnessGate < 0 || c.FreshnessGate > 1 {
		return fmt.Errorf("catalog: freshness_gate must be within [0,1], got %v", c.FreshnessGate)
	}
	return nil
}
