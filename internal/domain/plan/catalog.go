package plan

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Promo code granting a fresh 5-day free trial at zero cost (case-insensitive)
const (
	PromoCode      = "ofertamdf"
	PromoTrialDays = 5
)

// CatalogEntry describes one purchasable tier
type CatalogEntry struct {
	Tier        Tier   `yaml:"tier" json:"tier"`
	Name        string `yaml:"name" json:"name"`
	PriceCents  int64  `yaml:"price_cents" json:"price_cents"`
	Currency    string `yaml:"currency" json:"currency"`
	AgentLimit  int    `yaml:"agent_limit" json:"agent_limit"`
	TrialDays   int    `yaml:"trial_days,omitempty" json:"trial_days,omitempty"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is the set of purchasable tiers
type Catalog struct {
	entries map[Tier]CatalogEntry
	ordered []CatalogEntry
}

type catalogFile struct {
	Plans []CatalogEntry `yaml:"plans"`
}

// LoadCatalog loads the plan catalog. When path is empty the embedded default
// is used; otherwise the file at path overrides it entirely.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read plan catalog %s: %w", path, err)
		}
		data = b
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}
	if len(f.Plans) == 0 {
		return nil, fmt.Errorf("plan catalog is empty")
	}

	c := &Catalog{entries: make(map[Tier]CatalogEntry, len(f.Plans))}
	for _, e := range f.Plans {
		if !e.Tier.Valid() {
			return nil, fmt.Errorf("plan catalog has unknown tier %d", e.Tier)
		}
		if e.AgentLimit < 1 {
			return nil, fmt.Errorf("plan %q has invalid agent limit %d", e.Name, e.AgentLimit)
		}
		if _, dup := c.entries[e.Tier]; dup {
			return nil, fmt.Errorf("plan catalog has duplicate tier %d", e.Tier)
		}
		c.entries[e.Tier] = e
		c.ordered = append(c.ordered, e)
	}

	return c, nil
}

// Entry returns the catalog entry for a tier
func (c *Catalog) Entry(t Tier) (CatalogEntry, bool) {
	e, ok := c.entries[t]
	return e, ok
}

// List returns the entries in catalog order
func (c *Catalog) List() []CatalogEntry {
	out := make([]CatalogEntry, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// IsPromoCode reports whether code matches the promo code, case-insensitively
func IsPromoCode(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), PromoCode)
}
