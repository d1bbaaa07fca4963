/*
Package taxonomy supplies the static category taxonomy the reward engine
consults: which categories are globally excluded from rewards, and an alias
map resolving synonym strings to canonical category names.

The taxonomy loads from a YAML file:

    categories:
      - name: Rent
        excluded_from_rewards: true
      - name: Dining
    aliases:
      Bills: Utilities
      Bill Payments: Utilities

Reward calculation must stay available even when this configuration is
missing or unreadable, so loading degrades to a compiled-in default set
instead of propagating failure.
*/
package taxonomy

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Taxonomy answers exclusion and alias lookups. Lookups are case-insensitive.
// It implements the engine's Taxonomy contract.
type Taxonomy struct {
	excluded map[string]bool
	aliases  map[string]string // lowercased synonym -> canonical name
}

// defaultExclusions mirrors the issuer-policy categories that earn nothing
// on effectively every card.
var defaultExclusions = []string{
	"Rent",
	"Wallet & Prepaid Loads",
	"Insurance",
	"Government Services",
	"EMI",
	"Interest",
	"Cash Advance",
}

var defaultAliases = map[string]string{
	"Bills":         "Utilities",
	"Bill Payments": "Utilities",
	"Food":          "Dining",
	"Restaurants":   "Dining",
	"Grocery":       "Groceries",
	"Supermarket":   "Groceries",
	"Petrol":        "Fuel",
	"Gas":           "Fuel",
}

type fileFormat struct {
	Categories []struct {
		Name     string `yaml:"name"`
		Excluded bool   `yaml:"excluded_from_rewards"`
	} `yaml:"categories"`
	Aliases map[string]string `yaml:"aliases"`
}

// Load reads the taxonomy from path. Any failure (missing file, bad YAML)
// yields the built-in defaults.
func Load(path string) *Taxonomy {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Defaults()
	}
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Defaults()
	}

	t := &Taxonomy{
		excluded: make(map[string]bool),
		aliases:  make(map[string]string),
	}
	for _, c := range f.Categories {
		if c.Excluded {
			t.excluded[strings.ToLower(c.Name)] = true
		}
	}
	for synonym, canonical := range f.Aliases {
		t.aliases[strings.ToLower(synonym)] = canonical
	}
	return t
}

// Defaults returns the compiled-in taxonomy.
func Defaults() *Taxonomy {
	t := &Taxonomy{
		excluded: make(map[string]bool, len(defaultExclusions)),
		aliases:  make(map[string]string, len(defaultAliases)),
	}
	for _, name := range defaultExclusions {
		t.excluded[strings.ToLower(name)] = true
	}
	for synonym, canonical := range defaultAliases {
		t.aliases[strings.ToLower(synonym)] = canonical
	}
	return t
}

// IsExcluded reports whether the category earns zero rewards by policy.
func (t *Taxonomy) IsExcluded(category string) bool {
	return t.excluded[strings.ToLower(category)]
}

// Canonical resolves a synonym to its canonical category name, returning the
// input unchanged when no alias exists.
func (t *Taxonomy) Canonical(category string) string {
	if canonical, ok := t.aliases[strings.ToLower(category)]; ok {
		return canonical
	}
	return category
}
