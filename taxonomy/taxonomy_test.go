package taxonomy_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/warp/swipe-engine/taxonomy"
)

func TestDefaults_Exclusions(t *testing.T) {
	// GIVEN: The compiled-in taxonomy
	// WHEN: Checking typical categories
	// THEN: Issuer-excluded categories are flagged, case-insensitively

	tax := taxonomy.Defaults()

	for _, excluded := range []string{"Rent", "rent", "RENT", "Insurance", "EMI"} {
		if !tax.IsExcluded(excluded) {
			t.Errorf("expected %q to be excluded", excluded)
		}
	}
	for _, rewarded := range []string{"Dining", "Groceries", "Fuel", ""} {
		if tax.IsExcluded(rewarded) {
			t.Errorf("expected %q to be rewarded", rewarded)
		}
	}
}

func TestDefaults_Aliases(t *testing.T) {
	tax := taxonomy.Defaults()

	cases := map[string]string{
		"Bill Payments": "Utilities",
		"bill payments": "Utilities",
		"Food":          "Dining",
		"Petrol":        "Fuel",
		"Dining":        "Dining",    // canonical names pass through
		"Jewellery":     "Jewellery", // unknown names pass through
	}
	for in, want := range cases {
		if got := tax.Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_File(t *testing.T) {
	// GIVEN: A taxonomy file with custom exclusions and aliases
	// WHEN: Loading it
	// THEN: The file contents fully replace the defaults

	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	content := `
categories:
  - name: Gift Cards
    excluded_from_rewards: true
  - name: Dining
aliases:
  Takeout: Dining
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write taxonomy file: %v", err)
	}

	tax := taxonomy.Load(path)

	if !tax.IsExcluded("gift cards") {
		t.Error("expected file exclusion to apply")
	}
	if tax.IsExcluded("Dining") {
		t.Error("non-excluded category must not be flagged")
	}
	if tax.IsExcluded("Rent") {
		t.Error("defaults must not leak into a loaded taxonomy")
	}
	if got := tax.Canonical("takeout"); got != "Dining" {
		t.Errorf("expected alias from file, got %q", got)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	tax := taxonomy.Load(filepath.Join(t.TempDir(), "nope.yaml"))

	if !tax.IsExcluded("Rent") {
		t.Error("expected default exclusions after failed load")
	}
}

func TestLoad_MalformedFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("categories: [unclosed"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tax := taxonomy.Load(path)

	if !tax.IsExcluded("Rent") {
		t.Error("expected default exclusions after malformed load")
	}
	if got := tax.Canonical("Bill Payments"); got != "Utilities" {
		t.Errorf("expected default aliases, got %q", got)
	}
}
