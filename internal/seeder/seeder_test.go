package seeder

import (
	"testing"

	"github.com/CdubVentures/spec-harvester-sub006/internal/objectstore"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

func newTestSeeder(t *testing.T) (*Seeder, *objectstore.Handle, *objectstore.Handle) {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	helper := objectstore.New(t.TempDir())
	output := objectstore.New(t.TempDir())
	return New(s, helper, output), helper, output
}

func TestSeedComponentDBCreatesIdentityAliasAndValue(t *testing.T) {
	sd, helper, _ := newTestSeeder(t)

	componentDB := `{
		"component_type": "sensor",
		"entries": {
			"hero2": {
				"canonical_name": "hero2",
				"maker": "logitech",
				"aliases": ["HERO 2.0"],
				"properties": {"dpi_max": "25600"},
				"__variance_policies": {"dpi_max": "upper_bound"}
			}
		}
	}`
	helper.WriteObject("mouse/_generated/component_db/sensor.json", []byte(componentDB), "application/json")

	n, err := sd.seedComponentDB("mouse", "sensor")
	if err != nil {
		t.Fatalf("seed component db: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 identity processed, got %d", n)
	}

	id, ok, err := sd.store.FindComponentIdentityByAlias("mouse", "sensor", "HERO 2.0")
	if err != nil || !ok {
		t.Fatalf("expected alias to resolve, got ok=%v err=%v", ok, err)
	}
	if id == 0 {
		t.Fatalf("expected a non-zero identity id")
	}
}

func TestSeedProductCandidatesIsIdempotent(t *testing.T) {
	sd, _, output := newTestSeeder(t)

	candidatesJSON := `{
		"weight_g": [
			{"value": "60", "score": 0.9, "rank": 1, "source_host": "example.com", "source_method": "css_selector"}
		]
	}`
	output.WriteObject("mouse/p1/latest/candidates.json", []byte(candidatesJSON), "application/json")

	n1, err := sd.seedProductCandidates("mouse", "p1")
	if err != nil {
		t.Fatalf("first seed: %v", err)
	}
	n2, err := sd.seedProductCandidates("mouse", "p1")
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if n1 != 1 || n2 != 1 {
		t.Fatalf("expected 1 candidate processed each time, got %d then %d", n1, n2)
	}

	rows, err := sd.store.CandidatesByProductField("mouse", "p1", "weight_g")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("R4: expected reseeding identical inputs to leave a single row, got %d", len(rows))
	}
}

func TestSeedProductOverridesAppliesManualValue(t *testing.T) {
	sd, helper, _ := newTestSeeder(t)

	overridesJSON := `{
		"overrides": {
			"weight_g": {"override_value": "58", "override_provenance": {"url": "https://example.com/p1", "quote": "58g"}}
		}
	}`
	helper.WriteObject("mouse/_overrides/p1.overrides.json", []byte(overridesJSON), "application/json")

	applied, err := sd.seedProductOverrides("mouse", "p1")
	if err != nil {
		t.Fatalf("seed overrides: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 override applied, got %d", applied)
	}

	f, ok, err := sd.store.ItemFieldStateByKey("mouse", "p1", "weight_g")
	if err != nil || !ok {
		t.Fatalf("expected field state to exist, got ok=%v err=%v", ok, err)
	}
	if f.Value != "58" || !f.Overridden {
		t.Fatalf("unexpected field state: %+v", f)
	}
}

func TestSeedCategoryMissingPathsAreEmptyNotErrors(t *testing.T) {
	sd, _, _ := newTestSeeder(t)
	result := sd.SeedCategory("mouse", []string{"sensor"}, []string{"p1"})
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors for entirely missing seed inputs, got %v", result.Errors)
	}
}
