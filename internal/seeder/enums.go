package seeder

import (
	"fmt"

	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

// knownValuesFile is the shape of <helperRoot>/<category>/_generated/known_values.json.
type knownValuesFile struct {
	Enums map[string]enumSpec `json:"enums"`
}

type enumSpec struct {
	Policy string   `json:"policy"`
	Values []string `json:"values"`
}

func (sd *Seeder) knownValuesKey(category string) string {
	return sd.helperFiles.ResolveOutputKey(category, "_generated", "known_values.json")
}

// seedEnumKnownValues loads the category's known-values file and ensures
// every named enum list and value exists. Returns the count of list values
// processed.
func (sd *Seeder) seedEnumKnownValues(category string) (int, error) {
	var file knownValuesFile
	ok, err := sd.helperFiles.ReadJSONOrNull(sd.knownValuesKey(category), &file)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	count := 0
	for fieldKey, spec := range file.Enums {
		for _, value := range spec.Values {
			if _, err := sd.store.UpsertListValue(store.ListValue{
				Category: category,
				FieldKey: fieldKey,
				Value:    value,
				Policy:   spec.Policy,
			}); err != nil {
				return count, fmt.Errorf("upsert list value %s=%s: %w", fieldKey, value, err)
			}
			count++
		}
	}
	return count, nil
}

// enumSuggestionsFile is the shape of <helperRoot>/<category>/_suggestions/enums.json:
// pipeline-proposed additions to a controlled vocabulary, seeded the same
// way as known values but without a policy of their own: a value already
// stored keeps its policy, and a new value gets policy "open". The policies
// of the list's other values are not consulted.
type enumSuggestionsFile struct {
	Suggestions map[string][]string `json:"suggestions"`
}

func (sd *Seeder) enumSuggestionsKey(category string) string {
	return sd.helperFiles.ResolveOutputKey(category, "_suggestions", "enums.json")
}

func (sd *Seeder) seedEnumSuggestions(category string) (int, error) {
	var file enumSuggestionsFile
	ok, err := sd.helperFiles.ReadJSONOrNull(sd.enumSuggestionsKey(category), &file)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	count := 0
	for fieldKey, values := range file.Suggestions {
		for _, value := range values {
			policy := "open"
			existing, found, err := sd.store.LookupListValue(category, fieldKey, value)
			if err != nil {
				return count, fmt.Errorf("look up suggested value %s=%s: %w", fieldKey, value, err)
			}
			if found && existing.Value == value {
				policy = existing.Policy
			}
			if _, err := sd.store.UpsertListValue(store.ListValue{
				Category: category,
				FieldKey: fieldKey,
				Value:    value,
				Policy:   policy,
			}); err != nil {
				return count, fmt.Errorf("upsert suggested value %s=%s: %w", fieldKey, value, err)
			}
			count++
		}
	}
	return count, nil
}
