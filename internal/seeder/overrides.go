package seeder

import (
	"fmt"

	"github.com/CdubVentures/spec-harvester-sub006/internal/candidateid"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

// productOverridesFile is the shape of
// <helperRoot>/<category>/_overrides/<product_id>.overrides.json.
type productOverridesFile struct {
	Overrides map[string]overrideEntry `json:"overrides"`
}

type overrideEntry struct {
	Value              string             `json:"value"`
	OverrideValue      string             `json:"override_value"`
	CandidateID        string             `json:"candidate_id"`
	Source             string             `json:"source"`
	OverrideProvenance *overrideProvenance `json:"override_provenance"`
}

type overrideProvenance struct {
	URL   string `json:"url"`
	Quote string `json:"quote"`
}

func (sd *Seeder) productOverridesKey(category, productID string) string {
	return sd.helperFiles.ResolveOutputKey(category, "_overrides", productID+".overrides.json")
}

// seedProductOverrides loads a product's manual field overrides and writes
// them as authoritative Item Field State rows with a deterministic
// manual-origin candidate id (spec.md §6 manual_override_item /
// workbook_field_override_item constructors), so a reseed of the same
// overrides file is idempotent (R4).
func (sd *Seeder) seedProductOverrides(category, productID string) (int, error) {
	var file productOverridesFile
	ok, err := sd.helperFiles.ReadJSONOrNull(sd.productOverridesKey(category, productID), &file)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	applied := 0
	for fieldKey, o := range file.Overrides {
		value := o.OverrideValue
		if value == "" {
			value = o.Value
		}

		candidateIDValue := o.CandidateID
		evidenceURL, evidenceQuote := "", ""
		if o.OverrideProvenance != nil {
			evidenceURL = o.OverrideProvenance.URL
			evidenceQuote = o.OverrideProvenance.Quote
		}
		if candidateIDValue == "" {
			if evidenceURL != "" || evidenceQuote != "" {
				candidateIDValue = candidateid.ManualOverrideItem(category, productID, fieldKey, value, evidenceURL, evidenceQuote)
			} else {
				candidateIDValue = candidateid.WorkbookFieldOverrideItem(productID, fieldKey, value)
			}
		}

		if _, err := sd.store.UpsertItemFieldState(store.ItemFieldState{
			Category:            category,
			ProductID:           productID,
			FieldKey:            fieldKey,
			Value:               value,
			Confidence:          1.0,
			AcceptedCandidateID: candidateIDValue,
			Overridden:          true,
		}); err != nil {
			return applied, fmt.Errorf("apply override %s: %w", fieldKey, err)
		}
		applied++
	}
	return applied, nil
}
