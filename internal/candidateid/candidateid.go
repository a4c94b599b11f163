// Package candidateid builds the deterministic candidate identifiers named
// in spec.md §6. Every constructor is a pure function of its inputs: the
// same attributes always produce the same id, and changing any attribute
// changes the id. Ids are content-hashed rather than randomly generated so
// re-running a seed or a re-extraction over identical inputs produces the
// same row instead of a duplicate (spec.md R4).
package candidateid

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0}) // separator, prevents "ab"+"c" colliding with "a"+"bc"
	}
	return hex.EncodeToString(h.Sum(nil))[:24]
}

// ScopedItem builds the id for a candidate observed during a normal
// extraction run. If rawCandidateID is non-empty it is used directly as the
// disambiguating input (the extractor already produced a stable id);
// otherwise the fallback tuple (value, host, method, index, runID) is used.
func ScopedItem(productID, fieldKey, rawCandidateID string, value, sourceHost, sourceMethod string, index int, runID string) string {
	disambiguator := rawCandidateID
	if disambiguator == "" {
		disambiguator = strings.Join([]string{value, sourceHost, sourceMethod, strconv.Itoa(index), runID}, "\x1f")
	}
	return "item-source_" + digest(productID, fieldKey, disambiguator)
}

// ManualOverrideItem builds the id for a human-entered override candidate.
func ManualOverrideItem(category, productID, fieldKey, value, evidenceURL, evidenceQuote string) string {
	return "manual-item_" + digest(category, productID, fieldKey, value, evidenceURL, evidenceQuote)
}

// WorkbookFieldOverrideItem builds the id for an override sourced from a
// seed workbook rather than a human reviewer.
func WorkbookFieldOverrideItem(productID, fieldKey, value string) string {
	return "wb-item_" + digest(productID, fieldKey, value)
}

// SyntheticGridItem builds the id for a value synthesized directly onto the
// Item Field State grid (no candidate-level provenance).
func SyntheticGridItem(productID, fieldKey, value string) string {
	return "pl-grid_" + digest(productID, fieldKey, value)
}

// SyntheticGridAttribute builds the id for a synthetic value scoped to one
// named attribute of a field (spec.md §6).
func SyntheticGridAttribute(productID, fieldKey, attributeKey, value string) string {
	return "pl-grid-attr_" + digest(productID, fieldKey, attributeKey, value)
}

// SyntheticComponent builds the id for a value synthesized onto a Component
// Value row rather than an Item Field State.
func SyntheticComponent(componentType, componentName, propertyKey, value string) string {
	return "pl-component_" + digest(componentType, componentName, propertyKey, value)
}

// PipelineEnum builds the id for a candidate asserting an Enum List value.
func PipelineEnum(fieldKey, value string) string {
	return "pl-enum_" + digest(fieldKey, value)
}
