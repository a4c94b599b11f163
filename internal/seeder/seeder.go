// Package seeder implements idempotent population of the Store from
// external JSON artifacts (spec.md §6 "Seed input layout"): component
// databases and overrides, enum known values, and per-product candidates
// and overrides. Missing paths are treated as empty collections, not
// errors; per-product failures are collected and the run continues
// (spec.md §7 propagation policy: "the Seeder aggregates per-product
// errors into an errors array and continues").
package seeder

import (
	"fmt"

	"github.com/CdubVentures/spec-harvester-sub006/internal/logging"
	"github.com/CdubVentures/spec-harvester-sub006/internal/objectstore"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

// Seeder wires a Store and a storage Handle rooted at the configured
// helper-files and output roots.
type Seeder struct {
	store        *store.Store
	helperFiles  *objectstore.Handle
	localOutput  *objectstore.Handle
}

// New builds a Seeder. helperFiles and localOutput are independent handles
// because they are typically rooted at different directories
// (config.Config.HelperFilesRoot and config.Config.LocalOutputRoot).
func New(s *store.Store, helperFiles, localOutput *objectstore.Handle) *Seeder {
	return &Seeder{store: s, helperFiles: helperFiles, localOutput: localOutput}
}

// Result aggregates a category seeding run's counts and per-product errors.
type Result struct {
	ComponentsSeeded      int
	ComponentOverrides    int
	EnumsSeeded           int
	ProductsWithCandidates int
	ProductsWithOverrides int
	Errors                []string
}

// SeedCategory runs every seed step for category against the configured
// component types, and every product id the caller names. It never returns
// an error itself: per-product and per-file failures are collected into
// Result.Errors so the run completes.
func (sd *Seeder) SeedCategory(category string, componentTypes []string, productIDs []string) Result {
	log := logging.For(logging.ComponentSeeder)
	var result Result

	for _, ct := range componentTypes {
		n, err := sd.seedComponentDB(category, ct)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("component db %s/%s: %v", category, ct, err))
			continue
		}
		result.ComponentsSeeded += n
	}

	overrideCount, err := sd.seedComponentOverrides(category)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("component overrides %s: %v", category, err))
	}
	result.ComponentOverrides = overrideCount

	enumCount, err := sd.seedEnumKnownValues(category)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("enum known values %s: %v", category, err))
	}
	suggestionCount, err := sd.seedEnumSuggestions(category)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("enum suggestions %s: %v", category, err))
	}
	result.EnumsSeeded = enumCount + suggestionCount

	for _, productID := range productIDs {
		if n, err := sd.seedProductCandidates(category, productID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("candidates %s/%s: %v", category, productID, err))
		} else if n > 0 {
			result.ProductsWithCandidates++
		}

		if applied, err := sd.seedProductOverrides(category, productID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("overrides %s/%s: %v", category, productID, err))
		} else if applied > 0 {
			result.ProductsWithOverrides++
		}
	}

	log.Sugar().Infow("seed run complete", "category", category,
		"components", result.ComponentsSeeded, "overrides", result.ComponentOverrides,
		"enums", result.EnumsSeeded, "errors", len(result.Errors))
	return result
}
