// Package gate implements the Runtime Gate of spec.md §4.2: a pure,
// non-suspending pipeline that normalizes candidate field values against
// per-field contracts, optionally enforces an evidence audit, and records
// every mutation it makes.
package gate

import "github.com/CdubVentures/spec-harvester-sub006/internal/model"

// FieldType is the contract's declared value type.
type FieldType string

const (
	TypeNumber             FieldType = "number"
	TypeString             FieldType = "string"
	TypeEnum               FieldType = "enum"
	TypeList               FieldType = "list"
	TypeComponentReference FieldType = "component_reference"
)

// Shape is whether a field holds one value or many.
type Shape string

const (
	ShapeScalar Shape = "scalar"
	ShapeList   Shape = "list"
)

// RequiredLevel names how strongly a field is expected to be present.
// Spec.md does not enumerate its members. It is carried on FieldContract
// only: no gate stage and no other package reads it.
type RequiredLevel string

const (
	RequiredNone     RequiredLevel = "none"
	RequiredOptional RequiredLevel = "optional"
	RequiredCritical RequiredLevel = "critical"
)

// NumericRange bounds a number-typed field's cross-validation.
type NumericRange struct {
	Min *float64
	Max *float64
}

// EvidenceRequirement names a field's own evidence-audit contract
// (spec.md §4.2 step 3).
type EvidenceRequirement struct {
	Required       bool
	MinEvidenceRefs int
}

// EnumPolicy controls whether an enum field accepts values outside its
// known list.
type EnumPolicy string

const (
	EnumClosed EnumPolicy = "closed"
	EnumOpen   EnumPolicy = "open"
)

// FieldContract is one field's full validation contract.
type FieldContract struct {
	Field           string
	Type            FieldType
	Shape           Shape
	Unit            string
	Range           NumericRange
	RequiredLevel   RequiredLevel
	Evidence        EvidenceRequirement
	EnumPolicy      EnumPolicy
	EnumCanonical   map[string]struct{} // known canonical values, for closed enums
	EnumAliases     map[string]string   // alias -> canonical, for normalize stage
	OpenConfidenceThreshold float64     // min confidence to accept an open-enum value
}

// Engine exposes the per-field contracts the gate validates against
// (spec.md §4.2 "The engine exposes per-field contracts").
type Engine interface {
	Contract(field string) (FieldContract, bool)
}

// MapEngine is the simplest Engine: a static map of field -> contract,
// typically loaded once per category from seed data.
type MapEngine map[string]FieldContract

// Contract implements Engine.
func (m MapEngine) Contract(field string) (FieldContract, bool) {
	c, ok := m[field]
	return c, ok
}

// FieldInput is one field's raw value plus the confidence score and
// provenance it arrived with.
type FieldInput struct {
	Value      string
	Confidence float64
	Provenance model.Provenance
}
