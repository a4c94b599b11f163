package gate

import (
	"strconv"
	"strings"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// Change is one stage's mutation of a field's value (spec.md §4.2).
type Change struct {
	Field  string
	Stage  string
	Before string
	After  string
	Reason string
}

// Failure is one stage's rejection of a field's value.
type Failure struct {
	Field  string
	Stage  string
	Reason string
}

const (
	stageNormalize     = "normalize"
	stageCrossValidate = "cross_validate"
	stageEvidence      = "evidence"
)

// Result is the gate's full output for one field batch.
type Result struct {
	Fields   map[string]FieldInput
	Failures []Failure
	Changes  []Change
}

// Run executes the pipeline of spec.md §4.2 over fields in fieldOrder,
// producing normalized fields plus an ordered changes/failures log. It
// never performs I/O; every input (contract engine, evidence pack) is
// supplied by the caller.
func Run(engine Engine, fields map[string]FieldInput, fieldOrder []string, enforceEvidence bool, evidencePack *model.EvidencePack) Result {
	out := Result{Fields: make(map[string]FieldInput, len(fields))}

	for _, field := range fieldOrder {
		input, present := fields[field]
		if !present {
			continue
		}

		contract, hasContract := engine.Contract(field)
		if !hasContract {
			out.Fields[field] = input
			continue
		}

		zeroedAlready := false

		// Stage 1: normalize.
		normalized, ok, reason := normalize(contract, input.Value)
		if !ok {
			out.Changes = append(out.Changes, Change{Field: field, Stage: stageNormalize, Before: input.Value, After: model.Unknown, Reason: reason})
			out.Failures = append(out.Failures, Failure{Field: field, Stage: stageNormalize, Reason: reason})
			input.Value = model.Unknown
			zeroedAlready = true
		} else if normalized != input.Value {
			out.Changes = append(out.Changes, Change{Field: field, Stage: stageNormalize, Before: input.Value, After: normalized, Reason: "coerced to contract type/shape"})
			input.Value = normalized
		}

		// Stage 2: cross-validate.
		if !zeroedAlready {
			ok, reason := crossValidate(contract, input)
			if !ok {
				out.Changes = append(out.Changes, Change{Field: field, Stage: stageCrossValidate, Before: input.Value, After: model.Unknown, Reason: reason})
				out.Failures = append(out.Failures, Failure{Field: field, Stage: stageCrossValidate, Reason: reason})
				input.Value = model.Unknown
				zeroedAlready = true
			}
		}

		// Stage 3: evidence audit.
		requireEvidence := enforceEvidence || contract.Evidence.Required
		if requireEvidence && !zeroedAlready {
			ok, reason := auditEvidence(input.Provenance, evidencePack)
			if !ok {
				out.Changes = append(out.Changes, Change{Field: field, Stage: stageEvidence, Before: input.Value, After: model.Unknown, Reason: reason})
				out.Failures = append(out.Failures, Failure{Field: field, Stage: stageEvidence, Reason: reason})
				input.Value = model.Unknown
			}
		}

		out.Fields[field] = input
	}

	return out
}

// normalize coerces raw to contract's type/shape. Returns ok=false if the
// value cannot be coerced at all (spec.md §4.2 step 1).
func normalize(contract FieldContract, raw string) (value string, ok bool, reason string) {
	if model.IsUnknown(raw) {
		return model.Unknown, true, ""
	}

	switch contract.Type {
	case TypeNumber:
		n, parsed := model.ParseNumber(raw)
		if !parsed {
			return "", false, "could not parse numeric value"
		}
		formatted := strconv.FormatFloat(n, 'f', -1, 64)
		if contract.Unit != "" {
			// Unit is stripped by ParseNumber already; formatted is unit-free.
			return formatted, true, ""
		}
		return formatted, true, ""

	case TypeEnum:
		trimmed := strings.TrimSpace(raw)
		if canonical, ok := contract.EnumAliases[strings.ToLower(trimmed)]; ok {
			return canonical, true, ""
		}
		return trimmed, true, ""

	case TypeList:
		tokens := model.SplitList(raw)
		if len(tokens) == 0 {
			return "", false, "list field produced no tokens"
		}
		return strings.Join(tokens, ","), true, ""

	case TypeComponentReference:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return "", false, "empty component reference"
		}
		return trimmed, true, ""

	default: // TypeString, or contract with no declared type
		return strings.TrimSpace(raw), true, ""
	}
}

// crossValidate applies numeric range checks and enum policy
// (spec.md §4.2 step 2).
func crossValidate(contract FieldContract, input FieldInput) (ok bool, reason string) {
	if model.IsUnknown(input.Value) {
		return true, ""
	}

	switch contract.Type {
	case TypeNumber:
		n, parsed := model.ParseNumber(input.Value)
		if !parsed {
			return false, "value is not numeric at cross-validate"
		}
		if contract.Range.Min != nil && n < *contract.Range.Min {
			return false, "value below configured minimum"
		}
		if contract.Range.Max != nil && n > *contract.Range.Max {
			return false, "value above configured maximum"
		}
		return true, ""

	case TypeEnum:
		if contract.EnumPolicy == EnumClosed {
			if contract.EnumCanonical == nil {
				return false, "closed enum has no known canonical values"
			}
			if _, known := contract.EnumCanonical[input.Value]; !known {
				return false, "value is not a known canonical enum member"
			}
			return true, ""
		}
		// Open policy: accept, but require a confidence floor if configured.
		if contract.OpenConfidenceThreshold > 0 && input.Confidence < contract.OpenConfidenceThreshold {
			return false, "open enum value below confidence threshold"
		}
		return true, ""

	default:
		return true, ""
	}
}

// auditEvidence verifies that provenance names a snippet id and host
// present in evidencePack and carries the full verifiable metadata set
// (spec.md §4.2 step 3).
func auditEvidence(p model.Provenance, pack *model.EvidencePack) (ok bool, reason string) {
	if !p.HasVerifiableFields() {
		return false, "provenance missing required evidence metadata"
	}
	if !pack.Contains(p.SnippetID, p.Host) {
		return false, "provenance snippet not present in evidence pack"
	}
	return true, ""
}
