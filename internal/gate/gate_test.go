package gate

import (
	"testing"
	"time"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

func completeProvenance(snippetID, host string) model.Provenance {
	return model.Provenance{
		URL: "https://" + host + "/p", Host: host, Method: "css_selector",
		SnippetID: snippetID, SnippetHash: "abc123", Quote: "54g", SourceID: "src1",
		RetrievedAt: time.Now(),
	}
}

func TestMixedEvidenceAudit(t *testing.T) {
	engine := MapEngine{
		"weight": FieldContract{Field: "weight", Type: TypeNumber},
		"sensor": FieldContract{Field: "sensor", Type: TypeString},
	}

	weightProv := completeProvenance("snip-weight", "example.com")
	fields := map[string]FieldInput{
		"weight": {Value: "54", Provenance: weightProv},
		"sensor": {Value: "Focus Pro 4K", Provenance: model.Provenance{}},
	}

	pack := model.NewEvidencePack(weightProv)

	result := Run(engine, fields, []string{"weight", "sensor"}, true, pack)

	if result.Fields["weight"].Value != "54" {
		t.Fatalf("expected weight to survive, got %q", result.Fields["weight"].Value)
	}
	if result.Fields["sensor"].Value != model.Unknown {
		t.Fatalf("expected sensor to be zeroed, got %q", result.Fields["sensor"].Value)
	}

	evidenceFailures := 0
	for _, f := range result.Failures {
		if f.Field == "sensor" && f.Stage == stageEvidence {
			evidenceFailures++
		}
		if f.Field == "weight" {
			t.Fatalf("did not expect any failure for weight, got %+v", f)
		}
	}
	if evidenceFailures != 1 {
		t.Fatalf("expected exactly one evidence failure for sensor, got %d", evidenceFailures)
	}
}

func TestEnforceEvidenceWithEmptyPackZeroesEverything(t *testing.T) {
	engine := MapEngine{
		"weight": FieldContract{Field: "weight", Type: TypeNumber},
		"sensor": FieldContract{Field: "sensor", Type: TypeString},
	}
	fields := map[string]FieldInput{
		"weight": {Value: "54", Provenance: completeProvenance("s1", "h")},
		"sensor": {Value: "Focus Pro 4K", Provenance: completeProvenance("s2", "h")},
	}

	result := Run(engine, fields, []string{"weight", "sensor"}, true, model.NewEvidencePack())

	for _, field := range []string{"weight", "sensor"} {
		if result.Fields[field].Value != model.Unknown {
			t.Errorf("expected %s to be zeroed with empty evidence pack, got %q", field, result.Fields[field].Value)
		}
	}

	evidenceFailures := 0
	for _, f := range result.Failures {
		if f.Stage == stageEvidence {
			evidenceFailures++
		}
	}
	if evidenceFailures != 2 {
		t.Fatalf("expected one evidence failure per field, got %d", evidenceFailures)
	}
}

func TestNormalizeFailureDoesNotDoubleReportEvidence(t *testing.T) {
	engine := MapEngine{"weight": FieldContract{Field: "weight", Type: TypeNumber, Evidence: EvidenceRequirement{Required: true}}}
	fields := map[string]FieldInput{"weight": {Value: "not-a-number", Provenance: completeProvenance("s1", "h")}}

	result := Run(engine, fields, []string{"weight"}, false, model.NewEvidencePack(completeProvenance("s1", "h")))

	if result.Fields["weight"].Value != model.Unknown {
		t.Fatalf("expected unparseable value to become unk")
	}
	if len(result.Failures) != 1 || result.Failures[0].Stage != stageNormalize {
		t.Fatalf("expected exactly one normalize failure, got %+v", result.Failures)
	}
}

func TestCrossValidateRange(t *testing.T) {
	min, max := 0.0, 100.0
	engine := MapEngine{"weight": FieldContract{Field: "weight", Type: TypeNumber, Range: NumericRange{Min: &min, Max: &max}}}
	fields := map[string]FieldInput{"weight": {Value: "500"}}

	result := Run(engine, fields, []string{"weight"}, false, nil)
	if result.Fields["weight"].Value != model.Unknown {
		t.Fatalf("expected out-of-range value to be zeroed")
	}
	if len(result.Failures) != 1 || result.Failures[0].Stage != stageCrossValidate {
		t.Fatalf("expected cross_validate failure, got %+v", result.Failures)
	}
}

func TestClosedEnumRejectsUnknownMember(t *testing.T) {
	engine := MapEngine{"connectivity": FieldContract{
		Field: "connectivity", Type: TypeEnum, EnumPolicy: EnumClosed,
		EnumCanonical: map[string]struct{}{"wired": {}, "wireless": {}},
	}}
	fields := map[string]FieldInput{"connectivity": {Value: "bluetooth"}}

	result := Run(engine, fields, []string{"connectivity"}, false, nil)
	if result.Fields["connectivity"].Value != model.Unknown {
		t.Fatalf("expected unknown enum member to be zeroed")
	}
}

func TestFieldWithNoContractPassesThrough(t *testing.T) {
	engine := MapEngine{}
	fields := map[string]FieldInput{"mystery": {Value: "whatever"}}
	result := Run(engine, fields, []string{"mystery"}, false, nil)
	if result.Fields["mystery"].Value != "whatever" {
		t.Fatalf("expected field with no contract to pass through unchanged")
	}
	if len(result.Failures) != 0 {
		t.Fatalf("expected no failures for uncontracted field")
	}
}
