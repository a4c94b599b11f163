package model

import "time"

// Provenance is the full source chain a Candidate or Source Assertion
// carries (spec.md §3 "Candidate", §4.2 evidence audit fields).
type Provenance struct {
	URL             string
	Host            string
	Tier            int
	Method          string // extraction method, e.g. "css_selector", "llm_extract"
	SnippetID       string
	SnippetHash     string
	Quote           string
	SourceID        string
	RetrievedAt     time.Time
}

// HasVerifiableFields reports whether p carries every field the Runtime
// Gate's evidence audit requires (spec.md §4.2 step 3): url, snippet id,
// quote, source id, snippet hash, retrieved-at, extraction method.
func (p Provenance) HasVerifiableFields() bool {
	return p.URL != "" &&
		p.SnippetID != "" &&
		p.Quote != "" &&
		p.SourceID != "" &&
		p.SnippetHash != "" &&
		!p.RetrievedAt.IsZero() &&
		p.Method != ""
}

// Candidate is an atomic assertion that a value was observed for a field of
// a product (spec.md §3 "Candidate").
type Candidate struct {
	CandidateID     string
	ProductID       string
	FieldKey        string
	Value           string
	Score           float64
	Rank            int
	Provenance      Provenance
	IsComponentField bool
	IsListField     bool
}

// EvidencePack is the set of verifiable snippets available to the Runtime
// Gate's evidence audit, keyed by (snippetID, host) so a field's provenance
// can be checked for membership in one lookup.
type EvidencePack struct {
	entries map[string]struct{}
}

// NewEvidencePack builds a pack from provenance entries considered
// verifiable by the caller (typically every Source Evidence Ref row
// fetched for the product's current run).
func NewEvidencePack(provs ...Provenance) *EvidencePack {
	p := &EvidencePack{entries: make(map[string]struct{})}
	for _, pv := range provs {
		p.Add(pv)
	}
	return p
}

// Add registers a provenance entry as present in the pack.
func (p *EvidencePack) Add(pv Provenance) {
	if p.entries == nil {
		p.entries = make(map[string]struct{})
	}
	p.entries[key(pv.SnippetID, pv.Host)] = struct{}{}
}

// Contains reports whether a (snippetID, host) pair is present in the pack.
func (p *EvidencePack) Contains(snippetID, host string) bool {
	if p == nil || p.entries == nil {
		return false
	}
	_, ok := p.entries[key(snippetID, host)]
	return ok
}

func key(snippetID, host string) string { return snippetID + "\x00" + host }
