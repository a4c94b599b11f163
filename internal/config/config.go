// Package config loads the core's runtime options (spec.md §6
// "Configuration"). Grounded on theRebelliousNerd-codenerd's
// internal/config/config.go: a root struct of nested per-concern structs,
// a DefaultConfig() constructor, YAML-decoded and then overridable.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CascadeConfig controls the constraint evaluator's handling of the open
// question in spec.md §9 ("Whether this is desired... is left open; do not
// guess — surface it as a configuration flag if implementing").
type CascadeConfig struct {
	// TreatMissingOperandAsViolation is decoded from YAML (default false),
	// but nothing reads it: Store.EvaluateConstraints takes no config and
	// always skips an expression with an unknown operand, whatever this
	// flag says.
	TreatMissingOperandAsViolation bool `yaml:"treat_missing_operand_as_violation"`
}

// DynamicFetchEntry is a single per-host override in DynamicFetchPolicyMap
// (spec.md §6). A zero value on PerHostDelayMs or PageGotoTimeoutMs means
// "inherit the global default for that field".
type DynamicFetchEntry struct {
	PerHostDelayMs    int64 `yaml:"per_host_delay_ms"`
	PageGotoTimeoutMs int64 `yaml:"page_goto_timeout_ms"`
}

// Config is the core's full set of recognized options (spec.md §6).
type Config struct {
	HelperFilesRoot string `yaml:"helper_files_root"`
	LocalOutputRoot string `yaml:"local_output_root"`
	QueueJSONWrite  bool   `yaml:"queue_json_write"`

	FrontierCooldown429BaseSeconds int `yaml:"frontier_cooldown_429_base_seconds"`
	FrontierCooldown403BaseSeconds int `yaml:"frontier_cooldown_403_base_seconds"`

	PerHostMinDelayMs  int64 `yaml:"per_host_min_delay_ms"`
	PageGotoTimeoutMs  int64 `yaml:"page_goto_timeout_ms"`

	DynamicFetchPolicyMap map[string]DynamicFetchEntry `yaml:"dynamic_fetch_policy_map"`

	Cascade CascadeConfig `yaml:"cascade"`
}

// Default returns the option defaults named in spec.md §6.
func Default() *Config {
	return &Config{
		HelperFilesRoot:                 "helper_files",
		LocalOutputRoot:                 "out",
		QueueJSONWrite:                  false,
		FrontierCooldown429BaseSeconds:  60,
		FrontierCooldown403BaseSeconds:  60,
		PerHostMinDelayMs:               900,
		PageGotoTimeoutMs:               30000,
		DynamicFetchPolicyMap:           map[string]DynamicFetchEntry{},
	}
}

// Load reads a YAML config file at path, merging it over Default(). A
// missing file is not an error: it returns the defaults unchanged,
// matching the Seeder's "missing paths are empty collections, not errors"
// convention applied to configuration.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ResolvedFetchPolicy is the effective per-host pacing/timeout policy after
// resolving DynamicFetchPolicyMap overrides and inheriting global defaults
// for any zero-valued field.
type ResolvedFetchPolicy struct {
	PerHostDelayMs    int64
	PageGotoTimeoutMs int64
}

// FetchPolicyFor resolves the effective policy for host, falling back to
// the closest registered parent domain when host itself has no entry
// (spec.md §6 "subdomain lookups fall back to the closest registered
// parent domain").
func (c *Config) FetchPolicyFor(host string) ResolvedFetchPolicy {
	resolved := ResolvedFetchPolicy{
		PerHostDelayMs:    c.PerHostMinDelayMs,
		PageGotoTimeoutMs: c.PageGotoTimeoutMs,
	}

	entry, ok := c.lookupDynamicEntry(host)
	if !ok {
		return resolved
	}
	if entry.PerHostDelayMs != 0 {
		resolved.PerHostDelayMs = entry.PerHostDelayMs
	}
	if entry.PageGotoTimeoutMs != 0 {
		resolved.PageGotoTimeoutMs = entry.PageGotoTimeoutMs
	}
	return resolved
}

func (c *Config) lookupDynamicEntry(host string) (DynamicFetchEntry, bool) {
	if e, ok := c.DynamicFetchPolicyMap[host]; ok {
		return e, true
	}
	for _, parent := range candidateParents(host) {
		if e, ok := c.DynamicFetchPolicyMap[parent]; ok {
			return e, true
		}
	}
	return DynamicFetchEntry{}, false
}
