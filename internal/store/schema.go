package store

// createStatements are the base schema DDL, applied in order at startup
// (spec.md §4.1 "Schema initialization" step 1: "Creates all tables and
// indexes if missing"). Every statement is CREATE ... IF NOT EXISTS so
// repeated Open() calls against an existing file are no-ops, mirroring the
// teacher's migrations.go idempotent-migration discipline applied to
// table creation as well as column addition.
var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		product_id TEXT NOT NULL,
		brand TEXT,
		model TEXT,
		variant TEXT,
		seed_urls TEXT,
		status TEXT,
		UNIQUE(category, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS component_identities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		component_type TEXT NOT NULL,
		canonical_name TEXT NOT NULL,
		maker TEXT NOT NULL,
		review_status TEXT NOT NULL DEFAULT 'pending',
		aliases_overridden INTEGER NOT NULL DEFAULT 0,
		UNIQUE(category, component_type, canonical_name, maker)
	)`,
	`CREATE TABLE IF NOT EXISTS component_aliases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		identity_id INTEGER NOT NULL REFERENCES component_identities(id),
		alias TEXT NOT NULL,
		UNIQUE(identity_id, alias)
	)`,
	`CREATE TABLE IF NOT EXISTS component_values (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		component_type TEXT NOT NULL,
		canonical_name TEXT NOT NULL,
		maker TEXT NOT NULL,
		property_key TEXT NOT NULL,
		identity_id INTEGER REFERENCES component_identities(id),
		value TEXT,
		confidence REAL,
		variance_policy TEXT,
		constraints TEXT,
		needs_review INTEGER NOT NULL DEFAULT 0,
		overridden INTEGER NOT NULL DEFAULT 0,
		UNIQUE(category, component_type, canonical_name, maker, property_key)
	)`,
	`CREATE TABLE IF NOT EXISTS enum_lists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		field_key TEXT NOT NULL,
		UNIQUE(category, field_key)
	)`,
	`CREATE TABLE IF NOT EXISTS list_values (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		field_key TEXT NOT NULL,
		value TEXT NOT NULL,
		enum_list_id INTEGER REFERENCES enum_lists(id),
		normalized TEXT,
		policy TEXT,
		UNIQUE(category, field_key, value)
	)`,
	`CREATE TABLE IF NOT EXISTS candidates (
		candidate_id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		product_id TEXT NOT NULL,
		field_key TEXT NOT NULL,
		value TEXT,
		score REAL,
		rank INTEGER,
		source_url TEXT,
		source_host TEXT,
		source_tier INTEGER,
		source_method TEXT,
		snippet_id TEXT,
		snippet_hash TEXT,
		quote TEXT,
		source_id TEXT,
		retrieved_at TEXT,
		is_component_field INTEGER NOT NULL DEFAULT 0,
		is_list_field INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_candidates_product ON candidates(category, product_id)`,
	`CREATE INDEX IF NOT EXISTS idx_candidates_product_field ON candidates(category, product_id, field_key)`,
	`CREATE TABLE IF NOT EXISTS item_field_states (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		product_id TEXT NOT NULL,
		field_key TEXT NOT NULL,
		value TEXT,
		confidence REAL,
		accepted_candidate_id TEXT,
		overridden INTEGER NOT NULL DEFAULT 0,
		needs_ai_review INTEGER NOT NULL DEFAULT 0,
		ai_review_complete INTEGER NOT NULL DEFAULT 0,
		UNIQUE(category, product_id, field_key)
	)`,
	`CREATE TABLE IF NOT EXISTS item_component_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		product_id TEXT NOT NULL,
		field_key TEXT NOT NULL,
		identity_id INTEGER NOT NULL REFERENCES component_identities(id),
		match_type TEXT,
		score REAL,
		UNIQUE(category, product_id, field_key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_item_component_links_identity ON item_component_links(identity_id)`,
	`CREATE TABLE IF NOT EXISTS item_list_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		product_id TEXT NOT NULL,
		field_key TEXT NOT NULL,
		list_value_id INTEGER NOT NULL REFERENCES list_values(id),
		UNIQUE(category, product_id, field_key, list_value_id)
	)`,
	`CREATE TABLE IF NOT EXISTS candidate_reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		candidate_id TEXT NOT NULL,
		context_type TEXT NOT NULL,
		context_id TEXT NOT NULL,
		human_decision TEXT,
		human_decided_at TEXT,
		ai_decision TEXT,
		ai_decided_at TEXT,
		ai_model_id TEXT,
		UNIQUE(candidate_id, context_type, context_id)
	)`,
	`CREATE TABLE IF NOT EXISTS source_registry (
		source_id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		product_id TEXT NOT NULL,
		host TEXT,
		run_id TEXT,
		captured_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS source_assertions (
		assertion_id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL REFERENCES source_registry(source_id),
		category TEXT NOT NULL,
		field_key TEXT NOT NULL,
		context_kind TEXT NOT NULL,
		item_field_state_id INTEGER REFERENCES item_field_states(id),
		component_value_id INTEGER REFERENCES component_values(id),
		list_value_id INTEGER REFERENCES list_values(id)
	)`,
	`CREATE TABLE IF NOT EXISTS source_evidence_refs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assertion_id TEXT NOT NULL REFERENCES source_assertions(assertion_id),
		snippet_id TEXT,
		url TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS key_review_states (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		kind TEXT NOT NULL,
		item_field_state_id INTEGER REFERENCES item_field_states(id),
		list_value_id INTEGER REFERENCES list_values(id),
		component_value_id INTEGER REFERENCES component_values(id),
		component_identity_id INTEGER REFERENCES component_identities(id),
		component_property TEXT
	)`,
	// Partial uniqueness indexes enforce slot identity per spec.md §3: one
	// review row per grid slot, per enum slot, and per component slot
	// (either a component value, or identity+property).
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_review_grid ON key_review_states(category, item_field_state_id) WHERE kind = 'grid_key'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_review_enum ON key_review_states(category, list_value_id) WHERE kind = 'enum_key'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_review_component_value ON key_review_states(category, component_value_id) WHERE kind = 'component_key' AND component_value_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_review_component_identity_prop ON key_review_states(category, component_identity_id, component_property) WHERE kind = 'component_key' AND component_identity_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS key_review_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		review_state_id INTEGER NOT NULL REFERENCES key_review_states(id),
		provider TEXT,
		model TEXT,
		tokens INTEGER,
		cost_usd REAL,
		latency_ms INTEGER,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS key_review_audits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		review_state_id INTEGER NOT NULL REFERENCES key_review_states(id),
		event TEXT NOT NULL,
		actor TEXT,
		model_id TEXT,
		created_at TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS product_queue (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		product_id TEXT NOT NULL,
		status TEXT,
		priority INTEGER,
		attempts_total INTEGER NOT NULL DEFAULT 0,
		retry_count INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		rounds_completed INTEGER NOT NULL DEFAULT 0,
		next_retry_at TEXT,
		last_summary TEXT,
		cost_usd_total_for_product REAL NOT NULL DEFAULT 0,
		last_urls_attempted TEXT,
		last_completed_at TEXT,
		UNIQUE(category, product_id)
	)`,
}
