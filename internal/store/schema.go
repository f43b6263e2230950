package store

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS evidence_nodes (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	ts_unix_nano INTEGER NOT NULL,
	fields       TEXT NOT NULL DEFAULT '{}',
	payload      TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_evidence_nodes_kind_ts ON evidence_nodes(kind, ts_unix_nano);
`
