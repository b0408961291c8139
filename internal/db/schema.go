package db

// schemaSQL creates the audit trail table. Applied on every startup; all
// statements are idempotent.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS events_log (
	event_id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	type TEXT NOT NULL,
	level TEXT NOT NULL DEFAULT 'INFO',
	event_kind TEXT,
	script TEXT,
	param TEXT,
	source TEXT,
	message TEXT NOT NULL,
	payload TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_events_log_timestamp ON events_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_log_type ON events_log(type, timestamp);
CREATE INDEX IF NOT EXISTS idx_events_log_kind ON events_log(event_kind, timestamp);
`
