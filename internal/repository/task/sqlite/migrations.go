package sqlite

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// Versions must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                 TEXT PRIMARY KEY,
	description        TEXT NOT NULL,
	created_at         INTEGER NOT NULL,
	deadline           TEXT NOT NULL,
	attached_file_name TEXT NOT NULL DEFAULT '',
	attached_file_url  TEXT NOT NULL DEFAULT '',
	is_done            INTEGER NOT NULL DEFAULT 0,
	CHECK ((attached_file_name = '') = (attached_file_url = ''))
);

CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at DESC);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
