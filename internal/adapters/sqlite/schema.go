package sqlite

// schemaSQL is the complete cache schema. The cache is rebuilt
// wholesale on every refresh, so there are no migrations: a schema
// change just means the next refresh writes a fresh database.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS areas (
	start_num INTEGER PRIMARY KEY,
	end_num INTEGER NOT NULL,
	name TEXT NOT NULL,
	path TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	number INTEGER PRIMARY KEY,
	area_start INTEGER NOT NULL,
	name TEXT NOT NULL,
	path TEXT NOT NULL,
	FOREIGN KEY (area_start) REFERENCES areas(start_num) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS ids (
	ref TEXT NOT NULL,
	category INTEGER NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL,
	is_file INTEGER NOT NULL DEFAULT 0,
	is_symlink INTEGER NOT NULL DEFAULT 0,
	mismatched INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (category, path),
	FOREIGN KEY (category) REFERENCES categories(number) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS orphans (
	path TEXT PRIMARY KEY,
	owner TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS broken_symlinks (
	path TEXT PRIMARY KEY
);
`
