package postgres

// Schema is the table layout the store reads. Loading data is the job of
// the ingestion pipeline; tests apply it to a scratch database.
const Schema = `
CREATE TABLE IF NOT EXISTS players (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	country_code TEXT NOT NULL DEFAULT '',
	birth_date   DATE
);

CREATE TABLE IF NOT EXISTS matches (
	id              TEXT PRIMARY KEY,
	tournament_id   TEXT NOT NULL,
	tournament_name TEXT NOT NULL DEFAULT '',
	match_date      DATE NOT NULL,
	surface         TEXT NOT NULL DEFAULT '',
	level           TEXT NOT NULL DEFAULT '',
	round           TEXT NOT NULL DEFAULT '',
	best_of         INTEGER NOT NULL DEFAULT 3,
	match_num       INTEGER NOT NULL DEFAULT 0,
	score           TEXT NOT NULL DEFAULT '',
	outcome         TEXT NOT NULL DEFAULT 'completed',
	winner          JSONB NOT NULL,
	loser           JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS matches_date_idx ON matches (match_date, tournament_id);

CREATE TABLE IF NOT EXISTS rankings (
	player_id    TEXT NOT NULL,
	ranking_date DATE NOT NULL,
	rank         INTEGER NOT NULL,
	points       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (player_id, ranking_date)
);

CREATE INDEX IF NOT EXISTS rankings_date_idx ON rankings (ranking_date, rank);

CREATE TABLE IF NOT EXISTS snapshots (
	metric TEXT NOT NULL,
	params TEXT NOT NULL DEFAULT '',
	body   JSONB NOT NULL,
	PRIMARY KEY (metric, params)
);
`
