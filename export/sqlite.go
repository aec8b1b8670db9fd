package export

import (
	"context"
	"database/sql"

	"github.com/miku/cemkit/assemble"
	"github.com/miku/cemkit/matching"
	"github.com/rotisserie/eris"
	"github.com/segmentio/encoding/json"
	_ "modernc.org/sqlite"
)

// SQLite stores runs, match pairs and output rows in a database file, so
// several runs, e.g. with different seeds, can be compared side by side.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at dsn.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	seed        INTEGER NOT NULL,
	sample_size INTEGER NOT NULL,
	report      TEXT NOT NULL,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS matches (
	run_id           TEXT NOT NULL REFERENCES runs(id),
	seq              INTEGER NOT NULL,
	control_paper_id TEXT NOT NULL,
	treated_paper_id TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS output_rows (
	run_id                  TEXT NOT NULL REFERENCES runs(id),
	seq                     INTEGER NOT NULL,
	set_id                  TEXT NOT NULL,
	paper_id                INTEGER NOT NULL,
	retraction_reason       TEXT NOT NULL,
	control_sample_origin   INTEGER,
	year                    INTEGER NOT NULL,
	scientific_domain       TEXT NOT NULL,
	journal_rank_percentile INTEGER NOT NULL,
	software_id             TEXT,
	software_name           TEXT,
	software_string         TEXT,
	software_type           TEXT,
	mention_type            TEXT,
	version                 TEXT,
	developer               TEXT,
	citation                TEXT,
	url                     TEXT,
	host_software_id        TEXT,
	host_software_name      TEXT,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_matches_treated ON matches(run_id, treated_paper_id);
CREATE INDEX IF NOT EXISTS idx_output_rows_paper ON output_rows(run_id, paper_id);
`

// Migrate creates the tables, if necessary.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveRun stores a run in a single transaction.
func (s *SQLite) SaveRun(ctx context.Context, r *Report, pairs []matching.Draw, rows []assemble.Row) error {
	b, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, seed, sample_size, report, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, int64(r.Seed), r.SampleSize, string(b), r.Started.UTC(), r.Finished.UTC(),
	); err != nil {
		return eris.Wrap(err, "sqlite: insert run")
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO matches (run_id, seq, control_paper_id, treated_paper_id) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare matches")
	}
	defer stmt.Close()
	for i, p := range pairs {
		if _, err := stmt.ExecContext(ctx, r.RunID, i, p.Control, p.Treated); err != nil {
			return eris.Wrapf(err, "sqlite: insert match %d", i)
		}
	}
	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO output_rows (
		run_id, seq, set_id, paper_id, retraction_reason, control_sample_origin,
		year, scientific_domain, journal_rank_percentile, software_id,
		software_name, software_string, software_type, mention_type, version,
		developer, citation, url, host_software_id, host_software_name
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare output rows")
	}
	defer rowStmt.Close()
	for i, row := range rows {
		var origin sql.NullInt64
		if row.ControlSampleOrigin != 0 {
			origin = sql.NullInt64{Int64: int64(row.ControlSampleOrigin), Valid: true}
		}
		if _, err := rowStmt.ExecContext(ctx,
			r.RunID, i, row.SetID, row.PaperID, row.RetractionReason, origin,
			row.Year, row.ScientificDomain, row.Percentile, row.SoftwareID,
			row.SoftwareName, row.SoftwareString, row.SoftwareType, row.MentionType, row.Version,
			row.Developer, row.Citation, row.URL, row.HostSoftwareID, row.HostSoftwareName,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert output row %d", i)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}
