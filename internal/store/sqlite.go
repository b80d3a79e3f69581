package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// ErrNotFound is returned by Get for an unknown filing id.
var ErrNotFound = errors.New("store: filing not found")

const schema = `
CREATE TABLE IF NOT EXISTS filings (
	id              TEXT PRIMARY KEY,
	file_name       TEXT NOT NULL,
	document_type   TEXT NOT NULL DEFAULT '',
	period          TEXT NOT NULL DEFAULT '',
	issuer_cik      TEXT NOT NULL,
	issuer_name     TEXT NOT NULL,
	issuer_symbol   TEXT NOT NULL,
	document        TEXT NOT NULL,
	stored_at       DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_filings_issuer ON filings(issuer_cik);

CREATE TABLE IF NOT EXISTS reporters (
	filing_id     TEXT NOT NULL REFERENCES filings(id) ON DELETE CASCADE,
	position      INTEGER NOT NULL,
	cik           TEXT NOT NULL,
	name          TEXT NOT NULL,
	roles         TEXT NOT NULL,
	officer_title TEXT,
	PRIMARY KEY (filing_id, position)
);
CREATE INDEX IF NOT EXISTS idx_reporters_cik ON reporters(cik);

CREATE TABLE IF NOT EXISTS transactions (
	filing_id      TEXT NOT NULL REFERENCES filings(id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	derivative     INTEGER NOT NULL,
	security_title TEXT NOT NULL,
	date           TEXT,
	codes          TEXT NOT NULL,
	shares         INTEGER,
	direction      TEXT,
	price          REAL,
	shares_owned   REAL NOT NULL,
	ownership      TEXT NOT NULL,
	nature         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (filing_id, derivative, position)
);
`

// SQLite stores filings in a SQLite database. The full filing is kept as
// JSON; reporters and transactions are also broken out for querying.
type SQLite struct {
	db   *sql.DB
	path string
}

var _ Sink = (*SQLite)(nil)

// NewSQLite opens (creating if needed) the database at path.
// ":memory:" is accepted for tests.
func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("store: sqlite path is empty")
	}
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		// WAL lets readers inspect the database while the watcher writes.
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite has a single writer, and each :memory: connection is its own database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLite) Close() error { return s.db.Close() }

// Save stores a filing in one transaction. A filing id already present is
// left untouched.
func (s *SQLite) Save(ctx context.Context, f *models.Filing) (err error) {
	doc, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshalling filing %s: %w", f.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO filings
			(id, file_name, document_type, period, issuer_cik, issuer_name, issuer_symbol, document)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.FileName, f.DocumentType, f.PeriodOfReport,
		f.Issuer.CIK, f.Issuer.Name, f.Issuer.TradingSymbol, string(doc))
	if err != nil {
		return fmt.Errorf("inserting filing %s: %w", f.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return tx.Commit()
	}

	for i, r := range f.Reporters {
		roles := make([]string, len(r.Relations.Roles))
		for j, role := range r.Relations.Roles {
			roles[j] = string(role)
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO reporters (filing_id, position, cik, name, roles, officer_title)
			VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, i, r.CIK, r.Name, strings.Join(roles, ","), nullString(r.Relations.OfficerTitle)); err != nil {
			return fmt.Errorf("inserting reporter %d of %s: %w", i, f.ID, err)
		}
	}

	for i, t := range f.NonDerivative {
		var shares, direction, price any
		if t.Effect != nil {
			shares, direction, price = t.Effect.Shares, string(t.Effect.Direction), t.Effect.PricePerShare
		}
		if err = insertTransaction(ctx, tx, f.ID, i, false, t.SecurityTitle, t.Date, t.Codes,
			shares, direction, price, t.SharesOwned, t.Ownership); err != nil {
			return err
		}
	}
	for i, t := range f.Derivative {
		var shares, direction, price any
		if t.Count != nil {
			shares, direction = t.Count.Shares, string(t.Count.Direction)
		}
		if t.PricePerShare != nil {
			price = *t.PricePerShare
		}
		if err = insertTransaction(ctx, tx, f.ID, i, true, t.SecurityTitle, t.Date, t.Codes,
			shares, direction, price, t.SharesOwned, t.Ownership); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", f.ID, err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, id string, pos int, derivative bool,
	title string, date *string, codes []models.TransactionCode,
	shares, direction, price any, owned float64, own models.Ownership) error {
	var cs strings.Builder
	for _, c := range codes {
		cs.WriteString(string(c))
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO transactions
			(filing_id, position, derivative, security_title, date, codes, shares, direction, price, shares_owned, ownership, nature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, pos, derivative, title, nullString(date), cs.String(),
		shares, direction, price, owned, string(own.Kind), own.Nature)
	if err != nil {
		return fmt.Errorf("inserting transaction %d of %s: %w", pos, id, err)
	}
	return nil
}

// Get loads a stored filing by accession number.
func (s *SQLite) Get(ctx context.Context, id string) (*models.Filing, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM filings WHERE id = ?", id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading filing %s: %w", id, err)
	}
	var f models.Filing
	if err := json.Unmarshal([]byte(doc), &f); err != nil {
		return nil, fmt.Errorf("unmarshalling filing %s: %w", id, err)
	}
	return &f, nil
}

// Count returns the number of stored filings.
func (s *SQLite) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM filings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting filings: %w", err)
	}
	return n, nil
}

// FilingsByReporter returns the ids of filings naming the reporter CIK,
// oldest first.
func (s *SQLite) FilingsByReporter(ctx context.Context, cik string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT f.id FROM filings f
		JOIN reporters r ON r.filing_id = f.id
		WHERE r.cik = ?
		ORDER BY f.stored_at, f.id`, cik)
	if err != nil {
		return nil, fmt.Errorf("querying reporter %s: %w", cik, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
