package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"

	_ "modernc.org/sqlite"
)

const (
	// InMemory can be passed to OpenSQLite to keep the journal in memory.
	InMemory = ":memory:"

	busyTimeoutMs = 5000
)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	request_id TEXT NOT NULL,
	created    INTEGER NOT NULL,
	path       TEXT NOT NULL,
	owner      BLOB NOT NULL,
	caller     BLOB,
	log        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS entries_owner ON entries (owner, seq);
CREATE TABLE IF NOT EXISTS transfers (
	entry_id TEXT NOT NULL REFERENCES entries (id),
	position INTEGER NOT NULL,
	src      BLOB NOT NULL,
	dst      BLOB NOT NULL,
	amount   TEXT NOT NULL,
	memo     TEXT NOT NULL,
	PRIMARY KEY (entry_id, position)
);
`

// SQLite is a journal stored in a SQLite database file.
type SQLite struct {
	db *sql.DB
}

var _ Journal = (*SQLite)(nil)

// OpenSQLite opens or creates the journal database at path. Use InMemory for
// a journal that lives only as long as the process.
func OpenSQLite(path string) (*SQLite, error) {
	dsn := InMemory
	if path != InMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "create journal directory: %s", err)
		}
		dsn = fmt.Sprintf("file:%s", filepath.Clean(path))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open sqlite: %s", err)
	}
	// A memory database exists per connection and sqlite serializes
	// writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMs)); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "set busy timeout: %s", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "create schema: %s", err)
	}
	return &SQLite{db: db}, nil
}

// Record stores the entry and its transfers in a single transaction.
func (s *SQLite) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return errors.Wrap(errors.ErrEmpty, "entry id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "begin: %s", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entries (id, request_id, created, path, owner, caller, log) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.RequestID, e.Time.UnixNano(), e.Path, []byte(e.Owner), []byte(e.Caller), e.Log)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "insert entry: %s", err)
	}
	for i, t := range e.Transfers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transfers (entry_id, position, src, dst, amount, memo) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, i, []byte(t.From), []byte(t.To), strconv.FormatUint(t.Amount, 10), t.Memo)
		if err != nil {
			return errors.Wrapf(errors.ErrDatabase, "insert transfer %d: %s", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "commit: %s", err)
	}
	return nil
}

// Entries returns the most recent entries, oldest first.
func (s *SQLite) Entries(ctx context.Context, owner bequest.Address, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `SELECT id, request_id, created, path, owner, caller, log FROM entries`
	args := []interface{}{}
	if owner != nil {
		query += ` WHERE owner = ?`
		args = append(args, []byte(owner))
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "query entries: %s", err)
	}
	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			created int64
			caller  []byte
			own     []byte
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &created, &e.Path, &own, &caller, &e.Log); err != nil {
			rows.Close()
			return nil, errors.Wrapf(errors.ErrDatabase, "scan entry: %s", err)
		}
		e.Time = time.Unix(0, created).UTC()
		e.Owner = own
		if len(caller) > 0 {
			e.Caller = caller
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "read entries: %s", err)
	}
	rows.Close()

	res := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		transfers, err := s.transfers(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		e.Transfers = transfers
		res = append(res, e)
	}
	return res, nil
}

func (s *SQLite) transfers(ctx context.Context, entryID string) ([]bequest.Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT src, dst, amount, memo FROM transfers WHERE entry_id = ? ORDER BY position`, entryID)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "query transfers: %s", err)
	}
	defer rows.Close()

	res := []bequest.Transfer{}
	for rows.Next() {
		var (
			t      bequest.Transfer
			from   []byte
			to     []byte
			amount string
		)
		if err := rows.Scan(&from, &to, &amount, &t.Memo); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "scan transfer: %s", err)
		}
		t.From, t.To = from, to
		if t.Amount, err = strconv.ParseUint(amount, 10, 64); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "transfer amount %q", amount)
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "read transfers: %s", err)
	}
	return res, nil
}

// Close releases the database.
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "close: %s", err)
	}
	return nil
}
