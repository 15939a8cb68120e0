// Package store persists daily portfolio snapshots in a SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/etnz/brokerage"
	"github.com/etnz/brokerage/date"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	account   TEXT NOT NULL,
	date      TEXT NOT NULL,
	equity    REAL NOT NULL,
	cash      REAL NOT NULL,
	deposits  REAL NOT NULL,
	positions TEXT NOT NULL,
	PRIMARY KEY (account, date)
);
`

// DB is a SQLite backed brokerage.SnapshotStore. One row is stored per
// (account, date); dates are appended in increasing order per account.
type DB struct {
	conn *sql.DB
	log  zerolog.Logger
}

// Open opens or creates the snapshot database at path.
func Open(path string, log zerolog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("cannot open snapshot store: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot initialize snapshot store: %w", err)
	}
	return &DB{conn: conn, log: log.With().Str("component", "store").Logger()}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

// Latest returns the most recent snapshot of account at or before cutoff,
// or nil when the account has none.
func (db *DB) Latest(account string, cutoff date.Date) (*brokerage.DailySnapshot, error) {
	row := db.conn.QueryRow(`
		SELECT account, date, equity, cash, deposits, positions
		FROM snapshots WHERE account = ? AND date <= ?
		ORDER BY date DESC LIMIT 1`, account, cutoff.String())
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return snap, err
}

// Append stores one snapshot. The date must be past every stored date of
// the account; rewriting a stored day is an error.
func (db *DB) Append(snap *brokerage.DailySnapshot) error {
	positions, err := json.Marshal(snap.Positions)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`
		INSERT INTO snapshots (account, date, equity, cash, deposits, positions)
		VALUES (?, ?, ?, ?, ?, ?)`,
		snap.Account, snap.Date.String(), snap.Equity, snap.Cash, snap.Deposits, string(positions))
	if err != nil {
		return fmt.Errorf("cannot append snapshot %s %s: %w", snap.Account, snap.Date, err)
	}
	db.log.Debug().Str("account", snap.Account).Stringer("date", snap.Date).
		Float64("equity", snap.Equity).Msg("snapshot stored")
	return nil
}

// Range returns the stored snapshots of account within r, in date order.
func (db *DB) Range(account string, r date.Range) ([]*brokerage.DailySnapshot, error) {
	rows, err := db.conn.Query(`
		SELECT account, date, equity, cash, deposits, positions
		FROM snapshots WHERE account = ? AND date >= ? AND date <= ?
		ORDER BY date`, account, r.From.String(), r.To.String())
	if err != nil {
		return nil, fmt.Errorf("cannot query snapshots: %w", err)
	}
	defer rows.Close()
	var snaps []*brokerage.DailySnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// Clear drops the stored history of account, or of every account when
// account is empty.
func (db *DB) Clear(account string) error {
	var err error
	if account == "" {
		_, err = db.conn.Exec(`DELETE FROM snapshots`)
	} else {
		_, err = db.conn.Exec(`DELETE FROM snapshots WHERE account = ?`, account)
	}
	if err != nil {
		return fmt.Errorf("cannot clear snapshots: %w", err)
	}
	db.log.Info().Str("account", account).Msg("snapshot history cleared")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*brokerage.DailySnapshot, error) {
	var snap brokerage.DailySnapshot
	var day, positions string
	if err := row.Scan(&snap.Account, &day, &snap.Equity, &snap.Cash, &snap.Deposits, &positions); err != nil {
		return nil, err
	}
	on, err := date.Parse(day)
	if err != nil {
		return nil, fmt.Errorf("bad snapshot date %q: %w", day, err)
	}
	snap.Date = on
	if err := json.Unmarshal([]byte(positions), &snap.Positions); err != nil {
		return nil, fmt.Errorf("bad snapshot positions: %w", err)
	}
	return &snap, nil
}

var _ brokerage.SnapshotStore = (*DB)(nil)
