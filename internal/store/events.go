package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"calltracker/internal/diff"
	"calltracker/internal/feed"
)

// Event statuses recorded in the index.
const (
	EventNew      = "NEW"
	EventResolved = "RESOLVED"
)

// EventStore wraps the SQLite index of poll cycles and change events.
// The tracker records every cycle; the standalone alert evaluator reads
// the latest cycle's NEW events so its per-record rules run against
// genuinely new calls instead of the whole snapshot.
type EventStore struct {
	db *sql.DB
}

func OpenEvents(path string) (*EventStore, error) {
	// Readers can arrive while the tracker's write transaction is still
	// open; wait it out instead of surfacing SQLITE_BUSY.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	s := &EventStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *EventStore) Close() error { return s.db.Close() }

func (s *EventStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS poll_cycles (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            observed_at TIMESTAMP NOT NULL,
            total_active INTEGER NOT NULL,
            new_count INTEGER NOT NULL,
            resolved_count INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS call_events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            cycle_id INTEGER NOT NULL REFERENCES poll_cycles(id),
            incident_id TEXT NOT NULL,
            status TEXT NOT NULL,
            description TEXT,
            address TEXT,
            response_date TEXT,
            observed_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_call_events_cycle ON call_events(cycle_id);`,
		`CREATE INDEX IF NOT EXISTS idx_call_events_incident ON call_events(incident_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordCycle persists one poll cycle and its change events.
func (s *EventStore) RecordCycle(ctx context.Context, observedAt time.Time, changes diff.Changes, totalActive int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO poll_cycles(observed_at, total_active, new_count, resolved_count) VALUES(?,?,?,?)`,
		observedAt, totalActive, len(changes.New), len(changes.Resolved))
	if err != nil {
		return err
	}
	cycleID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	insert := func(calls []feed.Call, status string) error {
		for _, c := range calls {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO call_events(cycle_id, incident_id, status, description, address, response_date, observed_at) VALUES(?,?,?,?,?,?,?)`,
				cycleID, c.IncidentID, status, c.Description, c.Address, c.ResponseDate, observedAt); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(changes.New, EventNew); err != nil {
		return err
	}
	if err := insert(changes.Resolved, EventResolved); err != nil {
		return err
	}
	return tx.Commit()
}

// LatestNewCalls returns the NEW events of the most recent recorded
// cycle in insertion order. ok is false when no cycle exists yet.
func (s *EventStore) LatestNewCalls(ctx context.Context) (calls []feed.Call, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT id FROM poll_cycles ORDER BY id DESC LIMIT 1`)
	var cycleID int64
	switch err := row.Scan(&cycleID); err {
	case nil:
	case sql.ErrNoRows:
		return nil, false, nil
	default:
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT incident_id, description, address, response_date FROM call_events WHERE cycle_id=? AND status=? ORDER BY id ASC`,
		cycleID, EventNew)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var c feed.Call
		var desc, addr, resp sql.NullString
		if err := rows.Scan(&c.IncidentID, &desc, &addr, &resp); err != nil {
			return nil, false, err
		}
		c.Description = desc.String
		c.Address = addr.String
		c.ResponseDate = resp.String
		calls = append(calls, c)
	}
	return calls, true, rows.Err()
}

// IncidentHistory lists the change events recorded for one incident,
// oldest first.
func (s *EventStore) IncidentHistory(ctx context.Context, incidentID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status FROM call_events WHERE incident_id=? ORDER BY id ASC`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var statuses []string
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

// Health returns err if the index is not reachable.
func (s *EventStore) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("event index health: %w", err)
	}
	return nil
}
