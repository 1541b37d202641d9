// SPDX-License-Identifier: EUPL-1.2

// Package curvestore persists hourly curves and export tables per scenario
// in a local SQLite database. It is meant for keeping engine output around
// between runs: weather profiles for multiple climate years, carrier curves
// for a batch of scenarios.
package curvestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	_ "modernc.org/sqlite" // pure Go driver

	"github.com/quintel/goetm/models"
)

var (
	// ErrNotFound is returned when no curve is stored for a scenario and kind.
	ErrNotFound = errors.New("curvestore: curve not found")

	// ErrAlreadyStored is returned when a scenario already holds a curve of
	// the given kind. Delete it first to replace it.
	ErrAlreadyStored = errors.New("curvestore: curve already stored")

	// ErrMisalignedColumns is returned when a frame's columns differ from
	// the columns already stored for that kind.
	ErrMisalignedColumns = errors.New("curvestore: misaligned columns")
)

// Config defines the SQLite operational parameters.
type Config struct {
	BusyTimeout  time.Duration
	MaxOpenConns int
}

// DefaultConfig returns the recommended configuration: WAL-friendly pool
// size and a busy timeout that rides out concurrent writers.
func DefaultConfig() Config {
	return Config{
		BusyTimeout:  5 * time.Second,
		MaxOpenConns: 25,
	}
}

// Store persists frames in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open initialises the store at the given path, creating the schema when
// needed. The pragmas ride in the DSN so they apply to every connection in
// the pool.
func Open(path string, cfg Config) (*Store, error) {
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = DefaultConfig().BusyTimeout
	}
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = DefaultConfig().MaxOpenConns
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)",
		path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("curvestore: open failed: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("curvestore: ping failed: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("curvestore: run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS curves (
		scenario_id INTEGER NOT NULL,
		kind        TEXT    NOT NULL,
		hour        INTEGER NOT NULL,
		position    INTEGER NOT NULL,
		column_name TEXT    NOT NULL,
		value       TEXT    NOT NULL,
		PRIMARY KEY (scenario_id, kind, hour, position)
	);

	CREATE INDEX IF NOT EXISTS idx_curves_kind ON curves(kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Put stores a frame for a scenario and kind. Frames of the same kind must
// share one column set across scenarios, and a (scenario, kind) pair can be
// stored only once.
func (s *Store) Put(ctx context.Context, scenarioID int, kind string, frame *models.Frame) error {
	if frame == nil || len(frame.Columns) == 0 {
		return fmt.Errorf("curvestore: frame has no columns")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("curvestore: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored, err := storedColumns(ctx, tx, kind)
	if err != nil {
		return err
	}
	if len(stored) > 0 {
		if diff := columnDiff(stored, frame.Columns); len(diff) > 0 {
			return fmt.Errorf("%w for kind %q: %v", ErrMisalignedColumns, kind, diff)
		}
	}

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM curves WHERE scenario_id = ? AND kind = ?)`,
		scenarioID, kind).Scan(&exists)
	if err != nil {
		return fmt.Errorf("curvestore: check duplicate: %w", err)
	}
	if exists == 1 {
		return fmt.Errorf("%w: scenario %d kind %q", ErrAlreadyStored, scenarioID, kind)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO curves (scenario_id, kind, hour, position, column_name, value)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("curvestore: prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for hour, record := range frame.Records {
		if len(record) != len(frame.Columns) {
			return fmt.Errorf("curvestore: record %d has %d fields, frame has %d columns",
				hour, len(record), len(frame.Columns))
		}
		for position, cell := range record {
			if _, err := stmt.ExecContext(ctx,
				scenarioID, kind, hour, position, frame.Columns[position], cell); err != nil {
				return fmt.Errorf("curvestore: insert hour %d: %w", hour, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("curvestore: commit: %w", err)
	}
	return nil
}

// Get loads the frame stored for a scenario and kind.
func (s *Store) Get(ctx context.Context, scenarioID int, kind string) (*models.Frame, error) {
	columns, err := s.frameColumns(ctx, scenarioID, kind)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: scenario %d kind %q", ErrNotFound, scenarioID, kind)
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT hour, position, value
	FROM curves
	WHERE scenario_id = ? AND kind = ?
	ORDER BY hour, position
	`, scenarioID, kind)
	if err != nil {
		return nil, fmt.Errorf("curvestore: query cells: %w", err)
	}
	defer func() { _ = rows.Close() }()

	frame := &models.Frame{Columns: columns}
	for rows.Next() {
		var hour, position int
		var value string
		if err := rows.Scan(&hour, &position, &value); err != nil {
			return nil, fmt.Errorf("curvestore: scan cell: %w", err)
		}
		for hour >= len(frame.Records) {
			frame.Records = append(frame.Records, make([]string, len(columns)))
		}
		frame.Records[hour][position] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("curvestore: read cells: %w", err)
	}
	return frame, nil
}

// Kinds lists the curve kinds stored for a scenario.
func (s *Store) Kinds(ctx context.Context, scenarioID int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT kind FROM curves WHERE scenario_id = ? ORDER BY kind`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("curvestore: query kinds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var kinds []string
	for rows.Next() {
		var kind string
		if err := rows.Scan(&kind); err != nil {
			return nil, fmt.Errorf("curvestore: scan kind: %w", err)
		}
		kinds = append(kinds, kind)
	}
	return kinds, rows.Err()
}

// Scenarios lists the scenario ids that hold a curve of the given kind.
func (s *Store) Scenarios(ctx context.Context, kind string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT scenario_id FROM curves WHERE kind = ? ORDER BY scenario_id`, kind)
	if err != nil {
		return nil, fmt.Errorf("curvestore: query scenarios: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("curvestore: scan scenario id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Delete removes the curve stored for a scenario and kind. Deleting a curve
// that is not stored returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, scenarioID int, kind string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM curves WHERE scenario_id = ? AND kind = ?`, scenarioID, kind)
	if err != nil {
		return fmt.Errorf("curvestore: delete: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("curvestore: delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: scenario %d kind %q", ErrNotFound, scenarioID, kind)
	}
	return nil
}

// frameColumns returns the stored header for a scenario and kind in
// position order.
func (s *Store) frameColumns(ctx context.Context, scenarioID int, kind string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT DISTINCT position, column_name
	FROM curves
	WHERE scenario_id = ? AND kind = ?
	ORDER BY position
	`, scenarioID, kind)
	if err != nil {
		return nil, fmt.Errorf("curvestore: query columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var position int
		var name string
		if err := rows.Scan(&position, &name); err != nil {
			return nil, fmt.Errorf("curvestore: scan column: %w", err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

func storedColumns(ctx context.Context, tx *sql.Tx, kind string) (map[string]bool, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT column_name FROM curves WHERE kind = ?`, kind)
	if err != nil {
		return nil, fmt.Errorf("curvestore: query stored columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stored := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("curvestore: scan stored column: %w", err)
		}
		stored[name] = true
	}
	return stored, rows.Err()
}

// columnDiff returns the symmetric difference between the stored column set
// and a frame's columns, sorted for stable error messages.
func columnDiff(stored map[string]bool, columns []string) []string {
	incoming := make(map[string]bool, len(columns))
	for _, c := range columns {
		incoming[c] = true
	}

	var diff []string
	for c := range stored {
		if !incoming[c] {
			diff = append(diff, c)
		}
	}
	for c := range incoming {
		if !stored[c] {
			diff = append(diff, c)
		}
	}
	sort.Strings(diff)
	return diff
}
