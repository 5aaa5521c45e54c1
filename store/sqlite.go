package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

var ErrRunNotFound = errors.New("run not found")

// timeFormat is fixed width so created_at sorts as text
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one persisted solve
type Run struct {
	ID         string
	CreatedAt  time.Time
	Source     string // model file or other origin label
	Dimension  int
	NumDOF     int
	NumFree    int
	Iterations int
	Residual   float64

	// Model is the YAML document that was solved
	Model         string
	Displacements []float64
	Forces        []float64
}

// Store manages the SQLite connection and schema.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the results database with WAL enabled
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		source TEXT,
		dimension INTEGER NOT NULL,
		num_dof INTEGER NOT NULL,
		num_free INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		residual REAL NOT NULL,
		model TEXT NOT NULL,

		-- JSON arrays indexed by global equation
		displacements JSON NOT NULL,
		forces JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	return nil
}

// SaveRun inserts a run, assigning an ID and timestamp when they are empty.
// The stored ID is returned.
func (s *Store) SaveRun(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	u, err := json.Marshal(nonNil(r.Displacements))
	if err != nil {
		return "", fmt.Errorf("failed to marshal displacements: %w", err)
	}
	f, err := json.Marshal(nonNil(r.Forces))
	if err != nil {
		return "", fmt.Errorf("failed to marshal forces: %w", err)
	}

	query := `
	INSERT INTO runs (
		run_id, created_at, source, dimension, num_dof, num_free,
		iterations, residual, model, displacements, forces
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.CreatedAt.UTC().Format(timeFormat), r.Source, r.Dimension, r.NumDOF, r.NumFree,
		r.Iterations, r.Residual, r.Model, string(u), string(f),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return r.ID, nil
}

const runColumns = `run_id, created_at, source, dimension, num_dof, num_free,
	iterations, residual, model, displacements, forces`

// GetRun loads one run by ID
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE run_id = ?", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r       Run
		created string
		source  sql.NullString
		u, f    string
	)
	err := sc.Scan(&r.ID, &created, &source, &r.Dimension, &r.NumDOF, &r.NumFree,
		&r.Iterations, &r.Residual, &r.Model, &u, &f)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	r.Source = source.String
	if r.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return Run{}, fmt.Errorf("failed to parse created_at %q: %w", created, err)
	}
	if err := json.Unmarshal([]byte(u), &r.Displacements); err != nil {
		return Run{}, fmt.Errorf("failed to unmarshal displacements: %w", err)
	}
	if err := json.Unmarshal([]byte(f), &r.Forces); err != nil {
		return Run{}, fmt.Errorf("failed to unmarshal forces: %w", err)
	}
	return r, nil
}

func nonNil(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
