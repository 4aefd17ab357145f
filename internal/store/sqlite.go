package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/rbmjitter/internal/constants"
	_ "modernc.org/sqlite" // SQLite driver
)

// timeFormat is fixed-width so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteRunStore implements RunStore using SQLite for persistence.
type SQLiteRunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// NewSQLiteRunStore creates a SQLiteRunStore rooted at projectRoot.
// The database lives at <projectRoot>/.rbmjitter/runs.db.
func NewSQLiteRunStore(projectRoot string) (*SQLiteRunStore, error) {
	stateDir := filepath.Join(projectRoot, constants.StateDirName)

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", constants.StateDirName, err)
	}

	return OpenSQLiteRunStore(filepath.Join(stateDir, constants.RunsDBName))
}

// OpenSQLiteRunStore opens (or creates) the run database at dbPath.
func OpenSQLiteRunStore(dbPath string) (*SQLiteRunStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRunStore{db: db, dbPath: dbPath}, nil
}

// AddRun inserts a run.
func (s *SQLiteRunStore) AddRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run = prepareRun(run)

	channels, err := json.Marshal(run.Channels)
	if err != nil {
		return "", fmt.Errorf("failed to marshal channels: %w", err)
	}
	stdDev, err := encodeStdDev(run.StdDev)
	if err != nil {
		return "", fmt.Errorf("failed to marshal std_dev: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, created_at, record_path, transfer_path, transfer_key,
			channels, skip, steps, samples, std_dev
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.CreatedAt.UTC().Format(timeFormat),
		run.RecordPath,
		run.TransferPath,
		run.TransferKey,
		string(channels),
		run.Skip,
		run.Steps,
		run.Samples,
		stdDev,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	return run.ID, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteRunStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, record_path, transfer_path, transfer_key,
		       channels, skip, steps, samples, std_dev
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, created_at, record_path, transfer_path, transfer_key,
		       channels, skip, steps, samples, std_dev
		FROM runs ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *SQLiteRunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run       Run
		createdAt string
		channels  string
		stdDev    string
	)
	if err := row.Scan(
		&run.ID, &createdAt, &run.RecordPath, &run.TransferPath, &run.TransferKey,
		&channels, &run.Skip, &run.Steps, &run.Samples, &stdDev,
	); err != nil {
		return nil, err
	}

	t, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at for run %s: %w", run.ID, err)
	}
	run.CreatedAt = t

	if err := json.Unmarshal([]byte(channels), &run.Channels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal channels for run %s: %w", run.ID, err)
	}
	if run.StdDev, err = decodeStdDev(stdDev); err != nil {
		return nil, fmt.Errorf("failed to unmarshal std_dev for run %s: %w", run.ID, err)
	}

	return &run, nil
}
