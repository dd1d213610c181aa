package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateRun records the start of a simulator invocation.
func (s *SQLiteStore) CreateRun(kind RunKind, modelPath string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Kind:      kind,
		ModelPath: modelPath,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, kind, model_path, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.ModelPath, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// CompleteRun marks a run as finished. A non-empty errMsg is stored
// alongside the status; rows is the number of result rows the run produced.
// The duration is measured from the recorded start time.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, rows int64, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var startedAtRaw string
	err := s.db.QueryRow(`SELECT started_at FROM runs WHERE id = ?`, id).Scan(&startedAtRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to get run start time: %w", err)
	}

	startedAt, err := parseTime(startedAtRaw)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	_, err = s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ?, result_rows = ?, duration_ms = ? WHERE id = ?`,
		string(status), formatTime(now), errorPtr, rows, now.Sub(startedAt).Milliseconds(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(
		`SELECT id, kind, model_path, status, error, result_rows, duration_ms, started_at, completed_at
		 FROM runs WHERE id = ?`,
		id,
	)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// ListRuns retrieves the most recent runs, newest first. A non-positive
// limit lists up to 50 runs.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, kind, model_path, status, error, result_rows, duration_ms, started_at, completed_at
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	run := &Run{}
	var (
		kind, status, startedAtRaw string
		errMsg, completedAtRaw     sql.NullString
	)

	err := sc.Scan(&run.ID, &kind, &run.ModelPath, &status, &errMsg,
		&run.Rows, &run.DurationMS, &startedAtRaw, &completedAtRaw)
	if err != nil {
		return nil, err
	}

	run.Kind = RunKind(kind)
	run.Status = RunStatus(status)
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	run.StartedAt, err = parseTime(startedAtRaw)
	if err != nil {
		return nil, err
	}
	if completedAtRaw.Valid {
		completedAt, err := parseTime(completedAtRaw.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &completedAt
	}

	return run, nil
}
