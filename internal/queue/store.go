package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fieldsync/internal/config"
)

// Store manages capture persistence backed by SQLite. It is the single
// source of truth for "what still needs to be sent": the scheduler and
// upload client carry no state of their own.
type Store struct {
	db   *sql.DB
	path string

	subscribers subscriberSet
}

// Open initializes or connects to the capture database and verifies the
// schema version.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "captures.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the location of the capture database file.
func (s *Store) Path() string {
	return s.path
}

// Enqueue persists a new capture with a fresh identifier, a zero retry
// count, and the current time. Storage faults surface as ErrPersistence.
func (s *Store) Enqueue(ctx context.Context, capture NewCapture) (*Capture, error) {
	if strings.TrimSpace(capture.FileName) == "" {
		return nil, errors.New("capture file name is required")
	}
	if len(capture.Payload) == 0 {
		return nil, errors.New("capture payload is empty")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO captures (
            file_name, payload, latitude, longitude, accuracy_m, created_at, retry_count
        ) VALUES (?, ?, ?, ?, ?, ?, 0)`,
		capture.FileName,
		capture.Payload,
		nullableFloat(capture.Location.Latitude),
		nullableFloat(capture.Location.Longitude),
		nullableFloat(capture.Location.AccuracyM),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, persistenceErr("insert capture", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, persistenceErr("last insert id", err)
	}

	s.notifySubscribers(ctx)

	return s.GetByID(ctx, id)
}

// GetByID fetches a capture by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Capture, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+captureColumns+` FROM captures WHERE id = ?`, id)
	capture, err := scanCapture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, persistenceErr("get capture", err)
	}
	return capture, nil
}

// List returns every queued capture in insertion order. Callers may rely on
// the order for display only.
func (s *Store) List(ctx context.Context) ([]*Capture, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+captureColumns+` FROM captures ORDER BY id`)
	if err != nil {
		return nil, persistenceErr("list captures", err)
	}
	defer rows.Close()

	var captures []*Capture
	for rows.Next() {
		capture, err := scanCapture(rows)
		if err != nil {
			return nil, persistenceErr("scan capture", err)
		}
		captures = append(captures, capture)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceErr("iterate captures", err)
	}
	return captures, nil
}

// Remove deletes a capture by identifier. Removing an absent id is a no-op,
// not an error; the boolean reports whether a row was deleted.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM captures WHERE id = ?`, id)
	if err != nil {
		return false, persistenceErr("delete capture", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, persistenceErr("rows affected", err)
	}
	if affected > 0 {
		s.notifySubscribers(ctx)
	}
	return affected > 0, nil
}

// IncrementRetry bumps the retry counter for a capture after a failed
// delivery attempt. A missing id is a no-op: the capture may have been
// removed concurrently by a successful delivery.
func (s *Store) IncrementRetry(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE captures SET retry_count = retry_count + 1 WHERE id = ?`, id)
	if err != nil {
		return persistenceErr("increment retry", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return persistenceErr("rows affected", err)
	}
	if affected > 0 {
		s.notifySubscribers(ctx)
	}
	return nil
}

// Count returns the number of queued captures without deserializing rows.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM captures`).Scan(&count); err != nil {
		return 0, persistenceErr("count captures", err)
	}
	return count, nil
}

// Clear removes all captures from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM captures`)
	if err != nil {
		return 0, persistenceErr("clear captures", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, persistenceErr("rows affected", err)
	}
	if affected > 0 {
		s.notifySubscribers(ctx)
	}
	return affected, nil
}

// CheckHealth returns diagnostic information about the queue database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("queue database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat queue database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("queue database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("queue database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping queue database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'captures'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			health.TableExists = false
		} else {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM captures")
		if err := row.Scan(&health.PendingCaptures); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count captures: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

const captureColumns = "id, file_name, payload, latitude, longitude, accuracy_m, created_at, retry_count"

func scanCapture(scanner interface{ Scan(dest ...any) error }) (*Capture, error) {
	var (
		id         int64
		fileName   string
		payload    []byte
		latitude   sql.NullFloat64
		longitude  sql.NullFloat64
		accuracy   sql.NullFloat64
		createdRaw string
		retryCount int
	)

	if err := scanner.Scan(
		&id,
		&fileName,
		&payload,
		&latitude,
		&longitude,
		&accuracy,
		&createdRaw,
		&retryCount,
	); err != nil {
		return nil, err
	}

	capture := &Capture{
		ID:         id,
		FileName:   fileName,
		Payload:    payload,
		RetryCount: retryCount,
		Location: Location{
			Latitude:  floatPtr(latitude),
			Longitude: floatPtr(longitude),
			AccuracyM: floatPtr(accuracy),
		},
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		capture.CreatedAt = created
	}
	return capture, nil
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func floatPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
