package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/skinhistory/internal/changes"
	"github.com/nao1215/skinhistory/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "skinhistory.db"

// Keys of the kv table.
const (
	KeyChampions      = "champions"
	KeySkinlines      = "skinlines"
	KeySkins          = "skins"
	KeyUniverses      = "universes"
	KeyAdded          = "added"
	KeyChanges        = "changes"
	KeyPersistentVars = "persistentVars"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the SQLite-backed state store.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the Store in dbDir.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS change_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		fingerprint TEXT NOT NULL,
		skin_count INTEGER NOT NULL,
		changes_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_change_runs_fingerprint ON change_runs(fingerprint);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Get decodes the value stored under key into v. ok is false when the key
// does not exist, in which case v is untouched.
func (s *Store) Get(ctx context.Context, key string, v any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key as JSON, replacing any previous value.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	return set(ctx, s.db, key, v)
}

func set(ctx context.Context, e execer, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", key, err)
	}

	query := `
	INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := e.ExecContext(ctx, query, key, string(value)); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// UpdatedAt returns when key was last written.
func (s *Store) UpdatedAt(ctx context.Context, key string) (time.Time, error) {
	var timestamp string
	err := s.db.QueryRowContext(ctx, `SELECT updated_at FROM kv WHERE key = ?`, key).Scan(&timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get %s timestamp: %w", key, err)
	}
	return parseTimestamp(timestamp), nil
}

// PersistentVars returns the values kept from the previous run, or the
// zero value before the first run.
func (s *Store) PersistentVars(ctx context.Context) (model.PersistentVars, error) {
	var vars model.PersistentVars
	if _, err := s.Get(ctx, KeyPersistentVars, &vars); err != nil {
		return model.PersistentVars{}, err
	}
	return vars, nil
}

// SetPersistentVars stores the values for the next run.
func (s *Store) SetPersistentVars(ctx context.Context, vars model.PersistentVars) error {
	return s.Set(ctx, KeyPersistentVars, vars)
}

// SavePatchData stores a game-data snapshot and its additions in one
// transaction. Default-locale skins are not stored.
func (s *Store) SavePatchData(ctx context.Context, data *model.PatchData, added model.Added) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		values := []struct {
			key string
			v   any
		}{
			{KeyChampions, data.Champions},
			{KeySkinlines, data.Skinlines},
			{KeySkins, data.Skins},
			{KeyUniverses, data.Universes},
			{KeyAdded, added},
		}
		for _, kv := range values {
			if err := set(ctx, tx, kv.key, kv.v); err != nil {
				return err
			}
		}
		return nil
	})
}

// PatchData returns the stored snapshot. ok is false when no snapshot has
// been stored yet.
func (s *Store) PatchData(ctx context.Context) (*model.PatchData, bool, error) {
	data := &model.PatchData{}
	targets := []struct {
		key string
		v   any
	}{
		{KeyChampions, &data.Champions},
		{KeySkinlines, &data.Skinlines},
		{KeySkins, &data.Skins},
		{KeyUniverses, &data.Universes},
	}
	for _, t := range targets {
		ok, err := s.Get(ctx, t.key, t.v)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
	}
	return data, true, nil
}

// Added returns the additions stored with the last snapshot.
func (s *Store) Added(ctx context.Context) (model.Added, error) {
	var added model.Added
	if _, err := s.Get(ctx, KeyAdded, &added); err != nil {
		return model.Added{}, err
	}
	return added, nil
}

// Changes returns the stored change map, empty before the first run.
func (s *Store) Changes(ctx context.Context) (changes.ChangeMap, error) {
	m := changes.ChangeMap{}
	if _, err := s.Get(ctx, KeyChanges, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ChangeRun is one change map that replaced the stored one.
type ChangeRun struct {
	ID          int64             `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Fingerprint string            `json:"fingerprint"`
	SkinCount   int               `json:"skinCount"`
	Changes     changes.ChangeMap `json:"changes,omitempty"`
}

// SaveChanges replaces the stored change map and records it in the run
// history, in one transaction.
func (s *Store) SaveChanges(ctx context.Context, m changes.ChangeMap) (*ChangeRun, error) {
	fingerprint, err := changes.Fingerprint(m)
	if err != nil {
		return nil, err
	}
	changesJSON, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize changes: %w", err)
	}

	run := &ChangeRun{Timestamp: time.Now().UTC(), Fingerprint: fingerprint, SkinCount: len(m), Changes: m}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := set(ctx, tx, KeyChanges, m); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO change_runs (fingerprint, skin_count, changes_json) VALUES (?, ?, ?)`,
			fingerprint, len(m), string(changesJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to record change run: %w", err)
		}
		run.ID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ChangeRuns returns the recorded runs newest first. limit <= 0 returns
// all of them.
func (s *Store) ChangeRuns(ctx context.Context, limit int) ([]ChangeRun, error) {
	query := `
	SELECT id, timestamp, fingerprint, skin_count, changes_json
	FROM change_runs
	ORDER BY id DESC
	`
	args := make([]any, 0)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query change runs: %w", err)
	}
	defer rows.Close()

	var runs []ChangeRun
	for rows.Next() {
		run, err := scanChangeRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ChangeRunByID returns one recorded run.
func (s *Store) ChangeRunByID(ctx context.Context, id int64) (*ChangeRun, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, timestamp, fingerprint, skin_count, changes_json
	FROM change_runs
	WHERE id = ?
	`, id)

	run, err := scanChangeRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("change run %d: %w", id, ErrNotFound)
	}
	return run, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanChangeRun(row scanner) (*ChangeRun, error) {
	var (
		run         ChangeRun
		timestamp   string
		changesJSON string
	)
	if err := row.Scan(&run.ID, &timestamp, &run.Fingerprint, &run.SkinCount, &changesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan change run: %w", err)
	}
	run.Timestamp = parseTimestamp(timestamp)
	if err := json.Unmarshal([]byte(changesJSON), &run.Changes); err != nil {
		return nil, fmt.Errorf("failed to parse change run %d: %w", run.ID, err)
	}
	return &run, nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
