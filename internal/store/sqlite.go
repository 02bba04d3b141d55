package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/adu-proposal/internal/pricingconfig"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const sqliteDialect = "sqlite3"

//go:embed migrations/*.sql
var migrationFS embed.FS

// goose keeps its dialect, base FS and logger in package globals.
var gooseMu sync.Mutex

// SQLiteStore keeps every saved configuration as a revision row.
type SQLiteStore struct {
	logger *zap.Logger
	db     *sql.DB
	now    func() time.Time
}

// OpenSQLite opens the database at path, sets pragmas and applies pending
// migrations.
func OpenSQLite(logger *zap.Logger, path string) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(logger, db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("opened pricing configuration database",
		zap.String("op", "store.OpenSQLite"),
		zap.String("path", path),
	)
	return &SQLiteStore{logger: logger, db: db, now: time.Now}, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA foreign_keys = ON;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set sqlite pragmas: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return db, nil
}

func migrateUp(logger *zap.Logger, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationFS)
	goose.SetLogger(gooseLogger{logger.Sugar()})
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}
	return nil
}

// gooseLogger routes migration output through zap.
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.sugar.Debugw(fmt.Sprintf(format, v...), "op", "store.migrateUp")
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.sugar.Errorw(fmt.Sprintf(format, v...), "op", "store.migrateUp")
}

// Load returns the newest revision.
func (s *SQLiteStore) Load(ctx context.Context) (pricingconfig.Configuration, []string, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM pricing_config_revisions ORDER BY id DESC LIMIT 1`,
	).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		note := "no stored pricing configuration, using defaults"
		s.logger.Info(note,
			zap.String("op", "store.SQLiteStore.Load"),
		)
		c := pricingconfig.Defaults()
		c.LastUpdated = s.now().UTC()
		return c, []string{note}, nil
	}
	if err != nil {
		return pricingconfig.Configuration{}, nil, fmt.Errorf("query pricing configuration: %w", err)
	}

	c, notes := pricingconfig.Load(s.logger, []byte(document), s.now().UTC())
	return c, notes, nil
}

// Save appends c as a new revision.
func (s *SQLiteStore) Save(ctx context.Context, c pricingconfig.Configuration, note string) (pricingconfig.Configuration, error) {
	c, err := prepare(c, s.now())
	if err != nil {
		return pricingconfig.Configuration{}, err
	}
	data, err := pricingconfig.Marshal(c)
	if err != nil {
		return pricingconfig.Configuration{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pricing_config_revisions (version, document, saved_at, note) VALUES (?, ?, ?, ?)`,
		c.Version, string(data), c.LastUpdated.Format(time.RFC3339Nano), note,
	)
	if err != nil {
		return pricingconfig.Configuration{}, fmt.Errorf("insert pricing configuration revision: %w", err)
	}
	id, _ := res.LastInsertId()

	s.logger.Info("saved pricing configuration",
		zap.String("op", "store.SQLiteStore.Save"),
		zap.Int64("revision", id),
		zap.String("note", note),
	)
	return c, nil
}

// History lists revisions newest first. A negative limit lists all of them.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, version, saved_at, note FROM pricing_config_revisions ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query pricing configuration history: %w", err)
	}
	defer rows.Close()

	revisions := []Revision{}
	for rows.Next() {
		var (
			rev     Revision
			savedAt string
		)
		if err := rows.Scan(&rev.ID, &rev.Version, &savedAt, &rev.Note); err != nil {
			return nil, fmt.Errorf("scan pricing configuration revision: %w", err)
		}
		if rev.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
			return nil, fmt.Errorf("parse saved_at of revision %d: %w", rev.ID, err)
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pricing configuration history: %w", err)
	}
	return revisions, nil
}

// Revision returns one revision with its decoded document.
func (s *SQLiteStore) Revision(ctx context.Context, id int64) (Revision, error) {
	var (
		rev      Revision
		savedAt  string
		document string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, version, saved_at, note, document FROM pricing_config_revisions WHERE id = ?`,
		id,
	).Scan(&rev.ID, &rev.Version, &savedAt, &rev.Note, &document)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, ErrNotFound
	}
	if err != nil {
		return Revision{}, fmt.Errorf("query pricing configuration revision %d: %w", id, err)
	}
	if rev.SavedAt, err = time.Parse(time.RFC3339Nano, savedAt); err != nil {
		return Revision{}, fmt.Errorf("parse saved_at of revision %d: %w", id, err)
	}

	c, _ := pricingconfig.Load(s.logger, []byte(document), s.now().UTC())
	rev.Configuration = &c
	return rev, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
