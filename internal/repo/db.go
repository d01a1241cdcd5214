// Package repo implements the data persistence layer for records, backed
// by GORM. This file contains database bootstrapping helpers for SQLite
// (pure Go driver) and PostgreSQL, and the schema migration.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// Supported values of Options.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and tunes the database.
type Options struct {
	Driver  string // sqlite|postgres
	Path    string // SQLite file path
	DSN     string // PostgreSQL DSN
	Tracing bool   // install the OpenTelemetry GORM plugin
	Silent  bool   // silence the GORM logger
}

// OpenDatabase connects to the configured driver, installs tracing when asked and
// tunes the pool.
func OpenDatabase(opts Options) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		db, err = OpenSQLite(opts.Path)
	case DriverPostgres:
		db, err = OpenPostgres(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if opts.Silent {
		db.Logger = logger.Default.LogMode(logger.Silent)
	}
	if opts.Tracing {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	tunePool(db, 10)
	return db, nil
}

// OpenPostgres connects to PostgreSQL using dsn.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres DSN must not be empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	tunePool(db, 25)
	return db, nil
}

func tunePool(db *gorm.DB, conns int) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(conns)
		sqlDB.SetMaxIdleConns(conns)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
}

// AutoMigrate creates or updates the schema, then rewrites legacy status
// spellings to canonical tokens (see NormalizeStatuses).
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&RecordRow{},
		&AuditEntryRow{},
		&IdempotencyRow{},
	)
	if err != nil {
		return err
	}
	_, err = NormalizeStatuses(context.Background(), db)
	return err
}

// ErrDuplicate indicates a unique constraint violation (reference code,
// idempotency key).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation detects unique-constraint violations across drivers
// that may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite: "UNIQUE constraint failed"; Postgres: "duplicate key value violates unique constraint"
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}
