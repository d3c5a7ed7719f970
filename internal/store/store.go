// Package store keeps a history of parsed coverage reports in SQLite or a
// remote libsql database.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zjy-dev/lcov-parse/internal/logger"
	"github.com/zjy-dev/lcov-parse/internal/report"
)

// AuthTokenEnv names the environment variable holding the libsql token.
const AuthTokenEnv = "LCOVPARSE_LIBSQL_AUTH_TOKEN"

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store is the report history database.
type Store struct {
	db *gorm.DB
}

// Connect establishes a database connection and runs migrations.
// dsn is a sqlite file path, ":memory:", or a libsql://, http:// or
// https:// URL.
func Connect(dsn string, debug bool) (*Store, error) {
	// Ensure directory exists for file-based SQLite
	if !isURL(dsn) && dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	config := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	if debug {
		config.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var (
		dialector gorm.Dialector
		conn      *sql.DB
	)
	if isURL(dsn) {
		var (
			connector driver.Connector
			err       error
		)

		token := os.Getenv(AuthTokenEnv)
		if token != "" {
			connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(token))
		} else {
			connector, err = libsql.NewConnector(dsn)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create libsql connector: %w", err)
		}

		conn = sql.OpenDB(connector)
		dialector = &sqlite.Dialector{
			DriverName: "libsql",
			Conn:       conn,
			DSN:        dsn,
		}
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		// every connection to :memory: opens a new empty database
		if dsn == ":memory:" {
			sqlDB.SetMaxOpenConns(1)
		}
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		closeDB(db)
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	logger.Debug("Connected to report history %s", dsn)
	return &Store{db: db}, nil
}

// isURL checks if the DSN is a URL (remote libsql) or a file path.
func isURL(dsn string) bool {
	for _, prefix := range []string{"libsql://", "http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

// Migrate runs database migrations.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Run{},
		&PathSummary{},
	)
}

// Save stores doc as a new run read from source.
func (s *Store) Save(ctx context.Context, source string, doc report.Document) (*Run, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	total := doc.TotalSummary()
	paths := doc.PathList()
	run := &Run{
		Source:        source,
		Mode:          doc.Mode().String(),
		LineTotal:     total.Line.Total,
		LineHit:       total.Line.Hit,
		FunctionTotal: total.Function.Total,
		FunctionHit:   total.Function.Hit,
		BranchTotal:   total.Branch.Total,
		BranchHit:     total.Branch.Hit,
		PathCount:     len(paths),
		Payload:       payload,
		Paths:         make([]PathSummary, 0, len(paths)),
	}
	for _, path := range paths {
		summary, ok := doc.PathSummary(path)
		if !ok {
			continue
		}
		run.Paths = append(run.Paths, PathSummary{
			Path:          path,
			LineTotal:     summary.Line.Total,
			LineHit:       summary.Line.Hit,
			FunctionTotal: summary.Function.Total,
			FunctionHit:   summary.Function.Hit,
			BranchTotal:   summary.Branch.Total,
			BranchHit:     summary.Branch.Hit,
		})
	}

	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first, without their paths and
// payload. A limit <= 0 returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := s.db.WithContext(ctx).Omit("Payload").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []Run
	if err := query.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with its paths in their report order.
func (s *Store) Get(ctx context.Context, id uint) (*Run, error) {
	var run Run
	err := s.db.WithContext(ctx).
		Preload("Paths", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&run, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return &run, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return closeDB(s.db)
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
