package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options tunes how the embedded database is opened.
type Options struct {
	BusyTimeout time.Duration
	LogLevel    logger.LogLevel
}

// DefaultOptions returns the options used by the API binary.
func DefaultOptions() Options {
	return Options{
		BusyTimeout: 5 * time.Second,
		LogLevel:    logger.Warn,
	}
}

// NewClient opens the SQLite database at dsn.
//
// The pool is capped at one connection: every transaction then holds the only
// writer, which makes transactions serializable without relying on SQLite's
// lock upgrade behaviour.
func NewClient(dsn string, opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(withPragmas(dsn, opts)), &gorm.Config{
		Logger:         logger.Default.LogMode(opts.LogLevel),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// MemoryDSN returns a DSN for a named shared in-memory database.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

func withPragmas(dsn string, opts Options) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if opts.BusyTimeout > 0 {
		dsn += fmt.Sprintf("%s_pragma=busy_timeout(%d)", sep, opts.BusyTimeout.Milliseconds())
	}
	return dsn
}
