package db

import (
	"database/sql"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"avatar-chat/internal/store"
)

// memoryDSN opens a private in-memory database. It lives exactly as long as
// the single pooled connection, so nothing survives a restart.
const memoryDSN = ":memory:?_foreign_keys=on"

// DB is the SQLite-backed store.Store with semaphore-based exclusive access
type DB struct {
	db    *sql.DB
	mutex sync.Mutex
	opts  store.Options
	log   zerolog.Logger
}

var _ store.Store = (*DB)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NewDB creates a new in-memory database with exclusive access control
func NewDB(opts ...store.Option) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", memoryDSN)
	if err != nil {
		return nil, err
	}

	// A second connection would see a different, empty in-memory database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	// Verify connection works
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	o := store.ApplyOptions(opts...)
	return &DB{
		db:   sqlDB,
		opts: o,
		log:  o.Logger.With().Str("component", "store").Str("backend", "sqlite").Logger(),
	}, nil
}

// WithLock executes a function with exclusive database access
func (d *DB) WithLock(fn func() error) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return fn()
}

// WithLockResult executes a function with exclusive database access and returns a result
func WithLockResult[T any](d *DB, fn func() (T, error)) (T, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return fn()
}

// withTx runs fn in a transaction while holding the lock. Any error rolls
// the whole transaction back.
func withTx[T any](d *DB, fn func(tx *sql.Tx) (T, error)) (T, error) {
	return WithLockResult(d, func() (T, error) {
		var zero T
		tx, err := d.db.Begin()
		if err != nil {
			return zero, err
		}

		result, err := fn(tx)
		if err != nil {
			tx.Rollback()
			return zero, err
		}

		if err := tx.Commit(); err != nil {
			return zero, err
		}
		return result, nil
	})
}

// Close closes the database connection, discarding all data
func (d *DB) Close() error {
	return d.db.Close()
}

// tableExists checks if a table exists in the database
func (d *DB) tableExists(tableName string) (bool, error) {
	return WithLockResult(d, func() (bool, error) {
		var count int
		err := d.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?",
			tableName,
		).Scan(&count)
		if err != nil {
			return false, err
		}
		return count > 0, nil
	})
}
