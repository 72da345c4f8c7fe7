package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	appErr "judgegate/pkg/errors"

	"go.uber.org/zap"
)

// DefaultTimeout is how long a connection is trusted before it is reopened.
const DefaultTimeout = 120 * time.Second

// MySQLConfig holds the configuration for the MySQL store
type MySQLConfig struct {
	// DSN is the data source name. When empty it is built from the fields below.
	// Format: "user:password@tcp(host:port)/dbname?charset=utf8mb4"
	DSN string `yaml:"dsn"`

	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Charset  string `yaml:"charset"`

	// Timeout bounds the age of a connection; the next call after it
	// elapses reconnects first.
	// Default: 120 seconds
	Timeout time.Duration `yaml:"timeout"`

	// PingTimeout bounds the connection check after opening.
	// Default: 5 seconds
	PingTimeout time.Duration `yaml:"pingTimeout"`
}

// Row is one result row keyed by column name.
type Row map[string]any

// ExecResult is the outcome of a data-modifying statement.
type ExecResult struct {
	RowsAffected int64
	LastInsertID int64
}

// Opener opens a database handle for cfg.
type Opener func(cfg *MySQLConfig) (*sql.DB, error)

// Option customizes a Store.
type Option func(*Store)

// WithOpener replaces the MySQL opener.
func WithOpener(open Opener) Option {
	return func(s *Store) { s.open = open }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithReconnectHook registers a callback invoked after every successful reconnect.
func WithReconnectHook(fn func()) Option {
	return func(s *Store) { s.onReconnect = fn }
}

// Store is a single-connection MySQL client that reopens its connection once
// it is older than the configured timeout. Calls are serialized.
type Store struct {
	cfg MySQLConfig
	log *zap.Logger

	open        Opener
	now         func() time.Time
	onReconnect func()

	mu       sync.Mutex
	db       *sql.DB
	deadline time.Time
}

// NewStore opens the first connection.
func NewStore(cfg MySQLConfig, log *zap.Logger, opts ...Option) (*Store, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		cfg:  cfg,
		log:  log.Named("mysql"),
		open: openMySQL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

func openMySQL(cfg *MySQLConfig) (*sql.DB, error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	return db, nil
}

// connect opens and verifies a fresh handle. Caller holds s.mu.
func (s *Store) connect() error {
	db, err := s.open(&s.cfg)
	if err != nil {
		s.log.Error("connect to database failed", zap.Error(err))
		return appErr.Wrap(err, appErr.DatabaseError)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		s.log.Error("ping database failed", zap.Error(err))
		return appErr.Wrapf(err, appErr.DatabaseError, "failed to ping database: %v", err)
	}

	s.db = db
	s.deadline = s.now().Add(s.cfg.Timeout)
	return nil
}

// ensureFresh reconnects when there is no handle or the current one expired.
// Caller holds s.mu.
func (s *Store) ensureFresh() error {
	if s.db != nil && !s.now().After(s.deadline) {
		return nil
	}
	if s.db != nil {
		s.log.Info("database connection expired, reconnecting")
		if err := s.db.Close(); err != nil {
			s.log.Warn("close expired connection failed", zap.Error(err))
		}
		s.db = nil
	}
	if err := s.connect(); err != nil {
		return err
	}
	if s.onReconnect != nil {
		s.onReconnect()
	}
	return nil
}

// Query runs a row-returning statement. []byte column values are returned as strings.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFresh(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logFailure("query failed", query, args, err)
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "query failed: %v", err)
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		s.logFailure("scan rows failed", query, args, err)
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "scan failed: %v", err)
	}
	return result, nil
}

// Execute runs a statement that modifies data.
func (s *Store) Execute(ctx context.Context, query string, args ...any) (ExecResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureFresh(); err != nil {
		return ExecResult{}, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logFailure("exec failed", query, args, err)
		return ExecResult{}, appErr.Wrapf(err, appErr.DatabaseError, "exec failed: %v", err)
	}

	var out ExecResult
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

// Close closes the current connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close failed: %w", err)
	}
	return nil
}

func (s *Store) logFailure(msg, query string, args []any, err error) {
	s.log.Error(msg,
		zap.String("sql", query),
		zap.Any("args", args),
		zap.Error(err),
	)
}
