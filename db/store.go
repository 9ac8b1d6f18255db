// Package db owns the connection to the database
package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"notedai/api/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrUnavailable wraps every failure to establish the connection. Handlers
// answer it with 503 and never retry on their own.
var ErrUnavailable = errors.New("database unavailable")

type Options struct {
	Driver         string
	DSN            string
	ConnectTimeout time.Duration
	Hasher         model.PasswordHasher
}

// Store lazily opens a single connection pool and hands it out to every
// request. The zero value is not usable, create one with New.
type Store struct {
	opts Options

	mu sync.Mutex
	db *gorm.DB
}

func New(o Options) *Store {
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}

	return &Store{opts: o}
}

// Connect returns the live handle, establishing it first if needed.
// Calling it again after a success is cheap and returns the same pool.
func (s *Store) Connect(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.WithContext(ctx), nil
	}

	if s.opts.Hasher == nil {
		return nil, model.ErrNoHasher
	}

	dialector, err := s.dialector()
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		TranslateError:       true,
		DisableAutomaticPing: true,
		NowFunc:              func() time.Time { return time.Now().UTC() },
		Logger: logger.New(zap.NewStdLog(zap.L().Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database, %v", ErrUnavailable, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if s.opts.Driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	connectCtx, cancel := context.WithTimeout(ctx, s.opts.ConnectTimeout)
	defer cancel()

	if err := sqlDB.PingContext(connectCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := gdb.WithContext(connectCtx).AutoMigrate(&model.User{}, &model.LiveSession{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	s.db = gdb.Set(model.HasherKey, s.opts.Hasher).Session(&gorm.Session{})

	zap.L().Info("Database connected", zap.String("driver", s.opts.Driver))

	return s.db.WithContext(ctx), nil
}

// Close releases the pool. A later Connect opens a new one.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (s *Store) dialector() (gorm.Dialector, error) {
	switch s.opts.Driver {
	case "postgres":
		return postgres.Open(s.opts.DSN), nil
	case "sqlite":
		return sqlite.Open(s.opts.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", s.opts.Driver)
	}
}
