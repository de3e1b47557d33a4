package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DefaultLimit is used by ListRecent when the caller passes a non-positive limit.
const DefaultLimit = 10

var (
	// ErrStorageUnavailable wraps any failure to open, read or write the history database.
	ErrStorageUnavailable = errors.New("history storage unavailable")
	// ErrEmptyCity is returned by Record for a blank city name.
	ErrEmptyCity = errors.New("city must not be empty")
)

// Store is the durable, deduplicated search history.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (or creates) the SQLite database at path and initializes the schema.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorageUnavailable, path, err)
	}
	return New(db, opts...)
}

// New initializes the schema on db and returns a Store backed by it.
// It is safe to call on a database that already holds history.
func New(db *gorm.DB, opts ...Option) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	// SQLite allows one writer; a single connection also serializes the
	// delete+insert transaction against concurrent readers.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&SearchRecord{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %w", ErrStorageUnavailable, err)
	}

	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Record registers a search for city, replacing any earlier record so the
// city moves to the front of the recency order.
func (s *Store) Record(ctx context.Context, city string) (SearchRecord, error) {
	if strings.TrimSpace(city) == "" {
		return SearchRecord{}, ErrEmptyCity
	}

	rec := SearchRecord{City: city}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("city = ?", city).Delete(&SearchRecord{}).Error; err != nil {
			return err
		}
		rec.Timestamp = s.now().UTC()
		return tx.Create(&rec).Error
	})
	if err != nil {
		return SearchRecord{}, fmt.Errorf("%w: record %q: %w", ErrStorageUnavailable, city, err)
	}
	return rec, nil
}

// ListRecent returns up to limit city names, most recently searched first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	order := clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "timestamp"}, Desc: true},
		{Column: clause.Column{Name: "id"}, Desc: true},
	}}

	cities := make([]string, 0, limit)
	err := s.db.WithContext(ctx).
		Model(&SearchRecord{}).
		Clauses(order).
		Limit(limit).
		Pluck("city", &cities).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list recent: %w", ErrStorageUnavailable, err)
	}
	if cities == nil {
		cities = []string{}
	}
	return cities, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
