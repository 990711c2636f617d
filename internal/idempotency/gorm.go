package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormStore is a SQLite-backed Store. Expired records are purged
// opportunistically on reads and by PurgeLoop.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	log zerolog.Logger
	now func() time.Time
}

// NewGormStore opens (or creates) the SQLite database at path and
// migrates the webhook_events table. ttl is the retention window after
// which records are considered expired.
func NewGormStore(path string, ttl time.Duration, log zerolog.Logger) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("NewGormStore: opening sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("NewGormStore: migrating webhook_events: %w", err)
	}

	return &GormStore{
		db:  db,
		ttl: ttl,
		log: log,
		now: time.Now,
	}, nil
}

// Exists implements the Store interface. Records older than the
// retention window are purged first so a long-expired id reads as unseen.
func (s *GormStore) Exists(ctx context.Context, eventID string) (bool, error) {
	if err := s.purgeExpired(ctx); err != nil {
		// Purge failure is not fatal for the lookup; stale rows only
		// widen the dedup window.
		s.log.Warn().Err(err).Msg("Failed to purge expired webhook events")
	}

	var record Record
	err := s.db.WithContext(ctx).First(&record, "event_id = ?", eventID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("GormStore.Exists: looking up event %s: %w", eventID, err)
	}

	return true, nil
}

// Put implements the Store interface.
func (s *GormStore) Put(ctx context.Context, eventID string) error {
	record := Record{
		EventID:   eventID,
		CreatedAt: s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("GormStore.Put: recording event %s: %w", eventID, err)
	}
	return nil
}

// PurgeLoop deletes expired records every period until ctx is cancelled.
// Run it in a background goroutine; Exists also purges on its own, so the
// loop only bounds how long dead rows linger in an idle service.
func (s *GormStore) PurgeLoop(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.purgeExpired(ctx); err != nil {
				s.log.Warn().Err(err).Msg("Failed to purge expired webhook events")
			}
		}
	}
}

func (s *GormStore) purgeExpired(ctx context.Context) error {
	cutoff := s.now().Add(-s.ttl)
	return s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&Record{}).Error
}

// Ensure GormStore implements the Store interface.
var _ Store = (*GormStore)(nil)
