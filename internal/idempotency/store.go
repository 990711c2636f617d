// Package idempotency records webhook event ids so that redelivered
// events can be recognized and skipped. Records expire after a fixed
// retention window and are never otherwise updated or deleted.
package idempotency

import (
	"context"
	"time"
)

// Record is one sighting of a webhook event id.
type Record struct {
	EventID   string    `gorm:"primaryKey;column:event_id"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

// TableName implements the GORM tabler interface.
func (Record) TableName() string { return "webhook_events" }

// Store is a key-value existence check and insert on event ids.
//
// Exists followed by Put is deliberately not atomic: concurrent delivery
// of the same event id can slip through the gap between the two calls.
// The upstream gateway delivers sequentially in practice, so this race is
// an accepted gap rather than something the store guards against.
type Store interface {
	// Exists reports whether eventID has been recorded within the
	// retention window.
	Exists(ctx context.Context, eventID string) (bool, error)

	// Put records eventID with the current timestamp.
	Put(ctx context.Context, eventID string) error
}
