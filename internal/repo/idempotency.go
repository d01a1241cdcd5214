// Package repo implements the data persistence layer for records, backed
// by GORM. This file provides helpers for the idempotency table that gives
// POST /records safe-retry semantics.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetIdempotency returns a non-expired entry for (actorID, key) or
// ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, actorID int64, key string, now time.Time) (*IdempotencyRow, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec IdempotencyRow
	err := db.WithContext(ctx).
		Where("actor_id = ? AND key = ? AND expires_at > ?", actorID, key, now.UTC()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return &rec, err
}

// CreateIdempotency inserts an entry and returns ErrDuplicate on unique
// violation. Expired entries for the same pair are replaced.
func CreateIdempotency(ctx context.Context, db *gorm.DB, actorID int64, key string, recordID int64, status int, now time.Time, ttl time.Duration) (*IdempotencyRow, error) {
	now = now.UTC()
	rec := &IdempotencyRow{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		Key:       key,
		RecordID:  recordID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("actor_id = ? AND key = ? AND expires_at <= ?", actorID, key, now).
			Delete(&IdempotencyRow{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// PurgeExpiredIdempotency deletes entries that expired before now and
// returns how many were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&IdempotencyRow{})
	return res.RowsAffected, res.Error
}
