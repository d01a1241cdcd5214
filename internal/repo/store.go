package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/unarchive-tracker/internal/domain"
)

// RecordStore adapts the repository free functions to the method set the
// service layer depends on. Opts are applied to every reconstructed record
// so that clock and deadline match the caller's configuration.
type RecordStore struct {
	Opts []domain.Option
}

// NewRecordStore returns a RecordStore reconstructing records with opts.
func NewRecordStore(opts ...domain.Option) RecordStore {
	return RecordStore{Opts: opts}
}

// CreateRecord proxies CreateRecord.
func (s RecordStore) CreateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) (*domain.Record, error) {
	return CreateRecord(ctx, db, rec, s.Opts...)
}

// GetRecord proxies GetRecord.
func (s RecordStore) GetRecord(ctx context.Context, db *gorm.DB, id int64) (*domain.Record, error) {
	return GetRecord(ctx, db, id, s.Opts...)
}

// GetRecordIncludingDeleted proxies GetRecordIncludingDeleted.
func (s RecordStore) GetRecordIncludingDeleted(ctx context.Context, db *gorm.DB, id int64) (*domain.Record, error) {
	return GetRecordIncludingDeleted(ctx, db, id, s.Opts...)
}

// ListRecords proxies ListRecords.
func (s RecordStore) ListRecords(ctx context.Context, db *gorm.DB, q domain.ListQuery) ([]*domain.Record, int64, error) {
	return ListRecords(ctx, db, q, s.Opts...)
}

// UpdateRecord proxies UpdateRecord.
func (s RecordStore) UpdateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) (*domain.Record, error) {
	return UpdateRecord(ctx, db, rec, s.Opts...)
}

// SoftDeleteRecord proxies SoftDeleteRecord.
func (RecordStore) SoftDeleteRecord(ctx context.Context, db *gorm.DB, id int64, at time.Time) error {
	return SoftDeleteRecord(ctx, db, id, at)
}

// RestoreRecord proxies RestoreRecord.
func (RecordStore) RestoreRecord(ctx context.Context, db *gorm.DB, id int64, at time.Time) error {
	return RestoreRecord(ctx, db, id, at)
}

// HardDeleteRecord proxies HardDeleteRecord.
func (RecordStore) HardDeleteRecord(ctx context.Context, db *gorm.DB, id int64) error {
	return HardDeleteRecord(ctx, db, id)
}

// ListOverdue proxies ListOverdue.
func (s RecordStore) ListOverdue(ctx context.Context, db *gorm.DB, now time.Time, deadline time.Duration, visibleTo *int64) ([]*domain.Record, error) {
	return ListOverdue(ctx, db, now, deadline, visibleTo, s.Opts...)
}

// ListUrgent proxies ListUrgent.
func (s RecordStore) ListUrgent(ctx context.Context, db *gorm.DB, visibleTo *int64) ([]*domain.Record, error) {
	return ListUrgent(ctx, db, visibleTo, s.Opts...)
}

// DashboardStats proxies DashboardStats.
func (RecordStore) DashboardStats(ctx context.Context, db *gorm.DB, q domain.StatsQuery) (*domain.DashboardStats, error) {
	return DashboardStats(ctx, db, q)
}

// RecordsStats proxies RecordsStats.
func (RecordStore) RecordsStats(ctx context.Context, db *gorm.DB, f domain.RecordFilter) (int64, *time.Time, error) {
	return RecordsStats(ctx, db, f)
}

// ListInvalidRows proxies ListInvalidRows.
func (RecordStore) ListInvalidRows(ctx context.Context, db *gorm.DB) ([]domain.InvalidRow, error) {
	return ListInvalidRows(ctx, db)
}

// InsertAudit proxies InsertAudit.
func (RecordStore) InsertAudit(ctx context.Context, db *gorm.DB, e AuditEntry) error {
	return InsertAudit(ctx, db, e)
}

// GetIdempotency proxies GetIdempotency.
func (RecordStore) GetIdempotency(ctx context.Context, db *gorm.DB, actorID int64, key string, now time.Time) (*IdempotencyRow, error) {
	return GetIdempotency(ctx, db, actorID, key, now)
}

// CreateIdempotency proxies CreateIdempotency.
func (RecordStore) CreateIdempotency(ctx context.Context, db *gorm.DB, actorID int64, key string, recordID int64, status int, now time.Time, ttl time.Duration) (*IdempotencyRow, error) {
	return CreateIdempotency(ctx, db, actorID, key, recordID, status, now, ttl)
}

// PurgeExpiredIdempotency proxies PurgeExpiredIdempotency.
func (RecordStore) PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	return PurgeExpiredIdempotency(ctx, db, now)
}
