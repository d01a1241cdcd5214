// Package repo implements the data persistence layer for records, backed
// by GORM. This file provides repository functions for RecordRow.
//
// All functions are context-aware and accept a *gorm.DB handle, so they
// compose with transactions. They follow the "thin repository" approach:
// no business rules, only persistence and query composition. Rows are
// translated to domain.Record values by the mapper; a row that cannot be
// reconstructed fails the read with *domain.ReconstructionError.
//
// Error semantics:
//   - Lookups of a missing id return (nil, nil).
//   - Mutations of a missing id return *domain.NotFoundError.
//   - A reference code collision returns ErrDuplicate.
//   - Other DB errors are propagated unchanged.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/unarchive-tracker/internal/domain"
	"github.com/tbourn/unarchive-tracker/internal/search"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// updatableColumns are written by UpdateRecord. Identity, authorship,
// creation time and the deletion mark have dedicated paths.
var updatableColumns = []string{
	"record_type", "status", "requester_name", "reference_code",
	"process_number", "document_type", "department", "responsible_staff",
	"purpose", "request_date", "release_date", "return_date",
	"extension_requested", "urgent", "assigned_to_id", "search_text",
	"updated_at",
}

// CreateRecord inserts rec and returns the stored copy carrying its new id.
func CreateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record, opts ...domain.Option) (*domain.Record, error) {
	if rec.ID() != 0 {
		return nil, errors.New("create: record already has an id")
	}
	row := toRow(rec)
	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return fromRow(row, opts...)
}

// GetRecord returns the live record with id, or (nil, nil).
func GetRecord(ctx context.Context, db *gorm.DB, id int64, opts ...domain.Option) (*domain.Record, error) {
	return getRecord(db.WithContext(ctx), id, opts)
}

// GetRecordIncludingDeleted returns the record with id whether or not it is
// soft-deleted, or (nil, nil).
func GetRecordIncludingDeleted(ctx context.Context, db *gorm.DB, id int64, opts ...domain.Option) (*domain.Record, error) {
	return getRecord(db.WithContext(ctx).Unscoped(), id, opts)
}

func getRecord(tx *gorm.DB, id int64, opts []domain.Option) (*domain.Record, error) {
	var row RecordRow
	err := tx.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromRow(row, opts...)
}

// ListRecords returns one page of records matching q and the total match
// count. q.Pagination is expected to be normalized.
func ListRecords(ctx context.Context, db *gorm.DB, q domain.ListQuery, opts ...domain.Option) ([]*domain.Record, int64, error) {
	scoped := func() *gorm.DB {
		return applyFilter(db.WithContext(ctx).Model(&RecordRow{}), q.Filter)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*domain.Record{}, 0, nil
	}

	// Sort fields are a closed set named after their columns.
	col := string(domain.SortCreatedAt)
	if q.Sort.Field.IsValid() {
		col = string(q.Sort.Field)
	}
	dir := " ASC"
	if q.Sort.Desc {
		dir = " DESC"
	}

	var rows []RecordRow
	err := scoped().
		Order(col + dir).
		Order("id" + dir).
		Offset(q.Pagination.Offset()).
		Limit(q.Pagination.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	recs, err := fromRows(rows, opts...)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// UpdateRecord writes the mutable state of an existing live record.
func UpdateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record, opts ...domain.Option) (*domain.Record, error) {
	row := toRow(rec)
	res := db.WithContext(ctx).
		Model(&RecordRow{}).
		Where("id = ?", row.ID).
		Select(updatableColumns).
		Updates(&row)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return nil, ErrDuplicate
		}
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &domain.NotFoundError{ID: row.ID}
	}
	return GetRecord(ctx, db, row.ID, opts...)
}

// SoftDeleteRecord marks a live record deleted at the given time.
func SoftDeleteRecord(ctx context.Context, db *gorm.DB, id int64, at time.Time) error {
	res := db.WithContext(ctx).
		Model(&RecordRow{}).
		Where("id = ?", id).
		Updates(map[string]any{"deleted_at": at.UTC(), "updated_at": at.UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}

// RestoreRecord clears the deletion mark. Restoring a live record is a
// no-op that still succeeds.
func RestoreRecord(ctx context.Context, db *gorm.DB, id int64, at time.Time) error {
	res := db.WithContext(ctx).
		Unscoped().
		Model(&RecordRow{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]any{"deleted_at": nil, "updated_at": at.UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.WithContext(ctx).Unscoped().Model(&RecordRow{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return &domain.NotFoundError{ID: id}
	}
	return nil
}

// HardDeleteRecord removes the row and its audit trail permanently.
func HardDeleteRecord(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("id = ?", id).Delete(&RecordRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &domain.NotFoundError{ID: id}
		}
		return tx.Where("record_id = ?", id).Delete(&AuditEntryRow{}).Error
	})
}

// ListOverdue returns live, non-terminal records whose request date is
// older than now-deadline, oldest first.
func ListOverdue(ctx context.Context, db *gorm.DB, now time.Time, deadline time.Duration, visibleTo *int64, opts ...domain.Option) ([]*domain.Record, error) {
	tx := overdueScope(db.WithContext(ctx).Model(&RecordRow{}), now, deadline)
	tx = applyFilter(tx, domain.RecordFilter{VisibleTo: visibleTo})
	var rows []RecordRow
	if err := tx.Order("request_date ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows, opts...)
}

// ListUrgent returns live, non-terminal records flagged urgent, oldest
// request first.
func ListUrgent(ctx context.Context, db *gorm.DB, visibleTo *int64, opts ...domain.Option) ([]*domain.Record, error) {
	tx := db.WithContext(ctx).Model(&RecordRow{}).
		Where("urgent = ?", true).
		Where("status NOT IN ?", statusStrings(domain.TerminalStatuses()))
	tx = applyFilter(tx, domain.RecordFilter{VisibleTo: visibleTo})
	var rows []RecordRow
	if err := tx.Order("request_date ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return fromRows(rows, opts...)
}

// ListInvalidRows reports rows, deleted ones included, whose status cannot
// be decoded into a known value.
func ListInvalidRows(ctx context.Context, db *gorm.DB) ([]domain.InvalidRow, error) {
	var rows []struct {
		ID     int64
		Status string
	}
	err := db.WithContext(ctx).Unscoped().Model(&RecordRow{}).
		Select("id, status").
		Where("status NOT IN ?", statusStrings(domain.AllStatuses)).
		Order("id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.InvalidRow, 0, len(rows))
	for _, r := range rows {
		if _, err := domain.NormalizeStatus(r.Status); err != nil {
			out = append(out, domain.InvalidRow{ID: r.ID, Status: r.Status, Reason: err.Error()})
		}
	}
	return out, nil
}

// NormalizeStatuses rewrites stored status spellings that
// domain.NormalizeStatus accepts ("finalizado", " nao coletado ") to their
// canonical token, so SQL predicates see what the mapper sees. Values it
// cannot decode are left alone for ListInvalidRows. It returns the number
// of rows rewritten.
func NormalizeStatuses(ctx context.Context, db *gorm.DB) (int64, error) {
	var raw []string
	err := db.WithContext(ctx).Unscoped().Model(&RecordRow{}).
		Where("status NOT IN ?", statusStrings(domain.AllStatuses)).
		Distinct().
		Pluck("status", &raw).Error
	if err != nil || len(raw) == 0 {
		return 0, err
	}

	var total int64
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, v := range raw {
			st, perr := domain.NormalizeStatus(v)
			if perr != nil {
				continue
			}
			res := tx.Unscoped().Model(&RecordRow{}).
				Where("status = ?", v).
				UpdateColumn("status", string(st))
			if res.Error != nil {
				return res.Error
			}
			total += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func overdueScope(tx *gorm.DB, now time.Time, deadline time.Duration) *gorm.DB {
	return tx.
		Where("status NOT IN ?", statusStrings(domain.TerminalStatuses())).
		Where("request_date < ?", now.UTC().Add(-deadline))
}

// applyFilter composes the WHERE clause for f onto tx.
func applyFilter(tx *gorm.DB, f domain.RecordFilter) *gorm.DB {
	if f.IncludeDeleted {
		tx = tx.Unscoped()
	}
	for _, term := range search.Terms(f.Search) {
		tx = tx.Where(`search_text LIKE ? ESCAPE '\'`, "%"+search.EscapeLike(term)+"%")
	}
	if len(f.Statuses) > 0 {
		tx = tx.Where("status IN ?", statusStrings(f.Statuses))
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		tx = tx.Where("record_type IN ?", types)
	}
	if f.CreatedByID != nil {
		tx = tx.Where("created_by_id = ?", *f.CreatedByID)
	}
	if f.AssignedToID != nil {
		tx = tx.Where("assigned_to_id = ?", *f.AssignedToID)
	}
	if f.VisibleTo != nil {
		tx = tx.Where("(created_by_id = ? OR assigned_to_id = ?)", *f.VisibleTo, *f.VisibleTo)
	}
	if f.Urgent != nil {
		tx = tx.Where("urgent = ?", *f.Urgent)
	}
	if f.RequestDate.From != nil {
		tx = tx.Where("request_date >= ?", f.RequestDate.From.UTC())
	}
	if f.RequestDate.To != nil {
		tx = tx.Where("request_date <= ?", f.RequestDate.To.UTC())
	}
	return tx
}

func statusStrings(ss []domain.Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
