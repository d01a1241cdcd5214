// Package repo implements the data persistence layer for records, backed
// by GORM. This file stores the audit trail of state-changing operations.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEntry is one audit line as written by the service layer. Before and
// After hold JSON documents of the record state (empty when absent).
type AuditEntry struct {
	RecordID int64
	ActorID  int64
	Action   string
	Before   string
	After    string
	At       time.Time
}

// InsertAudit appends e to the audit trail.
func InsertAudit(ctx context.Context, db *gorm.DB, e AuditEntry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	row := AuditEntryRow{
		ID:        uuid.NewString(),
		RecordID:  e.RecordID,
		ActorID:   e.ActorID,
		Action:    e.Action,
		Before:    e.Before,
		After:     e.After,
		CreatedAt: at.UTC(),
	}
	return db.WithContext(ctx).Create(&row).Error
}

// ListAudit returns the audit trail of a record, oldest first.
func ListAudit(ctx context.Context, db *gorm.DB, recordID int64) ([]AuditEntryRow, error) {
	var rows []AuditEntryRow
	err := db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
