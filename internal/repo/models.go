// Package repo implements the data persistence layer for records, backed
// by GORM. This file declares the row types; the aggregate itself lives in
// package domain and is translated by the mapper.
package repo

import (
	"time"

	"gorm.io/gorm"
)

// RecordRow is the persisted form of a domain.Record.
//
// Status and RecordType are stored as plain strings so legacy or corrupted
// values reach the mapper intact and can be reported instead of being
// rejected by the driver. Timestamps are owned by the domain clock, so the
// GORM auto-time hooks are disabled. DeletedAt drives GORM's soft-delete
// scope: rows with a deletion mark are invisible unless Unscoped.
type RecordRow struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement"`
	RecordType         string         `gorm:"type:varchar(16);not null;index"`
	Status             string         `gorm:"type:varchar(32);not null;index:idx_records_status_request,priority:1"`
	RequesterName      string         `gorm:"type:varchar(255);not null"`
	ReferenceCode      string         `gorm:"type:varchar(100);not null;uniqueIndex:ux_records_reference"`
	ProcessNumber      string         `gorm:"type:varchar(100)"`
	DocumentType       string         `gorm:"type:varchar(100);not null"`
	Department         string         `gorm:"type:varchar(255);not null"`
	ResponsibleStaff   string         `gorm:"type:varchar(255);not null"`
	Purpose            string         `gorm:"type:text;not null"`
	RequestDate        time.Time      `gorm:"not null;index:idx_records_status_request,priority:2"`
	ReleaseDate        *time.Time
	ReturnDate         *time.Time
	ExtensionRequested bool           `gorm:"not null;default:false"`
	Urgent             bool           `gorm:"not null;default:false;index"`
	CreatedByID        int64          `gorm:"not null;index"`
	AssignedToID       *int64         `gorm:"index"`
	SearchText         string         `gorm:"type:text;not null;default:''"`
	CreatedAt          time.Time      `gorm:"not null;autoCreateTime:false"`
	UpdatedAt          time.Time      `gorm:"not null;autoUpdateTime:false"`
	DeletedAt          gorm.DeletedAt `gorm:"index"`
}

// TableName returns the database table name for RecordRow.
func (RecordRow) TableName() string { return "records" }

// AuditEntryRow is one state-changing operation on a record.
type AuditEntryRow struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	RecordID  int64     `gorm:"not null;index:idx_audit_record,priority:1"`
	ActorID   int64     `gorm:"not null;index"`
	Action    string    `gorm:"type:varchar(32);not null"`
	Before    string    `gorm:"type:text"`
	After     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false;index:idx_audit_record,priority:2"`
}

// TableName returns the database table name for AuditEntryRow.
func (AuditEntryRow) TableName() string { return "audit_entries" }

// IdempotencyRow remembers which record a create request produced, keyed
// by (actor_id, key), so client retries return the original record.
type IdempotencyRow struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	ActorID   int64     `gorm:"not null;uniqueIndex:ux_actor_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_actor_key,priority:2"`
	RecordID  int64     `gorm:"not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (IdempotencyRow) TableName() string { return "idempotency" }
