package repo

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/unarchive-tracker/internal/domain"
	"github.com/tbourn/unarchive-tracker/internal/search"
)

// toRow converts a record into its row form, refreshing the folded search
// column.
func toRow(rec *domain.Record) RecordRow {
	s := rec.Snapshot()
	row := RecordRow{
		ID:                 s.ID,
		RecordType:         string(s.RecordType),
		Status:             string(s.Status),
		RequesterName:      s.RequesterName,
		ReferenceCode:      s.ReferenceCode,
		ProcessNumber:      s.ProcessNumber,
		DocumentType:       s.DocumentType,
		Department:         s.Department,
		ResponsibleStaff:   s.ResponsibleStaff,
		Purpose:            s.Purpose,
		RequestDate:        s.RequestDate.UTC(),
		ReleaseDate:        utcPtr(s.ReleaseDate),
		ReturnDate:         utcPtr(s.ReturnDate),
		ExtensionRequested: s.ExtensionRequested,
		Urgent:             s.Urgent,
		CreatedByID:        s.CreatedByID,
		AssignedToID:       s.AssignedToID,
		SearchText:         searchText(s.RequesterName, s.ReferenceCode, s.ProcessNumber),
		CreatedAt:          s.CreatedAt.UTC(),
		UpdatedAt:          s.UpdatedAt.UTC(),
	}
	if s.DeletedAt != nil {
		row.DeletedAt = gorm.DeletedAt{Time: s.DeletedAt.UTC(), Valid: true}
	}
	return row
}

// fromRow rebuilds a record from a row. Status and type are decoded
// leniently (case, spacing); anything that still fails surfaces as a
// *domain.ReconstructionError carrying the row id.
func fromRow(row RecordRow, opts ...domain.Option) (*domain.Record, error) {
	st, err := domain.NormalizeStatus(row.Status)
	if err != nil {
		return nil, &domain.ReconstructionError{ID: row.ID, Cause: err}
	}
	typ, err := domain.ParseRecordType(row.RecordType)
	if err != nil {
		return nil, &domain.ReconstructionError{ID: row.ID, Cause: err}
	}
	process := strings.TrimSpace(row.ProcessNumber)
	if process == "" {
		process = domain.ProcessNumberPlaceholder
	}
	s := domain.Snapshot{
		ID:                 row.ID,
		RecordType:         typ,
		Status:             st,
		RequesterName:      row.RequesterName,
		ReferenceCode:      row.ReferenceCode,
		ProcessNumber:      process,
		DocumentType:       row.DocumentType,
		Department:         row.Department,
		ResponsibleStaff:   row.ResponsibleStaff,
		Purpose:            row.Purpose,
		RequestDate:        row.RequestDate.UTC(),
		ReleaseDate:        utcPtr(row.ReleaseDate),
		ReturnDate:         utcPtr(row.ReturnDate),
		ExtensionRequested: row.ExtensionRequested,
		Urgent:             row.Urgent,
		CreatedByID:        row.CreatedByID,
		AssignedToID:       row.AssignedToID,
		CreatedAt:          row.CreatedAt.UTC(),
		UpdatedAt:          row.UpdatedAt.UTC(),
	}
	if row.DeletedAt.Valid {
		t := row.DeletedAt.Time.UTC()
		s.DeletedAt = &t
	}
	return domain.Reconstruct(s, opts...)
}

func fromRows(rows []RecordRow, opts ...domain.Option) ([]*domain.Record, error) {
	out := make([]*domain.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func searchText(fields ...string) string {
	return search.Document(fields...)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
