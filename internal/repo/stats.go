// Package repo implements the data persistence layer for records, backed
// by GORM. This file provides aggregate queries: the dashboard counters
// and the count/last-modified pair the HTTP layer turns into list ETags.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/unarchive-tracker/internal/domain"
)

// RecordsStats returns the number of live records visible under filter and
// the greatest UpdatedAt among them (nil when there are none).
func RecordsStats(ctx context.Context, db *gorm.DB, f domain.RecordFilter) (count int64, maxUpdatedAt *time.Time, err error) {
	scoped := func() *gorm.DB {
		return applyFilter(db.WithContext(ctx).Model(&RecordRow{}), f)
	}

	if err = scoped().Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = scoped().Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	t := row.UpdatedAt.UTC()
	return count, &t, nil
}

// DashboardStats aggregates live records in scope of q. Unknown status
// values are counted in Total and ByStatus under their raw value but in no
// lifecycle bucket.
func DashboardStats(ctx context.Context, db *gorm.DB, q domain.StatsQuery) (*domain.DashboardStats, error) {
	scoped := func() *gorm.DB {
		return applyFilter(db.WithContext(ctx).Model(&RecordRow{}), domain.RecordFilter{
			VisibleTo:   q.VisibleTo,
			RequestDate: q.RequestDate,
		})
	}

	out := &domain.DashboardStats{
		ByStatus: make(map[domain.Status]int64, len(domain.AllStatuses)),
		ByType:   make(map[domain.RecordType]int64, 3),
	}

	var byStatus []struct {
		Status string
		N      int64
	}
	if err := scoped().Select("status, COUNT(*) AS n").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, r := range byStatus {
		out.Total += r.N
		st, err := domain.NormalizeStatus(r.Status)
		if err != nil {
			out.ByStatus[domain.Status(r.Status)] += r.N
			continue
		}
		out.ByStatus[st] += r.N
		switch {
		case st.IsPending():
			out.Pending += r.N
		case st.IsFinal():
			out.Finalized += r.N
		case st.IsInProgress():
			out.InProgress += r.N
		}
	}

	var byType []struct {
		RecordType string
		N          int64
	}
	if err := scoped().Select("record_type, COUNT(*) AS n").Group("record_type").Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, r := range byType {
		out.ByType[domain.RecordType(r.RecordType)] += r.N
	}

	deadline := q.Deadline
	if deadline <= 0 {
		deadline = domain.DefaultDeadline
	}
	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	if err := overdueScope(scoped(), now, deadline).Count(&out.Overdue).Error; err != nil {
		return nil, err
	}
	err := scoped().
		Where("urgent = ?", true).
		Where("status NOT IN ?", statusStrings(domain.TerminalStatuses())).
		Count(&out.Urgent).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
