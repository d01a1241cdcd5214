package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/unarchive-tracker/internal/domain"
)

var now0 = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func clockOpts() []domain.Option {
	return []domain.Option{domain.WithClock(domain.FixedClock(now0))}
}

func input(ref string, mod ...func(*domain.NewRecord)) domain.NewRecord {
	in := domain.NewRecord{
		RecordType:       domain.TypePhysical,
		RequesterName:    "Maria Souza",
		ReferenceCode:    ref,
		ProcessNumber:    "0001234-56.2025.8.26.0100",
		DocumentType:     "Inquérito",
		Department:       "Vara Criminal",
		ResponsibleStaff: "Setor de Arquivo",
		Purpose:          "Consulta",
		RequestDate:      now0.Add(-24 * time.Hour),
		CreatedByID:      1,
	}
	for _, m := range mod {
		m(&in)
	}
	return in
}

func seed(t *testing.T, db *gorm.DB, in domain.NewRecord) *domain.Record {
	t.Helper()
	rec, err := domain.New(in, clockOpts()...)
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	saved, err := CreateRecord(context.Background(), db, rec, clockOpts()...)
	if err != nil {
		t.Fatalf("CreateRecord: %v", err)
	}
	return saved
}

func id64(v int64) *int64 { return &v }

func TestCreateRecord_AssignsID_AndRoundTrips(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	saved := seed(t, db, input("REF-1", func(in *domain.NewRecord) {
		in.RequesterName = "João Conceição"
		in.Urgent = true
		in.AssignedToID = id64(7)
	}))
	if saved.ID() <= 0 {
		t.Fatalf("expected positive id, got %d", saved.ID())
	}

	got, err := GetRecord(ctx, db, saved.ID(), clockOpts()...)
	if err != nil || got == nil {
		t.Fatalf("GetRecord: rec=%v err=%v", got, err)
	}
	if got.Status() != domain.StatusRequested || !got.Urgent() || !got.IsAssignedTo(7) {
		t.Fatalf("unexpected state after round trip: %+v", got.Snapshot())
	}
	if !got.CreatedAt().Equal(now0) || !got.RequestDate().Equal(now0.Add(-24*time.Hour)) {
		t.Fatalf("timestamps drifted: %+v", got.Snapshot())
	}

	var row RecordRow
	if err := db.First(&row, "id = ?", saved.ID()).Error; err != nil {
		t.Fatalf("read row: %v", err)
	}
	if !strings.Contains(row.SearchText, "joao conceicao") {
		t.Fatalf("search_text not folded: %q", row.SearchText)
	}
}

func TestCreateRecord_RejectsPersistedRecord(t *testing.T) {
	db := newTestDB(t)
	saved := seed(t, db, input("REF-1"))
	if _, err := CreateRecord(context.Background(), db, saved); err == nil {
		t.Fatalf("expected error when creating a record that already has an id")
	}
}

func TestCreateRecord_DuplicateReference(t *testing.T) {
	db := newTestDB(t)
	seed(t, db, input("REF-DUP"))

	rec, err := domain.New(input("REF-DUP"), clockOpts()...)
	if err != nil {
		t.Fatalf("domain.New: %v", err)
	}
	if _, err := CreateRecord(context.Background(), db, rec); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetRecord_MissingIsNilNil(t *testing.T) {
	db := newTestDB(t)
	got, err := GetRecord(context.Background(), db, 999)
	if got != nil || err != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestUpdateRecord_PersistsMutation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	saved := seed(t, db, input("REF-1"))

	later := now0.Add(time.Hour)
	rec, err := GetRecord(ctx, db, saved.ID(), domain.WithClock(domain.FixedClock(later)))
	if err != nil || rec == nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if err := rec.AssignResponsible(9); err != nil {
		t.Fatalf("AssignResponsible: %v", err)
	}

	got, err := UpdateRecord(ctx, db, rec)
	if err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	if got.Status() != domain.StatusReleased || !got.IsAssignedTo(9) {
		t.Fatalf("update not persisted: %+v", got.Snapshot())
	}
	if !got.UpdatedAt().Equal(later) || !got.CreatedAt().Equal(now0) {
		t.Fatalf("unexpected timestamps: created=%v updated=%v", got.CreatedAt(), got.UpdatedAt())
	}
}

func TestUpdateRecord_MissingRow(t *testing.T) {
	db := newTestDB(t)
	rec, err := domain.Reconstruct(domain.Snapshot{
		ID: 42, RecordType: domain.TypeDigital, Status: domain.StatusRequested,
		RequesterName: "A", ReferenceCode: "R", ProcessNumber: "P", DocumentType: "D",
		Department: "S", ResponsibleStaff: "E", Purpose: "F",
		RequestDate: now0, CreatedByID: 1, CreatedAt: now0, UpdatedAt: now0,
	})
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	_, err = UpdateRecord(context.Background(), db, rec)
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.ID != 42 {
		t.Fatalf("expected NotFoundError{42}, got %v", err)
	}
}

func TestSoftDelete_Restore_Cycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	saved := seed(t, db, input("REF-1"))
	at := now0.Add(2 * time.Hour)

	if err := SoftDeleteRecord(ctx, db, saved.ID(), at); err != nil {
		t.Fatalf("SoftDeleteRecord: %v", err)
	}
	if got, _ := GetRecord(ctx, db, saved.ID()); got != nil {
		t.Fatalf("soft-deleted record must be hidden")
	}
	items, total, err := ListRecords(ctx, db, domain.ListQuery{Pagination: domain.Pagination{Page: 1, PageSize: 10}})
	if err != nil || total != 0 || len(items) != 0 {
		t.Fatalf("expected empty list, got total=%d len=%d err=%v", total, len(items), err)
	}

	del, err := GetRecordIncludingDeleted(ctx, db, saved.ID())
	if err != nil || del == nil || !del.IsDeleted() {
		t.Fatalf("expected deleted record via unscoped read, got %v err=%v", del, err)
	}
	if !del.DeletedAt().Equal(at) {
		t.Fatalf("deleted_at = %v; want %v", del.DeletedAt(), at)
	}

	// Deleting again finds no live row.
	var nf *domain.NotFoundError
	if err := SoftDeleteRecord(ctx, db, saved.ID(), at); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}

	if err := RestoreRecord(ctx, db, saved.ID(), at.Add(time.Hour)); err != nil {
		t.Fatalf("RestoreRecord: %v", err)
	}
	got, err := GetRecord(ctx, db, saved.ID())
	if err != nil || got == nil || got.IsDeleted() {
		t.Fatalf("expected restored record, got %v err=%v", got, err)
	}

	// Restoring a live record succeeds as a no-op.
	if err := RestoreRecord(ctx, db, saved.ID(), at); err != nil {
		t.Fatalf("restore of live record: %v", err)
	}
	if err := RestoreRecord(ctx, db, 999, at); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError restoring missing id, got %v", err)
	}
}

func TestHardDelete_RemovesRowAndAudit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	saved := seed(t, db, input("REF-1"))
	if err := InsertAudit(ctx, db, AuditEntry{RecordID: saved.ID(), ActorID: 1, Action: "create", At: now0}); err != nil {
		t.Fatalf("InsertAudit: %v", err)
	}

	if err := HardDeleteRecord(ctx, db, saved.ID()); err != nil {
		t.Fatalf("HardDeleteRecord: %v", err)
	}
	if got, _ := GetRecordIncludingDeleted(ctx, db, saved.ID()); got != nil {
		t.Fatalf("row must be gone")
	}
	entries, err := ListAudit(ctx, db, saved.ID())
	if err != nil || len(entries) != 0 {
		t.Fatalf("audit trail must be gone, got %d err=%v", len(entries), err)
	}
	var nf *domain.NotFoundError
	if err := HardDeleteRecord(ctx, db, saved.ID()); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestListRecords_FiltersSortAndPaginate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seed(t, db, input("REF-A", func(in *domain.NewRecord) {
		in.RequesterName = "João Pereira"
		in.RequestDate = now0.Add(-72 * time.Hour)
	}))
	seed(t, db, input("REF-B", func(in *domain.NewRecord) {
		in.RequesterName = "Ana Lima"
		in.CreatedByID = 2
		in.RecordType = domain.TypeDigital
		in.RequestDate = now0.Add(-48 * time.Hour)
	}))
	seed(t, db, input("REF-C", func(in *domain.NewRecord) {
		in.RequesterName = "Joana Prado"
		in.CreatedByID = 3
		in.AssignedToID = id64(2)
		in.Urgent = true
		in.RequestDate = now0.Add(-24 * time.Hour)
	}))

	page := domain.Pagination{Page: 1, PageSize: 10}

	// Accent- and case-insensitive search.
	items, total, err := ListRecords(ctx, db, domain.ListQuery{Pagination: page, Filter: domain.RecordFilter{Search: "JOAO"}})
	if err != nil || total != 1 || items[0].ReferenceCode() != "REF-A" {
		t.Fatalf("search joao: total=%d err=%v", total, err)
	}

	// Every term must match.
	_, total, _ = ListRecords(ctx, db, domain.ListQuery{Pagination: page, Filter: domain.RecordFilter{Search: "joana ref-a"}})
	if total != 0 {
		t.Fatalf("expected AND semantics across terms, got %d", total)
	}

	// Reference code search keeps punctuation.
	_, total, _ = ListRecords(ctx, db, domain.ListQuery{Pagination: page, Filter: domain.RecordFilter{Search: "ref-b"}})
	if total != 1 {
		t.Fatalf("reference search: got %d", total)
	}

	// Visibility: created by OR assigned to.
	_, total, _ = ListRecords(ctx, db, domain.ListQuery{Pagination: page, Filter: domain.RecordFilter{VisibleTo: id64(2)}})
	if total != 2 {
		t.Fatalf("visible to 2: got %d; want 2", total)
	}

	// Type and urgency.
	_, total, _ = ListRecords(ctx, db, domain.ListQuery{Pagination: page, Filter: domain.RecordFilter{Types: []domain.RecordType{domain.TypeDigital}}})
	if total != 1 {
		t.Fatalf("type filter: got %d", total)
	}
	urgent := true
	_, total, _ = ListRecords(ctx, db, domain.ListQuery{Pagination: page, Filter: domain.RecordFilter{Urgent: &urgent}})
	if total != 1 {
		t.Fatalf("urgent filter: got %d", total)
	}

	// Request date window (inclusive).
	from, to := now0.Add(-48*time.Hour), now0.Add(-24*time.Hour)
	_, total, _ = ListRecords(ctx, db, domain.ListQuery{Pagination: page, Filter: domain.RecordFilter{RequestDate: domain.DateRange{From: &from, To: &to}}})
	if total != 2 {
		t.Fatalf("date window: got %d; want 2", total)
	}

	// Sort by request date ascending, page size 2, second page.
	items, total, err = ListRecords(ctx, db, domain.ListQuery{
		Pagination: domain.Pagination{Page: 2, PageSize: 2},
		Sort:       domain.Sort{Field: domain.SortRequestDate},
	})
	if err != nil || total != 3 || len(items) != 1 || items[0].ReferenceCode() != "REF-C" {
		t.Fatalf("paging: total=%d len=%d err=%v", total, len(items), err)
	}

	// Status filter.
	_, total, _ = ListRecords(ctx, db, domain.ListQuery{Pagination: page, Filter: domain.RecordFilter{Statuses: []domain.Status{domain.StatusFinalized}}})
	if total != 0 {
		t.Fatalf("status filter: got %d", total)
	}
}

func TestListOverdue_And_ListUrgent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	deadline := 30 * 24 * time.Hour

	old := seed(t, db, input("OLD", func(in *domain.NewRecord) {
		in.RequestDate = now0.Add(-40 * 24 * time.Hour)
		in.Urgent = true
	}))
	seed(t, db, input("DONE", func(in *domain.NewRecord) {
		in.RequestDate = now0.Add(-50 * 24 * time.Hour)
		in.Status = domain.StatusFinalized
		in.Urgent = true
	}))
	seed(t, db, input("FRESH", func(in *domain.NewRecord) {
		in.RequestDate = now0.Add(-10 * 24 * time.Hour)
		in.CreatedByID = 5
	}))

	overdue, err := ListOverdue(ctx, db, now0, deadline, nil)
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID() != old.ID() {
		t.Fatalf("expected only OLD overdue, got %d items", len(overdue))
	}
	if !overdue[0].IsOverdue() {
		t.Fatalf("entity must agree it is overdue")
	}

	scoped, err := ListOverdue(ctx, db, now0, deadline, id64(5))
	if err != nil || len(scoped) != 0 {
		t.Fatalf("actor 5 sees no overdue records, got %d err=%v", len(scoped), err)
	}

	urgent, err := ListUrgent(ctx, db, nil)
	if err != nil {
		t.Fatalf("ListUrgent: %v", err)
	}
	if len(urgent) != 1 || urgent[0].ReferenceCode() != "OLD" {
		t.Fatalf("expected only OLD urgent (terminal excluded), got %d", len(urgent))
	}
}

func insertRawRow(t *testing.T, db *gorm.DB, ref, status, process string) int64 {
	t.Helper()
	row := RecordRow{
		RecordType: "PHYSICAL", Status: status, RequesterName: "Legacy",
		ReferenceCode: ref, ProcessNumber: process, DocumentType: "Ofício",
		Department: "Cartório", ResponsibleStaff: "Arquivo", Purpose: "Consulta",
		RequestDate: now0.Add(-time.Hour), CreatedByID: 1, CreatedAt: now0, UpdatedAt: now0,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("insert raw row: %v", err)
	}
	return row.ID
}

func TestLegacyRows_AreNormalizedOnRead(t *testing.T) {
	db := newTestDB(t)
	id := insertRawRow(t, db, "LEG-1", " desarquivado ", "")

	got, err := GetRecord(context.Background(), db, id)
	if err != nil || got == nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if got.Status() != domain.StatusReleased {
		t.Fatalf("status = %s; want %s", got.Status(), domain.StatusReleased)
	}
	if got.Snapshot().ProcessNumber != domain.ProcessNumberPlaceholder {
		t.Fatalf("blank process number must read as placeholder, got %q", got.Snapshot().ProcessNumber)
	}
}

func TestCorruptedStatus_FailsRead_AndIsTriaged(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db, input("OK-1"))
	bad := insertRawRow(t, db, "BAD-1", "BOGUS", "P")

	_, err := GetRecord(ctx, db, bad)
	var re *domain.ReconstructionError
	if !errors.As(err, &re) || re.ID != bad {
		t.Fatalf("expected ReconstructionError for id %d, got %v", bad, err)
	}

	_, _, err = ListRecords(ctx, db, domain.ListQuery{Pagination: domain.Pagination{Page: 1, PageSize: 10}})
	if !errors.As(err, &re) {
		t.Fatalf("list must fail on a corrupted row, got %v", err)
	}

	rows, err := ListInvalidRows(ctx, db)
	if err != nil {
		t.Fatalf("ListInvalidRows: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != bad || rows[0].Status != "BOGUS" || rows[0].Reason == "" {
		t.Fatalf("unexpected triage result: %+v", rows)
	}
}

func TestNormalizeStatuses_QueriesAgreeWithMapper(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	fin := insertRawRow(t, db, "LEG-F", "finalizado", "P")
	notCollected := insertRawRow(t, db, "LEG-N", " nao coletado ", "P")
	bad := insertRawRow(t, db, "LEG-B", "BOGUS", "P")
	err := db.Model(&RecordRow{}).Where("id IN ?", []int64{fin, notCollected}).
		Updates(map[string]any{"request_date": now0.Add(-60 * 24 * time.Hour), "urgent": true}).Error
	if err != nil {
		t.Fatalf("age rows: %v", err)
	}

	n, err := NormalizeStatuses(ctx, db)
	if err != nil || n != 2 {
		t.Fatalf("NormalizeStatuses = %d, %v; want 2", n, err)
	}
	var raw []string
	db.Model(&RecordRow{}).Order("id ASC").Pluck("status", &raw)
	if want := []string{"FINALIZADO", "NAO_COLETADO", "BOGUS"}; strings.Join(raw, ",") != strings.Join(want, ",") {
		t.Fatalf("stored statuses = %v; want %v", raw, want)
	}

	deadline := 30 * 24 * time.Hour
	overdue, err := ListOverdue(ctx, db, now0, deadline, nil, clockOpts()...)
	if err != nil {
		t.Fatalf("ListOverdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID() != notCollected || !overdue[0].IsOverdue() {
		t.Fatalf("overdue must hold only the non-terminal row, got %d", len(overdue))
	}

	urgent, err := ListUrgent(ctx, db, nil, clockOpts()...)
	if err != nil || len(urgent) != 1 || urgent[0].ID() != notCollected {
		t.Fatalf("ListUrgent: %d records, err=%v", len(urgent), err)
	}

	recs, total, err := ListRecords(ctx, db, domain.ListQuery{
		Pagination: domain.Pagination{Page: 1, PageSize: 10},
		Filter:     domain.RecordFilter{Statuses: []domain.Status{domain.StatusFinalized}},
	}, clockOpts()...)
	if err != nil || total != 1 || len(recs) != 1 || recs[0].ID() != fin {
		t.Fatalf("status filter: total=%d err=%v", total, err)
	}

	st, err := DashboardStats(ctx, db, domain.StatsQuery{Now: now0, Deadline: deadline})
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	if st.Finalized != 1 || st.Overdue != 1 || st.Urgent != 1 {
		t.Fatalf("dashboard finalized=%d overdue=%d urgent=%d", st.Finalized, st.Overdue, st.Urgent)
	}

	if n, err := NormalizeStatuses(ctx, db); err != nil || n != 0 {
		t.Fatalf("second pass = %d, %v; want 0", n, err)
	}
	if rows, _ := ListInvalidRows(ctx, db); len(rows) != 1 || rows[0].ID != bad {
		t.Fatalf("undecodable row must stay for triage, got %+v", rows)
	}
}
