// Package services – RecordService
//
// This file implements RecordService, the application-level component that
// owns every use case on unarchiving records. Each state-changing method
// follows the same shape: load the record through the RecordRepo (which
// reconstructs it through the mapper), ask the authorization rules whether
// the actor may proceed, invoke the aggregate operation, then persist the
// result and its audit entry in one transaction.
//
// Authorization denials are returned as *DeniedError (matching ErrForbidden)
// so handlers can surface the specific reason. Records the actor may not
// see are reported as ErrRecordNotFound.
//
// Observability: all public methods are OpenTelemetry-instrumented and
// counted in Prometheus; committed changes are logged through the
// request-scoped zerolog logger carried by ctx.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/unarchive-tracker/internal/domain"
	"github.com/tbourn/unarchive-tracker/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Audit actions.
const (
	ActionCreate         = "create"
	ActionUpdate         = "update"
	ActionChangeStatus   = "change_status"
	ActionOverrideStatus = "override_status"
	ActionAssign         = "assign"
	ActionComplete       = "complete"
	ActionDelete         = "delete"
	ActionRestore        = "restore"
	ActionHardDelete     = "hard_delete"
)

// statusCreated is stored with idempotency entries; replays answer with it.
const statusCreated = 201

// RecordRepo defines the repository contract required by RecordService.
// Lookups of a missing id return (nil, nil); mutations of a missing id
// return *domain.NotFoundError.
type RecordRepo interface {
	CreateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) (*domain.Record, error)
	GetRecord(ctx context.Context, db *gorm.DB, id int64) (*domain.Record, error)
	GetRecordIncludingDeleted(ctx context.Context, db *gorm.DB, id int64) (*domain.Record, error)
	ListRecords(ctx context.Context, db *gorm.DB, q domain.ListQuery) ([]*domain.Record, int64, error)
	UpdateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) (*domain.Record, error)
	SoftDeleteRecord(ctx context.Context, db *gorm.DB, id int64, at time.Time) error
	RestoreRecord(ctx context.Context, db *gorm.DB, id int64, at time.Time) error
	HardDeleteRecord(ctx context.Context, db *gorm.DB, id int64) error

	ListOverdue(ctx context.Context, db *gorm.DB, now time.Time, deadline time.Duration, visibleTo *int64) ([]*domain.Record, error)
	ListUrgent(ctx context.Context, db *gorm.DB, visibleTo *int64) ([]*domain.Record, error)
	DashboardStats(ctx context.Context, db *gorm.DB, q domain.StatsQuery) (*domain.DashboardStats, error)
	RecordsStats(ctx context.Context, db *gorm.DB, f domain.RecordFilter) (int64, *time.Time, error)
	ListInvalidRows(ctx context.Context, db *gorm.DB) ([]domain.InvalidRow, error)

	GetIdempotency(ctx context.Context, db *gorm.DB, actorID int64, key string, now time.Time) (*repo.IdempotencyRow, error)
	CreateIdempotency(ctx context.Context, db *gorm.DB, actorID int64, key string, recordID int64, status int, now time.Time, ttl time.Duration) (*repo.IdempotencyRow, error)
	PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}

// AuditSink records state-changing operations. It runs inside the same
// transaction as the change it describes.
type AuditSink interface {
	InsertAudit(ctx context.Context, db *gorm.DB, e repo.AuditEntry) error
}

// RecordService provides the record use cases.
type RecordService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the record repository used by this service.
	Repo RecordRepo
	// Audit receives one entry per committed change. Nil disables auditing.
	Audit AuditSink

	// Clock supplies "now" for deadline queries and idempotency expiry.
	Clock domain.Clock
	// Deadline is the overdue window (domain.DefaultDeadline when zero).
	Deadline time.Duration
	// MaxPageSize bounds list pages (domain.MaxPageSize when zero).
	MaxPageSize int
	// IdempotencyTTL is how long a create key is remembered.
	IdempotencyTTL time.Duration
}

// NewRecordService constructs a RecordService with defaults for the
// deadline, page bound and idempotency window.
func NewRecordService(db *gorm.DB, r RecordRepo, audit AuditSink) *RecordService {
	return &RecordService{
		DB:             db,
		Repo:           r,
		Audit:          audit,
		Clock:          domain.SystemClock{},
		Deadline:       domain.DefaultDeadline,
		MaxPageSize:    domain.MaxPageSize,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Create opens a new request authored by actor. Status always starts at
// SOLICITADO; the author is always the actor.
func (s *RecordService) Create(ctx context.Context, actor domain.Actor, in domain.NewRecord) (rec *domain.Record, err error) {
	ctx, span := s.start(ctx, "Create", actor)
	defer func() { s.finish(span, ActionCreate, err) }()

	if actor.ID <= 0 {
		return nil, ErrUnauthenticated
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var terr error
		rec, terr = s.create(ctx, tx, actor, in)
		return terr
	})
	if err != nil {
		return nil, err
	}
	s.logChange(ctx, actor, ActionCreate, rec)
	return rec, nil
}

// CreateIdempotent behaves like Create but remembers key for the actor:
// a retry with the same key returns the record created the first time and
// replayed=true. An empty key disables the behavior.
func (s *RecordService) CreateIdempotent(ctx context.Context, actor domain.Actor, key string, in domain.NewRecord) (rec *domain.Record, replayed bool, err error) {
	if key == "" {
		rec, err = s.Create(ctx, actor, in)
		return rec, false, err
	}
	ctx, span := s.start(ctx, "CreateIdempotent", actor)
	defer func() { s.finish(span, ActionCreate, err) }()

	if actor.ID <= 0 {
		return nil, false, ErrUnauthenticated
	}
	if prev, ok, perr := s.replay(ctx, actor, key); perr != nil || ok {
		return prev, ok, perr
	}

	errRace := errors.New("idempotency key claimed concurrently")
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, terr := s.create(ctx, tx, actor, in)
		if terr != nil {
			return terr
		}
		if _, terr = s.Repo.CreateIdempotency(ctx, tx, actor.ID, key, created.ID(), statusCreated, s.now(), s.IdempotencyTTL); terr != nil {
			if errors.Is(terr, repo.ErrDuplicate) {
				return errRace
			}
			return terr
		}
		rec = created
		return nil
	})
	if errors.Is(err, errRace) {
		prev, ok, perr := s.replay(ctx, actor, key)
		if perr == nil && !ok {
			perr = ErrRecordNotFound
		}
		return prev, ok, perr
	}
	if err != nil {
		return nil, false, err
	}
	s.logChange(ctx, actor, ActionCreate, rec)
	return rec, false, nil
}

func (s *RecordService) replay(ctx context.Context, actor domain.Actor, key string) (*domain.Record, bool, error) {
	prev, err := s.Repo.GetIdempotency(ctx, s.DB, actor.ID, key, s.now())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil || prev == nil {
		return nil, false, err
	}
	rec, err := s.Repo.GetRecordIncludingDeleted(ctx, s.DB, prev.RecordID)
	if err != nil || rec == nil {
		return nil, false, err
	}
	return rec, true, nil
}

// KeyCompleted reports whether actorID already completed a create with key
// and the entry is still live at now.
func (s *RecordService) KeyCompleted(ctx context.Context, actorID int64, key string, now time.Time) (bool, error) {
	_, err := s.Repo.GetIdempotency(ctx, s.DB, actorID, key, now)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repo.ErrNotFound):
		return false, nil
	}
	return false, err
}

// PurgeExpiredKeys drops idempotency entries whose window has closed and
// returns how many were removed.
func (s *RecordService) PurgeExpiredKeys(ctx context.Context) (int64, error) {
	n, err := s.Repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		zerolog.Ctx(ctx).Debug().Int64("removed", n).Msg("expired idempotency keys purged")
	}
	return n, nil
}

func (s *RecordService) create(ctx context.Context, tx *gorm.DB, actor domain.Actor, in domain.NewRecord) (*domain.Record, error) {
	in.Status = ""
	in.CreatedByID = actor.ID
	assignee := in.AssignedToID
	in.AssignedToID = nil
	rec, err := domain.New(in, s.opts()...)
	if err != nil {
		return nil, err
	}
	// An assignee given at creation goes through the same transition as a
	// later assignment.
	if assignee != nil {
		if err := rec.AssignResponsible(*assignee); err != nil {
			return nil, err
		}
	}
	saved, err := s.Repo.CreateRecord(ctx, tx, rec)
	if err != nil {
		return nil, translateRepoErr(err)
	}
	if err := s.audit(ctx, tx, actor, ActionCreate, saved.ID(), nil, saved); err != nil {
		return nil, err
	}
	return saved, nil
}

// Get returns a record visible to actor. Administrators may ask for
// soft-deleted records with includeDeleted; for everyone else the flag is
// ignored.
func (s *RecordService) Get(ctx context.Context, actor domain.Actor, id int64, includeDeleted bool) (rec *domain.Record, err error) {
	ctx, span := s.start(ctx, "Get", actor, attribute.Int64("record.id", id))
	defer func() { s.finish(span, "get", err) }()

	return s.load(ctx, s.DB, actor, id, includeDeleted && actor.IsAdmin())
}

// List returns one page of records. Actors without a broad-view role only
// see records they created or are assigned to; only administrators may
// include soft-deleted rows.
func (s *RecordService) List(ctx context.Context, actor domain.Actor, q domain.ListQuery) (page domain.Page, err error) {
	ctx, span := s.start(ctx, "List", actor,
		attribute.Int("page", q.Pagination.Page),
		attribute.Int("page_size", q.Pagination.PageSize),
	)
	defer func() { s.finish(span, "list", err) }()

	q = s.scopeQuery(actor, q)
	items, total, err := s.Repo.ListRecords(ctx, s.DB, q)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Items: items, Total: total, Page: q.Pagination.Page, PageSize: q.Pagination.PageSize}, nil
}

// ListVersion returns the row count and newest UpdatedAt of what List would
// return for f, for conditional responses.
func (s *RecordService) ListVersion(ctx context.Context, actor domain.Actor, f domain.RecordFilter) (int64, *time.Time, error) {
	q := s.scopeQuery(actor, domain.ListQuery{Filter: f})
	return s.Repo.RecordsStats(ctx, s.DB, q.Filter)
}

func (s *RecordService) scopeQuery(actor domain.Actor, q domain.ListQuery) domain.ListQuery {
	q.Pagination = q.Pagination.Normalize(s.maxPageSize())
	if !q.Sort.Field.IsValid() {
		q.Sort = domain.Sort{Field: domain.SortCreatedAt, Desc: true}
	}
	if !actor.IsAdmin() {
		q.Filter.IncludeDeleted = false
	}
	q.Filter.VisibleTo = s.visibleTo(actor)
	return q
}

// Update applies descriptive changes when the actor may edit the record.
func (s *RecordService) Update(ctx context.Context, actor domain.Actor, id int64, p domain.Patch) (*domain.Record, error) {
	return s.mutate(ctx, actor, id, ActionUpdate, domain.CheckEdit, func(rec *domain.Record) error {
		return rec.Edit(p)
	})
}

// ChangeStatus moves the record along the lifecycle graph.
func (s *RecordService) ChangeStatus(ctx context.Context, actor domain.Actor, id int64, target domain.Status) (*domain.Record, error) {
	return s.mutate(ctx, actor, id, ActionChangeStatus, domain.CheckEdit, func(rec *domain.Record) error {
		return rec.ChangeStatus(target)
	})
}

// OverrideStatus sets any known status, ignoring the graph. Administrators
// only.
func (s *RecordService) OverrideStatus(ctx context.Context, actor domain.Actor, id int64, target domain.Status) (*domain.Record, error) {
	return s.mutate(ctx, actor, id, ActionOverrideStatus, adminOnly, func(rec *domain.Record) error {
		return rec.OverrideStatus(target)
	})
}

// Assign hands the record to staffID, starting the work when pending.
func (s *RecordService) Assign(ctx context.Context, actor domain.Actor, id, staffID int64) (*domain.Record, error) {
	return s.mutate(ctx, actor, id, ActionAssign, domain.CheckEdit, func(rec *domain.Record) error {
		return rec.AssignResponsible(staffID)
	})
}

// Complete finalizes the record.
func (s *RecordService) Complete(ctx context.Context, actor domain.Actor, id int64) (*domain.Record, error) {
	return s.mutate(ctx, actor, id, ActionComplete, domain.CheckEdit, func(rec *domain.Record) error {
		return rec.Complete()
	})
}

func adminOnly(actor domain.Actor, _ *domain.Record) domain.Decision {
	if actor.IsAdmin() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Reason: domain.ReasonAdminOnly}
}

// mutate is the shared load → authorize → operate → persist path of the
// editing use cases.
func (s *RecordService) mutate(
	ctx context.Context,
	actor domain.Actor,
	id int64,
	action string,
	check func(domain.Actor, *domain.Record) domain.Decision,
	op func(*domain.Record) error,
) (rec *domain.Record, err error) {
	ctx, span := s.start(ctx, action, actor, attribute.Int64("record.id", id))
	defer func() { s.finish(span, action, err) }()

	var from domain.Status
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, terr := s.load(ctx, tx, actor, id, false)
		if terr != nil {
			return terr
		}
		if terr = denied(action, check(actor, cur)); terr != nil {
			return terr
		}
		before := cur.Snapshot()
		from = before.Status
		if terr = op(cur); terr != nil {
			return terr
		}
		saved, terr := s.Repo.UpdateRecord(ctx, tx, cur)
		if terr != nil {
			return translateRepoErr(terr)
		}
		if terr = s.audit(ctx, tx, actor, action, id, &before, saved); terr != nil {
			return terr
		}
		rec = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rec.Status() != from {
		recordTransitions.WithLabelValues(string(from), string(rec.Status())).Inc()
	}
	s.logChange(ctx, actor, action, rec)
	return rec, nil
}

// Delete soft-deletes a record.
func (s *RecordService) Delete(ctx context.Context, actor domain.Actor, id int64) (err error) {
	ctx, span := s.start(ctx, ActionDelete, actor, attribute.Int64("record.id", id))
	defer func() { s.finish(span, ActionDelete, err) }()

	var rec *domain.Record
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, terr := s.load(ctx, tx, actor, id, false)
		if terr != nil {
			return terr
		}
		if terr = denied(ActionDelete, domain.CheckDelete(actor, cur)); terr != nil {
			return terr
		}
		before := cur.Snapshot()
		if terr = cur.SoftDelete(); terr != nil {
			return terr
		}
		if terr = s.Repo.SoftDeleteRecord(ctx, tx, id, *cur.DeletedAt()); terr != nil {
			return terr
		}
		rec = cur
		return s.audit(ctx, tx, actor, ActionDelete, id, &before, cur)
	})
	if err != nil {
		return err
	}
	s.logChange(ctx, actor, ActionDelete, rec)
	return nil
}

// Restore brings a soft-deleted record back. Restoring a live record
// returns it unchanged.
func (s *RecordService) Restore(ctx context.Context, actor domain.Actor, id int64) (rec *domain.Record, err error) {
	ctx, span := s.start(ctx, ActionRestore, actor, attribute.Int64("record.id", id))
	defer func() { s.finish(span, ActionRestore, err) }()

	changed := false
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, terr := s.load(ctx, tx, actor, id, true)
		if terr != nil {
			return terr
		}
		if terr = denied(ActionRestore, domain.CheckRestore(actor, cur)); terr != nil {
			return terr
		}
		if !cur.IsDeleted() {
			rec = cur
			return nil
		}
		before := cur.Snapshot()
		if terr = cur.Restore(); terr != nil {
			return terr
		}
		if terr = s.Repo.RestoreRecord(ctx, tx, id, cur.UpdatedAt()); terr != nil {
			return terr
		}
		if terr = s.audit(ctx, tx, actor, ActionRestore, id, &before, cur); terr != nil {
			return terr
		}
		rec, changed = cur, true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.logChange(ctx, actor, ActionRestore, rec)
	}
	return rec, nil
}

// HardDelete removes a record permanently. Administrators only, and never
// while the record is in progress.
func (s *RecordService) HardDelete(ctx context.Context, actor domain.Actor, id int64) (err error) {
	ctx, span := s.start(ctx, ActionHardDelete, actor, attribute.Int64("record.id", id))
	defer func() { s.finish(span, ActionHardDelete, err) }()

	var rec *domain.Record
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, terr := s.load(ctx, tx, actor, id, true)
		if terr != nil {
			return terr
		}
		if terr = denied(ActionHardDelete, domain.CheckHardDelete(actor, cur)); terr != nil {
			return terr
		}
		if terr = s.Repo.HardDeleteRecord(ctx, tx, id); terr != nil {
			return terr
		}
		before := cur.Snapshot()
		rec = cur
		return s.audit(ctx, tx, actor, ActionHardDelete, id, &before, nil)
	})
	if err != nil {
		return err
	}
	s.logChange(ctx, actor, ActionHardDelete, rec)
	return nil
}

// Overdue lists open records past their deadline, scoped to what actor may
// see.
func (s *RecordService) Overdue(ctx context.Context, actor domain.Actor) (recs []*domain.Record, err error) {
	ctx, span := s.start(ctx, "Overdue", actor)
	defer func() { s.finish(span, "overdue", err) }()

	return s.Repo.ListOverdue(ctx, s.DB, s.now(), s.deadline(), s.visibleTo(actor))
}

// Urgent lists open records flagged urgent, scoped to what actor may see.
func (s *RecordService) Urgent(ctx context.Context, actor domain.Actor) (recs []*domain.Record, err error) {
	ctx, span := s.start(ctx, "Urgent", actor)
	defer func() { s.finish(span, "urgent", err) }()

	return s.Repo.ListUrgent(ctx, s.DB, s.visibleTo(actor))
}

// Dashboard aggregates the records actor may see, optionally restricted to
// a request date range.
func (s *RecordService) Dashboard(ctx context.Context, actor domain.Actor, dates domain.DateRange) (st *domain.DashboardStats, err error) {
	ctx, span := s.start(ctx, "Dashboard", actor)
	defer func() { s.finish(span, "dashboard", err) }()

	return s.Repo.DashboardStats(ctx, s.DB, domain.StatsQuery{
		VisibleTo:   s.visibleTo(actor),
		RequestDate: dates,
		Now:         s.now(),
		Deadline:    s.deadline(),
	})
}

// Triage lists persisted rows whose status cannot be decoded, for manual
// reconciliation. Administrators only.
func (s *RecordService) Triage(ctx context.Context, actor domain.Actor) (rows []domain.InvalidRow, err error) {
	ctx, span := s.start(ctx, "Triage", actor)
	defer func() { s.finish(span, "triage", err) }()

	if !actor.IsAdmin() {
		return nil, &DeniedError{Action: "triage", Reason: domain.ReasonAdminOnly}
	}
	return s.Repo.ListInvalidRows(ctx, s.DB)
}

// load fetches a record and hides it when actor may not view it.
func (s *RecordService) load(ctx context.Context, db *gorm.DB, actor domain.Actor, id int64, includeDeleted bool) (*domain.Record, error) {
	if actor.ID <= 0 {
		return nil, ErrUnauthenticated
	}
	var (
		rec *domain.Record
		err error
	)
	if includeDeleted {
		rec, err = s.Repo.GetRecordIncludingDeleted(ctx, db, id)
	} else {
		rec, err = s.Repo.GetRecord(ctx, db, id)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil || !domain.CanView(actor, rec) {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

func (s *RecordService) visibleTo(actor domain.Actor) *int64 {
	if actor.SeesEverything() {
		return nil
	}
	id := actor.ID
	return &id
}

func (s *RecordService) audit(ctx context.Context, tx *gorm.DB, actor domain.Actor, action string, id int64, before *domain.Snapshot, after *domain.Record) error {
	if s.Audit == nil {
		return nil
	}
	e := repo.AuditEntry{RecordID: id, ActorID: actor.ID, Action: action, At: s.now()}
	if before != nil {
		e.Before = auditJSON(*before)
	}
	if after != nil {
		e.After = auditJSON(after.Snapshot())
	}
	return s.Audit.InsertAudit(ctx, tx, e)
}

func auditJSON(snap domain.Snapshot) string {
	b, err := json.Marshal(snap)
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *RecordService) logChange(ctx context.Context, actor domain.Actor, action string, rec *domain.Record) {
	ev := zerolog.Ctx(ctx).Info().
		Str("action", action).
		Int64("actor_id", actor.ID)
	if rec != nil {
		ev = ev.Int64("record_id", rec.ID()).Str("status", string(rec.Status()))
	}
	ev.Msg("record changed")
}

func (s *RecordService) start(ctx context.Context, name string, actor domain.Actor, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tr := otel.Tracer("services/RecordService")
	attrs = append(attrs,
		attribute.Int64("actor.id", actor.ID),
		attribute.StringSlice("actor.roles", actor.Roles.Strings()),
	)
	return tr.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *RecordService) finish(span trace.Span, action string, err error) {
	defer span.End()
	out := outcome(err)
	recordOps.WithLabelValues(action, out).Inc()
	var de *DeniedError
	if errors.As(err, &de) {
		recordDenials.WithLabelValues(de.Action, string(de.Reason)).Inc()
	}
	if out == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func outcome(err error) string {
	var (
		ve  *domain.ValidationError
		ise *domain.InvalidStatusError
		ite *domain.IllegalTransitionError
		st  *domain.InvalidStateError
		nf  *domain.NotFoundError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrForbidden):
		return "denied"
	case errors.Is(err, ErrRecordNotFound), errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ve), errors.As(err, &ise), errors.As(err, &ite),
		errors.As(err, &st), errors.Is(err, ErrDuplicateReference):
		return "invalid"
	default:
		return "error"
	}
}

func translateRepoErr(err error) error {
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrDuplicateReference
	}
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return ErrRecordNotFound
	}
	return err
}

func (s *RecordService) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}

func (s *RecordService) deadline() time.Duration {
	if s.Deadline <= 0 {
		return domain.DefaultDeadline
	}
	return s.Deadline
}

func (s *RecordService) maxPageSize() int {
	if s.MaxPageSize <= 0 {
		return domain.MaxPageSize
	}
	return s.MaxPageSize
}

func (s *RecordService) opts() []domain.Option {
	return []domain.Option{domain.WithClock(s.Clock), domain.WithDeadline(s.deadline())}
}
