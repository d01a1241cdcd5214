// Record HTTP handlers.
//
//   - POST   /records                    (create, Idempotency-Key aware)
//   - GET    /records                    (list, filters, ETag)
//   - GET    /records/overdue|urgent|dashboard
//   - GET    /records/{id}
//   - PATCH  /records/{id}
//   - POST   /records/{id}/status|assign|complete|restore
//   - DELETE /records/{id}               (soft) and /records/{id}/permanent
//   - GET    /admin/triage
//
// Handlers parse and validate transport input, call the RecordService and
// shape the result. Business rules live in the service and the domain.
package handlers

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/unarchive-tracker/internal/domain"
	"github.com/tbourn/unarchive-tracker/internal/http/middleware"
	"github.com/tbourn/unarchive-tracker/internal/utils"
)

// RecordService is the use-case surface consumed by the handlers.
type RecordService interface {
	CreateIdempotent(ctx context.Context, actor domain.Actor, key string, in domain.NewRecord) (*domain.Record, bool, error)
	Get(ctx context.Context, actor domain.Actor, id int64, includeDeleted bool) (*domain.Record, error)
	List(ctx context.Context, actor domain.Actor, q domain.ListQuery) (domain.Page, error)
	ListVersion(ctx context.Context, actor domain.Actor, f domain.RecordFilter) (int64, *time.Time, error)
	Update(ctx context.Context, actor domain.Actor, id int64, p domain.Patch) (*domain.Record, error)
	ChangeStatus(ctx context.Context, actor domain.Actor, id int64, target domain.Status) (*domain.Record, error)
	OverrideStatus(ctx context.Context, actor domain.Actor, id int64, target domain.Status) (*domain.Record, error)
	Assign(ctx context.Context, actor domain.Actor, id, staffID int64) (*domain.Record, error)
	Complete(ctx context.Context, actor domain.Actor, id int64) (*domain.Record, error)
	Delete(ctx context.Context, actor domain.Actor, id int64) error
	Restore(ctx context.Context, actor domain.Actor, id int64) (*domain.Record, error)
	HardDelete(ctx context.Context, actor domain.Actor, id int64) error
	Overdue(ctx context.Context, actor domain.Actor) ([]*domain.Record, error)
	Urgent(ctx context.Context, actor domain.Actor) ([]*domain.Record, error)
	Dashboard(ctx context.Context, actor domain.Actor, dates domain.DateRange) (*domain.DashboardStats, error)
	Triage(ctx context.Context, actor domain.Actor) ([]domain.InvalidRow, error)
}

// Handlers groups the record endpoints.
type Handlers struct {
	svc RecordService
}

// New binds the handlers to svc.
func New(svc RecordService) *Handlers {
	return &Handlers{svc: svc}
}

//
// DTOs
//

// CreateRecordRequest is the body of POST /records. Dates accept
// YYYY-MM-DD or RFC 3339.
type CreateRecordRequest struct {
	RecordType         string  `json:"record_type" example:"PHYSICAL"`
	RequesterName      string  `json:"requester_name" example:"Maria Souza"`
	ReferenceCode      string  `json:"reference_code" example:"ARQ-2026-0042"`
	ProcessNumber      string  `json:"process_number" example:"0001234-56.2025.8.07.0001"`
	DocumentType       string  `json:"document_type" example:"Inquérito"`
	Department         string  `json:"department" example:"2ª Vara Cível"`
	ResponsibleStaff   string  `json:"responsible_staff" example:"João Lima"`
	Purpose            string  `json:"purpose" example:"Consulta para instrução"`
	RequestDate        string  `json:"request_date" example:"2026-05-02"`
	ReleaseDate        *string `json:"release_date,omitempty" example:"2026-05-04"`
	ReturnDate         *string `json:"return_date,omitempty" example:"2026-06-01"`
	ExtensionRequested bool    `json:"extension_requested"`
	Urgent             bool    `json:"urgent"`
	// Assigning at creation starts the work (status DESARQUIVADO)
	AssignedToID *int64 `json:"assigned_to_id,omitempty" example:"7"`
}

// UpdateRecordRequest is the body of PATCH /records/{id}. Absent fields are
// left untouched; clear_return_date removes the return date.
type UpdateRecordRequest struct {
	RecordType         *string `json:"record_type,omitempty" example:"DIGITAL"`
	RequesterName      *string `json:"requester_name,omitempty"`
	ReferenceCode      *string `json:"reference_code,omitempty"`
	ProcessNumber      *string `json:"process_number,omitempty"`
	DocumentType       *string `json:"document_type,omitempty"`
	Department         *string `json:"department,omitempty"`
	ResponsibleStaff   *string `json:"responsible_staff,omitempty"`
	Purpose            *string `json:"purpose,omitempty"`
	RequestDate        *string `json:"request_date,omitempty" example:"2026-05-02"`
	ReturnDate         *string `json:"return_date,omitempty" example:"2026-06-10"`
	ClearReturnDate    bool    `json:"clear_return_date,omitempty"`
	ExtensionRequested *bool   `json:"extension_requested,omitempty"`
	Urgent             *bool   `json:"urgent,omitempty"`
}

// ChangeStatusRequest is the body of POST /records/{id}/status. Override
// (administrators only) skips the lifecycle graph.
type ChangeStatusRequest struct {
	Status   string `json:"status" binding:"required" example:"DESARQUIVADO"`
	Override bool   `json:"override"`
}

// AssignRequest is the body of POST /records/{id}/assign.
type AssignRequest struct {
	AssignedToID int64 `json:"assigned_to_id" binding:"required" example:"7"`
}

// RecordResponse is the wire form of a record, with derived deadline data.
type RecordResponse struct {
	ID                 int64      `json:"id" example:"42"`
	RecordType         string     `json:"record_type" example:"PHYSICAL"`
	Status             string     `json:"status" example:"SOLICITADO"`
	NextStatuses       []string   `json:"next_statuses"`
	RequesterName      string     `json:"requester_name"`
	ReferenceCode      string     `json:"reference_code"`
	ProcessNumber      string     `json:"process_number"`
	DocumentType       string     `json:"document_type,omitempty"`
	Department         string     `json:"department,omitempty"`
	ResponsibleStaff   string     `json:"responsible_staff,omitempty"`
	Purpose            string     `json:"purpose,omitempty"`
	RequestDate        time.Time  `json:"request_date"`
	ReleaseDate        *time.Time `json:"release_date,omitempty"`
	ReturnDate         *time.Time `json:"return_date,omitempty"`
	ExtensionRequested bool       `json:"extension_requested"`
	Urgent             bool       `json:"urgent"`
	CreatedByID        int64      `json:"created_by_id"`
	AssignedToID       *int64     `json:"assigned_to_id,omitempty"`
	Deadline           time.Time  `json:"deadline"`
	Overdue            bool       `json:"overdue"`
	DaysUntilDeadline  *int       `json:"days_until_deadline,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRecordsResponse wraps a page of records.
type ListRecordsResponse struct {
	Records    []RecordResponse `json:"records"`
	Pagination Pagination       `json:"pagination"`
}

// RecordsResponse wraps an unpaginated read model (overdue, urgent).
type RecordsResponse struct {
	Records []RecordResponse `json:"records"`
	Count   int              `json:"count"`
}

// DashboardResponse is the aggregate view of GET /records/dashboard.
type DashboardResponse struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	ByType     map[string]int64 `json:"by_type"`
	Pending    int64            `json:"pending"`
	InProgress int64            `json:"in_progress"`
	Finalized  int64            `json:"finalized"`
	Overdue    int64            `json:"overdue"`
	Urgent     int64            `json:"urgent"`
}

// InvalidRowResponse is one row of GET /admin/triage.
type InvalidRowResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// TriageResponse lists rows that cannot be read back as records.
type TriageResponse struct {
	Rows  []InvalidRowResponse `json:"rows"`
	Count int                  `json:"count"`
}

func toResponse(rec *domain.Record) RecordResponse {
	s := rec.Snapshot()
	next := s.Status.Next()
	nextNames := make([]string, len(next))
	for i, st := range next {
		nextNames[i] = string(st)
	}
	return RecordResponse{
		ID:                 s.ID,
		RecordType:         string(s.RecordType),
		Status:             string(s.Status),
		NextStatuses:       nextNames,
		RequesterName:      s.RequesterName,
		ReferenceCode:      s.ReferenceCode,
		ProcessNumber:      s.ProcessNumber,
		DocumentType:       s.DocumentType,
		Department:         s.Department,
		ResponsibleStaff:   s.ResponsibleStaff,
		Purpose:            s.Purpose,
		RequestDate:        s.RequestDate,
		ReleaseDate:        s.ReleaseDate,
		ReturnDate:         s.ReturnDate,
		ExtensionRequested: s.ExtensionRequested,
		Urgent:             s.Urgent,
		CreatedByID:        s.CreatedByID,
		AssignedToID:       s.AssignedToID,
		Deadline:           rec.Deadline(),
		Overdue:            rec.IsOverdue(),
		DaysUntilDeadline:  rec.DaysUntilDeadline(),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
		DeletedAt:          s.DeletedAt,
	}
}

func toResponses(recs []*domain.Record) []RecordResponse {
	out := make([]RecordResponse, len(recs))
	for i, r := range recs {
		out[i] = toResponse(r)
	}
	return out
}

//
// Helpers
//

// actor returns the authenticated caller or writes a 401.
func actor(c *gin.Context) (domain.Actor, bool) {
	a, found := middleware.ActorFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return a, found
}

// recordID parses the :id path parameter or writes a 400.
func recordID(c *gin.Context) (int64, bool) {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		invalidField(c, "id", err.Error())
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body or writes a 400.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (r CreateRecordRequest) toDomain() (domain.NewRecord, *FieldError) {
	rt, err := domain.ParseRecordType(r.RecordType)
	if err != nil {
		return domain.NewRecord{}, &FieldError{Field: "record_type", Message: err.Error()}
	}
	reqDate, _, err := utils.ParseTime(r.RequestDate)
	if err != nil {
		return domain.NewRecord{}, &FieldError{Field: "request_date", Message: err.Error()}
	}
	release, fe := optionalDate("release_date", r.ReleaseDate)
	if fe != nil {
		return domain.NewRecord{}, fe
	}
	ret, fe := optionalDate("return_date", r.ReturnDate)
	if fe != nil {
		return domain.NewRecord{}, fe
	}
	return domain.NewRecord{
		RecordType:         rt,
		RequesterName:      r.RequesterName,
		ReferenceCode:      r.ReferenceCode,
		ProcessNumber:      r.ProcessNumber,
		DocumentType:       r.DocumentType,
		Department:         r.Department,
		ResponsibleStaff:   r.ResponsibleStaff,
		Purpose:            r.Purpose,
		RequestDate:        reqDate,
		ReleaseDate:        release,
		ReturnDate:         ret,
		ExtensionRequested: r.ExtensionRequested,
		Urgent:             r.Urgent,
		AssignedToID:       r.AssignedToID,
	}, nil
}

func (r UpdateRecordRequest) toDomain() (domain.Patch, *FieldError) {
	p := domain.Patch{
		RequesterName:      r.RequesterName,
		ReferenceCode:      r.ReferenceCode,
		ProcessNumber:      r.ProcessNumber,
		DocumentType:       r.DocumentType,
		Department:         r.Department,
		ResponsibleStaff:   r.ResponsibleStaff,
		Purpose:            r.Purpose,
		ClearReturnDate:    r.ClearReturnDate,
		ExtensionRequested: r.ExtensionRequested,
		Urgent:             r.Urgent,
	}
	if r.RecordType != nil {
		rt, err := domain.ParseRecordType(*r.RecordType)
		if err != nil {
			return p, &FieldError{Field: "record_type", Message: err.Error()}
		}
		p.RecordType = &rt
	}
	var fe *FieldError
	if p.RequestDate, fe = optionalDate("request_date", r.RequestDate); fe != nil {
		return p, fe
	}
	if p.ReturnDate, fe = optionalDate("return_date", r.ReturnDate); fe != nil {
		return p, fe
	}
	return p, nil
}

func optionalDate(field string, v *string) (*time.Time, *FieldError) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, _, err := utils.ParseTime(*v)
	if err != nil {
		return nil, &FieldError{Field: field, Message: err.Error()}
	}
	return &t, nil
}

// listQuery builds a ListQuery from the query string or writes a 400.
func listQuery(c *gin.Context) (domain.ListQuery, bool) {
	q := domain.ListQuery{
		Pagination: domain.Pagination{
			Page:     utils.AtoiDefault(c.Query("page"), 1),
			PageSize: utils.AtoiDefault(c.Query("page_size"), domain.DefaultPageSize),
		},
		Sort: domain.Sort{Field: domain.SortCreatedAt},
	}

	if raw := c.Query("sort"); raw != "" {
		f := domain.SortField(raw)
		if !f.IsValid() {
			invalidField(c, "sort", "is not a sortable field")
			return q, false
		}
		q.Sort.Field = f
	}
	switch strings.ToLower(c.Query("order")) {
	case "", "desc":
		q.Sort.Desc = true
	case "asc":
		q.Sort.Desc = false
	default:
		invalidField(c, "order", "must be asc or desc")
		return q, false
	}

	f, good := recordFilter(c)
	if !good {
		return q, false
	}
	q.Filter = f
	return q, true
}

func recordFilter(c *gin.Context) (domain.RecordFilter, bool) {
	f := domain.RecordFilter{Search: strings.TrimSpace(c.Query("q"))}

	for _, raw := range utils.SplitCSV(c.QueryArray("status")...) {
		st, err := domain.NormalizeStatus(raw)
		if err != nil {
			invalidField(c, "status", err.Error())
			return f, false
		}
		f.Statuses = append(f.Statuses, st)
	}
	for _, raw := range utils.SplitCSV(c.QueryArray("type")...) {
		rt, err := domain.ParseRecordType(raw)
		if err != nil {
			invalidField(c, "type", err.Error())
			return f, false
		}
		f.Types = append(f.Types, rt)
	}

	var err error
	if f.CreatedByID, err = utils.OptionalID(c.Query("created_by")); err != nil {
		invalidField(c, "created_by", err.Error())
		return f, false
	}
	if f.AssignedToID, err = utils.OptionalID(c.Query("assigned_to")); err != nil {
		invalidField(c, "assigned_to", err.Error())
		return f, false
	}
	if f.Urgent, err = utils.OptionalBool(c.Query("urgent")); err != nil {
		invalidField(c, "urgent", err.Error())
		return f, false
	}
	incl, err := utils.OptionalBool(c.Query("include_deleted"))
	if err != nil {
		invalidField(c, "include_deleted", err.Error())
		return f, false
	}
	f.IncludeDeleted = incl != nil && *incl

	dates, good := dateRange(c)
	f.RequestDate = dates
	return f, good
}

// dateRange reads from/to. A bare "to" date includes the whole day.
func dateRange(c *gin.Context) (domain.DateRange, bool) {
	var (
		d   domain.DateRange
		err error
	)
	if d.From, err = utils.OptionalTime(c.Query("from"), false); err != nil {
		invalidField(c, "from", err.Error())
		return d, false
	}
	if d.To, err = utils.OptionalTime(c.Query("to"), true); err != nil {
		invalidField(c, "to", err.Error())
		return d, false
	}
	if d.From != nil && d.To != nil && d.To.Before(*d.From) {
		invalidField(c, "to", "must not be before from")
		return d, false
	}
	return d, true
}

// listETag identifies the actor's view of the collection for one query
// string: it changes when a matching row is added, removed or updated.
func listETag(actorID, count int64, maxTS *time.Time, rawQuery string) string {
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(rawQuery))
	return fmt.Sprintf(`W/"records:%d:%d:%d:%x"`, actorID, count, ts, h.Sum64())
}

//
// Handlers
//

// CreateRecord godoc
// @ID          createRecord
// @Summary     Open an unarchiving request
// @Description Creates a record in status SOLICITADO authored by the caller. With an Idempotency-Key, a retry returns the record created the first time with 200.
// @Tags        Records
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key  header  string  false  "Deduplicates retries"  example(4b0e7a5e-create-1)
// @Param       body             body    handlers.CreateRecordRequest  true  "Record"
// @Success     201  {object}  handlers.RecordResponse
// @Success     200  {object}  handlers.RecordResponse  "Replay of an earlier request"
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Reference code in use"
// @Router      /records [post]
func (h *Handlers) CreateRecord(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	var req CreateRecordRequest
	if !bindJSON(c, &req) {
		return
	}
	in, fe := req.toDomain()
	if fe != nil {
		invalidField(c, fe.Field, fe.Message)
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	rec, replayed, err := h.svc.CreateIdempotent(c.Request.Context(), a, key, in)
	if err != nil {
		failErr(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/%d", strings.TrimSuffix(c.FullPath(), "/"), rec.ID()))
	if replayed {
		c.Header("Idempotent-Replayed", "true")
		ok(c, http.StatusOK, toResponse(rec))
		return
	}
	ok(c, http.StatusCreated, toResponse(rec))
}

// ListRecords godoc
// @ID          listRecords
// @Summary     List records
// @Description Returns a page of the records visible to the caller. Supports a weak ETag via If-None-Match.
// @Tags        Records
// @Produce     json
// @Security    BearerAuth
// @Param       page             query  int     false  "Page number"  minimum(1) default(1)
// @Param       page_size        query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       sort             query  string  false  "Sort field"  Enums(created_at, updated_at, request_date, requester_name, status, reference_code)
// @Param       order            query  string  false  "Sort order"  Enums(asc, desc) default(desc)
// @Param       q                query  string  false  "Search name, reference or process number (accent-insensitive)"
// @Param       status           query  string  false  "Comma separated statuses"
// @Param       type             query  string  false  "Comma separated record types"
// @Param       created_by       query  int     false  "Author id"
// @Param       assigned_to      query  int     false  "Assignee id"
// @Param       urgent           query  bool    false  "Urgent flag"
// @Param       from             query  string  false  "Request date lower bound"  example(2026-01-01)
// @Param       to               query  string  false  "Request date upper bound (inclusive)"  example(2026-01-31)
// @Param       include_deleted  query  bool    false  "Administrators only"
// @Param       If-None-Match    header string  false  "Return 304 if ETag matches"
// @Success     200  {object}  handlers.ListRecordsResponse
// @Header      200  {string}  ETag  "Weak ETag for the current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /records [get]
func (h *Handlers) ListRecords(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	q, good := listQuery(c)
	if !good {
		return
	}
	ctx := c.Request.Context()

	// ETag pre-check is best effort; a failure only skips it.
	if count, maxTS, err := h.svc.ListVersion(ctx, a, q.Filter); err == nil {
		etag := listETag(a.ID, count, maxTS, c.Request.URL.RawQuery)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	page, err := h.svc.List(ctx, a, q)
	if err != nil {
		failErr(c, err)
		return
	}
	totalPages := page.TotalPages()
	ok(c, http.StatusOK, ListRecordsResponse{
		Records: toResponses(page.Items),
		Pagination: Pagination{
			Page:       page.Page,
			PageSize:   page.PageSize,
			Total:      page.Total,
			TotalPages: totalPages,
			HasNext:    page.Page < totalPages,
		},
	})
}

// GetRecord godoc
// @ID          getRecord
// @Summary     Get a record
// @Tags        Records
// @Produce     json
// @Security    BearerAuth
// @Param       id               path   int   true   "Record id"
// @Param       include_deleted  query  bool  false  "Administrators only"
// @Success     200  {object}  handlers.RecordResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse  "corrupted_record"
// @Router      /records/{id} [get]
func (h *Handlers) GetRecord(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, good := recordID(c)
	if !good {
		return
	}
	incl, err := utils.OptionalBool(c.Query("include_deleted"))
	if err != nil {
		invalidField(c, "include_deleted", err.Error())
		return
	}
	rec, err := h.svc.Get(c.Request.Context(), a, id, incl != nil && *incl)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toResponse(rec))
}

// UpdateRecord godoc
// @ID          updateRecord
// @Summary     Edit descriptive fields
// @Tags        Records
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int  true  "Record id"
// @Param       body  body  handlers.UpdateRecordRequest  true  "Fields to change"
// @Success     200  {object}  handlers.RecordResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /records/{id} [patch]
func (h *Handlers) UpdateRecord(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, good := recordID(c)
	if !good {
		return
	}
	var req UpdateRecordRequest
	if !bindJSON(c, &req) {
		return
	}
	p, fe := req.toDomain()
	if fe != nil {
		invalidField(c, fe.Field, fe.Message)
		return
	}
	h.respondRecord(c, func(ctx context.Context) (*domain.Record, error) {
		return h.svc.Update(ctx, a, id, p)
	})
}

// ChangeStatus godoc
// @ID          changeStatus
// @Summary     Move a record through its lifecycle
// @Description Applies a transition allowed by the lifecycle graph. With override=true an administrator may set any known status.
// @Tags        Records
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int  true  "Record id"
// @Param       body  body  handlers.ChangeStatusRequest  true  "Target status"
// @Success     200  {object}  handlers.RecordResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "illegal_transition"
// @Router      /records/{id}/status [post]
func (h *Handlers) ChangeStatus(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, good := recordID(c)
	if !good {
		return
	}
	var req ChangeStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	target, err := domain.ParseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		invalidField(c, "status", err.Error())
		return
	}
	h.respondRecord(c, func(ctx context.Context) (*domain.Record, error) {
		if req.Override {
			return h.svc.OverrideStatus(ctx, a, id, target)
		}
		return h.svc.ChangeStatus(ctx, a, id, target)
	})
}

// AssignRecord godoc
// @ID          assignRecord
// @Summary     Assign the responsible staff member
// @Description Assigning a pending record releases it (SOLICITADO to DESARQUIVADO).
// @Tags        Records
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  int  true  "Record id"
// @Param       body  body  handlers.AssignRequest  true  "Assignee"
// @Success     200  {object}  handlers.RecordResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse  "invalid_state"
// @Router      /records/{id}/assign [post]
func (h *Handlers) AssignRecord(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, good := recordID(c)
	if !good {
		return
	}
	var req AssignRequest
	if !bindJSON(c, &req) {
		return
	}
	h.respondRecord(c, func(ctx context.Context) (*domain.Record, error) {
		return h.svc.Assign(ctx, a, id, req.AssignedToID)
	})
}

// CompleteRecord godoc
// @ID          completeRecord
// @Summary     Finalize a record
// @Tags        Records
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  int  true  "Record id"
// @Success     200  {object}  handlers.RecordResponse
// @Failure     409  {object}  handlers.ErrorResponse  "invalid_state"
// @Router      /records/{id}/complete [post]
func (h *Handlers) CompleteRecord(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, good := recordID(c)
	if !good {
		return
	}
	h.respondRecord(c, func(ctx context.Context) (*domain.Record, error) {
		return h.svc.Complete(ctx, a, id)
	})
}

// DeleteRecord godoc
// @ID          deleteRecord
// @Summary     Soft delete a record
// @Tags        Records
// @Security    BearerAuth
// @Param       id  path  int  true  "Record id"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /records/{id} [delete]
func (h *Handlers) DeleteRecord(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, good := recordID(c)
	if !good {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), a, id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// RestoreRecord godoc
// @ID          restoreRecord
// @Summary     Restore a soft-deleted record
// @Tags        Records
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  int  true  "Record id"
// @Success     200  {object}  handlers.RecordResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /records/{id}/restore [post]
func (h *Handlers) RestoreRecord(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, good := recordID(c)
	if !good {
		return
	}
	h.respondRecord(c, func(ctx context.Context) (*domain.Record, error) {
		return h.svc.Restore(ctx, a, id)
	})
}

// PurgeRecord godoc
// @ID          purgeRecord
// @Summary     Permanently delete a record
// @Description Administrators only; records in progress cannot be purged.
// @Tags        Records
// @Security    BearerAuth
// @Param       id  path  int  true  "Record id"
// @Success     204  {string}  string  "No Content"
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /records/{id}/permanent [delete]
func (h *Handlers) PurgeRecord(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	id, good := recordID(c)
	if !good {
		return
	}
	if err := h.svc.HardDelete(c.Request.Context(), a, id); err != nil {
		failErr(c, err)
		return
	}
	noContent(c)
}

// ListOverdue godoc
// @ID          listOverdue
// @Summary     Records past their deadline
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.RecordsResponse
// @Router      /records/overdue [get]
func (h *Handlers) ListOverdue(c *gin.Context) {
	h.respondList(c, h.svc.Overdue)
}

// ListUrgent godoc
// @ID          listUrgent
// @Summary     Open records flagged urgent
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.RecordsResponse
// @Router      /records/urgent [get]
func (h *Handlers) ListUrgent(c *gin.Context) {
	h.respondList(c, h.svc.Urgent)
}

// Dashboard godoc
// @ID          dashboard
// @Summary     Aggregate counts
// @Tags        Reports
// @Produce     json
// @Security    BearerAuth
// @Param       from  query  string  false  "Request date lower bound"
// @Param       to    query  string  false  "Request date upper bound (inclusive)"
// @Success     200  {object}  handlers.DashboardResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /records/dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	dates, good := dateRange(c)
	if !good {
		return
	}
	st, err := h.svc.Dashboard(c.Request.Context(), a, dates)
	if err != nil {
		failErr(c, err)
		return
	}
	resp := DashboardResponse{
		Total:      st.Total,
		ByStatus:   make(map[string]int64, len(st.ByStatus)),
		ByType:     make(map[string]int64, len(st.ByType)),
		Pending:    st.Pending,
		InProgress: st.InProgress,
		Finalized:  st.Finalized,
		Overdue:    st.Overdue,
		Urgent:     st.Urgent,
	}
	for k, v := range st.ByStatus {
		resp.ByStatus[string(k)] = v
	}
	for k, v := range st.ByType {
		resp.ByType[string(k)] = v
	}
	ok(c, http.StatusOK, resp)
}

// Triage godoc
// @ID          triage
// @Summary     Rows whose status cannot be decoded
// @Description Administrators only. Lists persisted rows that fail reconstruction so they can be fixed by hand.
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.TriageResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /admin/triage [get]
func (h *Handlers) Triage(c *gin.Context) {
	a, found := actor(c)
	if !found {
		return
	}
	rows, err := h.svc.Triage(c.Request.Context(), a)
	if err != nil {
		failErr(c, err)
		return
	}
	out := make([]InvalidRowResponse, len(rows))
	for i, r := range rows {
		out[i] = InvalidRowResponse{ID: r.ID, Status: r.Status, Reason: r.Reason}
	}
	ok(c, http.StatusOK, TriageResponse{Rows: out, Count: len(out)})
}

func (h *Handlers) respondRecord(c *gin.Context, op func(context.Context) (*domain.Record, error)) {
	rec, err := op(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, toResponse(rec))
}

func (h *Handlers) respondList(c *gin.Context, op func(context.Context, domain.Actor) ([]*domain.Record, error)) {
	a, found := actor(c)
	if !found {
		return
	}
	recs, err := op(c.Request.Context(), a)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, RecordsResponse{Records: toResponses(recs), Count: len(recs)})
}
