package domain

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultDeadline is the window a request has before it counts as overdue.
const DefaultDeadline = 30 * 24 * time.Hour

// ProcessNumberPlaceholder stands in for the process number of legacy rows
// created before the field was mandatory.
const ProcessNumberPlaceholder = "N/A"

// Field length limits, in runes.
const (
	MaxNameLen          = 255
	MaxReferenceLen     = 100
	MaxProcessNumberLen = 100
	MaxDocumentTypeLen  = 100
	MaxDepartmentLen    = 255
	MaxStaffLen         = 255
	MaxPurposeLen       = 1000
)

// NewRecord is the input accepted by New. Identity and audit timestamps are
// never client supplied.
type NewRecord struct {
	RecordType         RecordType
	Status             Status // optional, defaults to StatusRequested
	RequesterName      string
	ReferenceCode      string
	ProcessNumber      string
	DocumentType       string
	Department         string
	ResponsibleStaff   string
	Purpose            string
	RequestDate        time.Time
	ReleaseDate        *time.Time
	ReturnDate         *time.Time
	ExtensionRequested bool
	Urgent             bool
	CreatedByID        int64
	AssignedToID       *int64
}

// Snapshot is the full state of a record. It is what storage persists and
// what Reconstruct accepts back.
type Snapshot struct {
	ID                 int64
	RecordType         RecordType
	Status             Status
	RequesterName      string
	ReferenceCode      string
	ProcessNumber      string
	DocumentType       string
	Department         string
	ResponsibleStaff   string
	Purpose            string
	RequestDate        time.Time
	ReleaseDate        *time.Time
	ReturnDate         *time.Time
	ExtensionRequested bool
	Urgent             bool
	CreatedByID        int64
	AssignedToID       *int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// Patch carries the descriptive fields an editor may change. Nil fields are
// left untouched. Status and ownership have dedicated operations.
type Patch struct {
	RecordType         *RecordType
	RequesterName      *string
	ReferenceCode      *string
	ProcessNumber      *string
	DocumentType       *string
	Department         *string
	ResponsibleStaff   *string
	Purpose            *string
	RequestDate        *time.Time
	ReturnDate         *time.Time
	ClearReturnDate    bool
	ExtensionRequested *bool
	Urgent             *bool
}

// Record is the unarchiving request aggregate. Its state changes only
// through the methods below; each either succeeds completely or leaves the
// record untouched.
type Record struct {
	state    Snapshot
	clock    Clock
	deadline time.Duration
}

// Option customizes a Record at construction.
type Option func(*Record)

// WithClock sets the clock used for timestamps and deadline math.
func WithClock(c Clock) Option {
	return func(r *Record) { r.clock = clockOrSystem(c) }
}

// WithDeadline overrides DefaultDeadline. Non-positive values are ignored.
func WithDeadline(d time.Duration) Option {
	return func(r *Record) {
		if d > 0 {
			r.deadline = d
		}
	}
}

func newRecord(s Snapshot, opts []Option) *Record {
	r := &Record{state: s, clock: SystemClock{}, deadline: DefaultDeadline}
	for _, o := range opts {
		o(r)
	}
	return r
}

// New validates in and returns a record that has not been persisted yet
// (ID 0). Validation failures are returned joined.
func New(in NewRecord, opts ...Option) (*Record, error) {
	r := newRecord(Snapshot{}, opts)
	now := r.clock.Now()

	status := in.Status
	if status == "" {
		status = StatusRequested
	}
	if !status.IsValid() {
		return nil, &InvalidStatusError{Value: string(status)}
	}

	s := Snapshot{
		RecordType:         in.RecordType,
		Status:             status,
		RequesterName:      strings.TrimSpace(in.RequesterName),
		ReferenceCode:      strings.TrimSpace(in.ReferenceCode),
		ProcessNumber:      strings.TrimSpace(in.ProcessNumber),
		DocumentType:       strings.TrimSpace(in.DocumentType),
		Department:         strings.TrimSpace(in.Department),
		ResponsibleStaff:   strings.TrimSpace(in.ResponsibleStaff),
		Purpose:            strings.TrimSpace(in.Purpose),
		RequestDate:        in.RequestDate,
		ReleaseDate:        copyTime(in.ReleaseDate),
		ReturnDate:         copyTime(in.ReturnDate),
		ExtensionRequested: in.ExtensionRequested,
		Urgent:             in.Urgent,
		CreatedByID:        in.CreatedByID,
		AssignedToID:       copyID(in.AssignedToID),
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	var errs []error
	if !s.RequestDate.IsZero() && s.RequestDate.After(now) {
		errs = append(errs, &ValidationError{Field: "request_date", Message: "must not be in the future"})
	}
	if err := errors.Join(append(errs, s.validate())...); err != nil {
		return nil, err
	}
	if status == StatusFinalized && s.ReleaseDate == nil {
		s.ReleaseDate = &now
	}
	r.state = s
	return r, nil
}

// Reconstruct rebuilds a record from persisted state. A non-positive id or
// any broken invariant yields *ReconstructionError.
func Reconstruct(s Snapshot, opts ...Option) (*Record, error) {
	if s.ID <= 0 {
		return nil, &ReconstructionError{ID: s.ID, Cause: errors.New("missing or non-positive id")}
	}
	if !s.Status.IsValid() {
		return nil, &ReconstructionError{ID: s.ID, Cause: &InvalidStatusError{Value: string(s.Status)}}
	}
	if err := s.validate(); err != nil {
		return nil, &ReconstructionError{ID: s.ID, Cause: err}
	}
	return newRecord(s.clone(), opts), nil
}

// validate checks the invariants every stored record satisfies.
func (s *Snapshot) validate() error {
	var errs []error
	switch s.RecordType {
	case TypePhysical, TypeDigital, TypeNotLocated:
	default:
		errs = append(errs, &ValidationError{Field: "record_type", Message: "must be one of PHYSICAL, DIGITAL, NOT_LOCATED"})
	}
	errs = append(errs,
		requireText("requester_name", s.RequesterName, MaxNameLen),
		requireText("reference_code", s.ReferenceCode, MaxReferenceLen),
		requireText("process_number", s.ProcessNumber, MaxProcessNumberLen),
		requireText("document_type", s.DocumentType, MaxDocumentTypeLen),
		requireText("department", s.Department, MaxDepartmentLen),
		requireText("responsible_staff", s.ResponsibleStaff, MaxStaffLen),
		requireText("purpose", s.Purpose, MaxPurposeLen),
	)
	if s.RequestDate.IsZero() {
		errs = append(errs, &ValidationError{Field: "request_date", Message: "is required"})
	}
	if s.CreatedByID <= 0 {
		errs = append(errs, &ValidationError{Field: "created_by_id", Message: "must be positive"})
	}
	if s.AssignedToID != nil && *s.AssignedToID <= 0 {
		errs = append(errs, &ValidationError{Field: "assigned_to_id", Message: "must be positive"})
	}
	return errors.Join(errs...)
}

func requireText(field, v string, max int) error {
	if strings.TrimSpace(v) == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	if utf8.RuneCountInString(v) > max {
		return &ValidationError{Field: field, Message: "is too long"}
	}
	return nil
}

// mutate is the single mutation gate: fn edits a copy, the copy is
// validated, and only then does it replace the current state with a fresh
// UpdatedAt.
func (r *Record) mutate(fn func(next *Snapshot, now time.Time) error) error {
	next := r.state.clone()
	now := r.clock.Now()
	if err := fn(&next, now); err != nil {
		return err
	}
	if err := next.validate(); err != nil {
		return err
	}
	next.UpdatedAt = now
	r.state = next
	return nil
}

// ChangeStatus moves the record along the lifecycle graph. Entering
// StatusFinalized stamps the release date when it is unset.
func (r *Record) ChangeStatus(target Status) error {
	if !target.IsValid() {
		return &InvalidStatusError{Value: string(target)}
	}
	return r.mutate(func(s *Snapshot, now time.Time) error {
		if !s.Status.CanTransitionTo(target) {
			return &IllegalTransitionError{From: s.Status, To: target}
		}
		setStatus(s, target, now)
		return nil
	})
}

// OverrideStatus sets any known status regardless of the graph. Only the
// administrative path may call it.
func (r *Record) OverrideStatus(target Status) error {
	if !target.IsValid() {
		return &InvalidStatusError{Value: string(target)}
	}
	return r.mutate(func(s *Snapshot, now time.Time) error {
		setStatus(s, target, now)
		return nil
	})
}

func setStatus(s *Snapshot, target Status, now time.Time) {
	s.Status = target
	if target == StatusFinalized && s.ReleaseDate == nil {
		t := now
		s.ReleaseDate = &t
	}
}

// AssignResponsible hands the record to staffID. Assigning a pending record
// starts the work and advances it to StatusReleased; any other status is
// kept. Who may reassign a terminal record is decided by CheckEdit.
func (r *Record) AssignResponsible(staffID int64) error {
	if staffID <= 0 {
		return &ValidationError{Field: "assigned_to_id", Message: "must be positive"}
	}
	return r.mutate(func(s *Snapshot, now time.Time) error {
		id := staffID
		s.AssignedToID = &id
		if s.Status == StatusRequested {
			setStatus(s, StatusReleased, now)
		}
		return nil
	})
}

// Complete finalizes the record when the graph allows it.
func (r *Record) Complete() error {
	return r.mutate(func(s *Snapshot, now time.Time) error {
		if !s.Status.CanBeCompleted() {
			return &InvalidStateError{Op: "complete", Status: s.Status, Reason: "no transition to FINALIZADO from this status"}
		}
		setStatus(s, StatusFinalized, now)
		return nil
	})
}

// Edit applies p atomically.
func (r *Record) Edit(p Patch) error {
	return r.mutate(func(s *Snapshot, now time.Time) error {
		if p.RecordType != nil {
			s.RecordType = *p.RecordType
		}
		setText(&s.RequesterName, p.RequesterName)
		setText(&s.ReferenceCode, p.ReferenceCode)
		setText(&s.ProcessNumber, p.ProcessNumber)
		setText(&s.DocumentType, p.DocumentType)
		setText(&s.Department, p.Department)
		setText(&s.ResponsibleStaff, p.ResponsibleStaff)
		setText(&s.Purpose, p.Purpose)
		if p.RequestDate != nil {
			if p.RequestDate.After(now) {
				return &ValidationError{Field: "request_date", Message: "must not be in the future"}
			}
			s.RequestDate = *p.RequestDate
		}
		if p.ClearReturnDate {
			s.ReturnDate = nil
		} else if p.ReturnDate != nil {
			s.ReturnDate = copyTime(p.ReturnDate)
		}
		if p.ExtensionRequested != nil {
			s.ExtensionRequested = *p.ExtensionRequested
		}
		if p.Urgent != nil {
			s.Urgent = *p.Urgent
		}
		return nil
	})
}

func setText(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// SoftDelete hides the record. In-progress records cannot be deleted by
// anyone. Deleting an already deleted record is a no-op.
func (r *Record) SoftDelete() error {
	if r.state.DeletedAt != nil {
		return nil
	}
	return r.mutate(func(s *Snapshot, now time.Time) error {
		if s.Status.IsInProgress() {
			return &InvalidStateError{Op: "delete", Status: s.Status, Reason: "record is in progress"}
		}
		t := now
		s.DeletedAt = &t
		return nil
	})
}

// Restore clears the deletion mark. It is idempotent.
func (r *Record) Restore() error {
	if r.state.DeletedAt == nil {
		return nil
	}
	return r.mutate(func(s *Snapshot, _ time.Time) error {
		s.DeletedAt = nil
		return nil
	})
}

// Deadline is the instant after which an open record is overdue.
func (r *Record) Deadline() time.Time {
	return r.state.RequestDate.Add(r.deadline)
}

// IsOverdue reports whether an open record passed its deadline.
func (r *Record) IsOverdue() bool {
	if r.state.Status.IsFinal() {
		return false
	}
	return r.clock.Now().After(r.Deadline())
}

// DaysUntilDeadline returns the signed number of days left, rounded up, or
// nil for terminal records. Negative values mean overdue.
func (r *Record) DaysUntilDeadline() *int {
	if r.state.Status.IsFinal() {
		return nil
	}
	left := r.Deadline().Sub(r.clock.Now())
	days := int(math.Ceil(float64(left) / float64(24*time.Hour)))
	return &days
}

// Snapshot returns a copy of the current state.
func (r *Record) Snapshot() Snapshot { return r.state.clone() }

func (r *Record) ID() int64 { return r.state.ID }
func (r *Record) Status() Status { return r.state.Status }
func (r *Record) Type() RecordType { return r.state.RecordType }
func (r *Record) ReferenceCode() string { return r.state.ReferenceCode }
func (r *Record) RequestDate() time.Time { return r.state.RequestDate }
func (r *Record) ReleaseDate() *time.Time { return copyTime(r.state.ReleaseDate) }
func (r *Record) CreatedByID() int64 { return r.state.CreatedByID }
func (r *Record) AssignedToID() *int64 { return copyID(r.state.AssignedToID) }
func (r *Record) Urgent() bool { return r.state.Urgent }
func (r *Record) CreatedAt() time.Time { return r.state.CreatedAt }
func (r *Record) UpdatedAt() time.Time { return r.state.UpdatedAt }
func (r *Record) DeletedAt() *time.Time { return copyTime(r.state.DeletedAt) }
func (r *Record) IsDeleted() bool { return r.state.DeletedAt != nil }
func (r *Record) IsCreatedBy(id int64) bool { return id > 0 && r.state.CreatedByID == id }

// IsAssignedTo reports whether id handles the record.
func (r *Record) IsAssignedTo(id int64) bool {
	return id > 0 && r.state.AssignedToID != nil && *r.state.AssignedToID == id
}

// WithID returns a copy of r carrying the storage-assigned id. Only
// repositories call it after an insert.
func (r *Record) WithID(id int64) *Record {
	cp := *r
	cp.state = r.state.clone()
	cp.state.ID = id
	return &cp
}

func (s Snapshot) clone() Snapshot {
	s.ReleaseDate = copyTime(s.ReleaseDate)
	s.ReturnDate = copyTime(s.ReturnDate)
	s.DeletedAt = copyTime(s.DeletedAt)
	s.AssignedToID = copyID(s.AssignedToID)
	return s
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
