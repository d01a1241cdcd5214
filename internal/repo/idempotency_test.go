package repo

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetIdempotency_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	rec, err := GetIdempotency(context.Background(), db, 1, "   ", now0)
	if rec != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected (nil, ErrNotFound) for blank key, got (%v, %v)", rec, err)
	}
}

func TestIdempotency_CreateGet_ScopedByActor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, 1, "k1", 10, 201, now0, time.Hour); err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}

	got, err := GetIdempotency(ctx, db, 1, "k1", now0.Add(time.Minute))
	if err != nil || got.RecordID != 10 || got.Status != 201 {
		t.Fatalf("GetIdempotency: got=%+v err=%v", got, err)
	}

	// Same key for another actor is independent.
	if _, err := GetIdempotency(ctx, db, 2, "k1", now0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other actor, got %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, 2, "k1", 11, 201, now0, time.Hour); err != nil {
		t.Fatalf("other actor create: %v", err)
	}

	// Live duplicate is rejected.
	if _, err := CreateIdempotency(ctx, db, 1, "k1", 12, 201, now0, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIdempotency_ExpiredEntries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, 1, "k1", 10, 201, now0, time.Minute); err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	later := now0.Add(2 * time.Minute)
	if _, err := GetIdempotency(ctx, db, 1, "k1", later); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired entry must not be returned, got %v", err)
	}

	// An expired entry is replaced rather than reported as a duplicate.
	if _, err := CreateIdempotency(ctx, db, 1, "k1", 20, 201, later, time.Hour); err != nil {
		t.Fatalf("re-create after expiry: %v", err)
	}
	got, err := GetIdempotency(ctx, db, 1, "k1", later)
	if err != nil || got.RecordID != 20 {
		t.Fatalf("expected replacement entry, got %+v err=%v", got, err)
	}

	if _, err := CreateIdempotency(ctx, db, 2, "k2", 30, 201, now0, time.Minute); err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	n, err := PurgeExpiredIdempotency(ctx, db, later)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredIdempotency: n=%d err=%v", n, err)
	}
}

func TestAudit_InsertAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i, action := range []string{"create", "change_status"} {
		e := AuditEntry{RecordID: 5, ActorID: 1, Action: action, After: `{"status":"SOLICITADO"}`, At: now0.Add(time.Duration(i) * time.Minute)}
		if err := InsertAudit(ctx, db, e); err != nil {
			t.Fatalf("InsertAudit: %v", err)
		}
	}
	rows, err := ListAudit(ctx, db, 5)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListAudit: n=%d err=%v", len(rows), err)
	}
	if rows[0].Action != "create" || rows[1].Action != "change_status" || rows[0].ID == "" {
		t.Fatalf("unexpected order or ids: %+v", rows)
	}
}
