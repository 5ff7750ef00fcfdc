package store

import (
	"context"
	"errors"
	"testing"

	"github.com/roach88/actas/internal/acta"
	"github.com/roach88/actas/internal/testutil"
)

func TestUpsert_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := testutil.RecordA()

	for i := 0; i < 2; i++ {
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert() #%d failed: %v", i, err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestUpsert_IdenticalBodyKeepsUpdatedAt(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := testutil.RecordA()

	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if _, err := s.db.Exec(`UPDATE actas SET updated_at = 'sentinel' WHERE id = ?`, rec.ID); err != nil {
		t.Fatalf("mark row: %v", err)
	}

	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("second Upsert() failed: %v", err)
	}

	var updated string
	if err := s.db.QueryRow(`SELECT updated_at FROM actas WHERE id = ?`, rec.ID).Scan(&updated); err != nil {
		t.Fatalf("read updated_at: %v", err)
	}
	if updated != "sentinel" {
		t.Errorf("identical upsert rewrote the row, updated_at = %q", updated)
	}
}

func TestUpsert_ReplacesByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rec := testutil.RecordA()

	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	rec.Artifacts.PDFFilename = "Acta_AX-001.pdf"
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("second Upsert() failed: %v", err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Artifacts.PDFFilename != "Acta_AX-001.pdf" {
		t.Errorf("PDFFilename = %q, want the attached artifact", got.Artifacts.PDFFilename)
	}
}

func TestUpsert_RequiresID(t *testing.T) {
	s := createTestStore(t)

	var se *Error
	if err := s.Upsert(context.Background(), acta.Record{}); !errors.As(err, &se) {
		t.Fatalf("Upsert() error = %v, want *Error", err)
	}
}

func TestInsert_Collision(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, testutil.RecordA()); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	clash := testutil.Record("AX-001", "C9", "T9", "2024-09-09 09:00")
	err := s.Insert(ctx, clash)

	if !errors.Is(err, ErrIDCollision) {
		t.Fatalf("Insert() error = %v, want ErrIDCollision", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Op != "insert" || se.Key != "AX-001" {
		t.Errorf("Insert() error = %#v, want *Error{Op: insert, Key: AX-001}", err)
	}

	got, err := s.Get(ctx, "AX-001")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Client.ContractNumber != "C1" {
		t.Errorf("collision overwrote stored record: contract = %q", got.Client.ContractNumber)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Get(context.Background(), "AX-404")
	if !IsNotFound(err) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestGetAll_EmptyStore(t *testing.T) {
	s := createTestStore(t)

	records, err := s.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if records == nil {
		t.Error("GetAll() returned nil, want empty slice")
	}
	if len(records) != 0 {
		t.Errorf("len(GetAll()) = %d, want 0", len(records))
	}
}

func TestGetAll_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	older := testutil.Record("AX-001", "C1", "T1", "2024-01-01 10:00")
	older.Visit.UTCTime = "2024-01-01T15:00:00.000Z"
	newer := testutil.Record("AX-002", "C2", "T2", "2024-01-02 10:00")
	newer.Visit.UTCTime = "2024-01-02T15:00:00.000Z"
	tie := testutil.Record("AX-003", "C3", "T3", "2024-01-02 10:00")
	tie.Visit.UTCTime = "2024-01-02T15:00:00.000Z"

	for _, rec := range []acta.Record{older, newer, tie} {
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert(%s) failed: %v", rec.ID, err)
		}
	}

	records, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}

	want := []string{"AX-003", "AX-002", "AX-001"}
	if len(records) != len(want) {
		t.Fatalf("len(GetAll()) = %d, want %d", len(records), len(want))
	}
	for i, id := range want {
		if records[i].ID != id {
			t.Errorf("records[%d].ID = %q, want %q", i, records[i].ID, id)
		}
	}
}

func TestGetAll_DecodesLegacyBodies(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	legacy := `{"id":"AX-OLD","cliente":{"nit":"900","contacto":"Marta","email":"m@example.com"},` +
		`"visita":{"fecha_local":"1/1/2023","fecha_utc":"2023-01-01T14:00:00.000Z"}}`
	if _, err := s.db.Exec(`INSERT INTO actas (id, body) VALUES (?, ?)`, "AX-OLD", legacy); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	records, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(GetAll()) = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.Format != acta.FormatLegacy {
		t.Errorf("Format = %q, want legacy", rec.Format)
	}
	if rec.Contact.Name != "Marta" || rec.Contact.Email != "m@example.com" {
		t.Errorf("legacy contact not mapped: %+v", rec.Contact)
	}
}

func TestGetAll_CorruptBody(t *testing.T) {
	s := createTestStore(t)

	if _, err := s.db.Exec(`INSERT INTO actas (id, body) VALUES ('AX-BAD', '{broken')`); err != nil {
		t.Fatalf("insert corrupt row: %v", err)
	}

	_, err := s.GetAll(context.Background())
	var se *Error
	if !errors.As(err, &se) || se.Key != "AX-BAD" {
		t.Errorf("GetAll() error = %v, want *Error for AX-BAD", err)
	}
}

func TestFindByContent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, rec := range []acta.Record{testutil.RecordA(), testutil.RecordB(), testutil.Record("AX-003", "C1", "T1", "2024-01-01 10:01")} {
		if err := s.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert(%s) failed: %v", rec.ID, err)
		}
	}

	got, err := s.FindByContent(ctx, "C1", "T1", "2024-01-01 10:00")
	if err != nil {
		t.Fatalf("FindByContent() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("FindByContent() returned %d records, want 2", len(got))
	}
}

func TestDeleteByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testutil.RecordA()); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s.Upsert(ctx, testutil.Record("AX-003", "C3", "T3", "x")); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	if err := s.DeleteByID(ctx, "AX-001"); err != nil {
		t.Fatalf("DeleteByID() failed: %v", err)
	}
	// Absent id is a no-op
	if err := s.DeleteByID(ctx, "AX-001"); err != nil {
		t.Errorf("DeleteByID() of absent id failed: %v", err)
	}

	n, _ := s.Count(ctx)
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestClear_KeepsSlots(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testutil.RecordA()); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}
	if err := s.PutSlot(ctx, "backup", []byte(`{}`)); err != nil {
		t.Fatalf("PutSlot() failed: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}

	n, _ := s.Count(ctx)
	if n != 0 {
		t.Errorf("Count() = %d after Clear, want 0", n)
	}
	if _, err := s.GetSlot(ctx, "backup"); err != nil {
		t.Errorf("backup slot lost on Clear: %v", err)
	}
}

func TestReplaceAll(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testutil.RecordA()); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	replacement := []acta.Record{
		testutil.Record("AX-010", "C10", "T10", "a"),
		testutil.Record("AX-011", "C11", "T11", "b"),
	}
	if err := s.ReplaceAll(ctx, replacement); err != nil {
		t.Fatalf("ReplaceAll() failed: %v", err)
	}

	if _, err := s.Get(ctx, "AX-001"); !IsNotFound(err) {
		t.Errorf("AX-001 survived ReplaceAll: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 2 {
		t.Errorf("Count() = %d, want 2", n)
	}
}

func TestReplaceAll_RollsBackOnFailure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testutil.RecordA()); err != nil {
		t.Fatalf("Upsert() failed: %v", err)
	}

	// Duplicate ids violate the primary key inside the transaction.
	dup := testutil.Record("AX-010", "C10", "T10", "a")
	if err := s.ReplaceAll(ctx, []acta.Record{dup, dup}); err == nil {
		t.Fatal("ReplaceAll() with duplicate ids should fail")
	}

	if _, err := s.Get(ctx, "AX-001"); err != nil {
		t.Errorf("failed ReplaceAll lost the original record: %v", err)
	}
}

func TestOperations_ClosedStore(t *testing.T) {
	s := closedStore(t)
	ctx := context.Background()

	ops := map[string]func() error{
		"upsert": func() error { return s.Upsert(ctx, testutil.RecordA()) },
		"insert": func() error { return s.Insert(ctx, testutil.RecordA()) },
		"get all": func() error {
			_, err := s.GetAll(ctx)
			return err
		},
		"delete": func() error { return s.DeleteByID(ctx, "AX-001") },
		"clear":  func() error { return s.Clear(ctx) },
	}

	for op, fn := range ops {
		err := fn()
		var se *Error
		if !errors.As(err, &se) {
			t.Errorf("%s: error = %v, want *Error", op, err)
			continue
		}
		if se.Op != op {
			t.Errorf("%s: Op = %q", op, se.Op)
		}
	}
}
