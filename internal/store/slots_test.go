package store

import (
	"context"
	"testing"
)

func TestSlots_PutGetOverwrite(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.GetSlot(ctx, "backup"); !IsNotFound(err) {
		t.Fatalf("GetSlot() on empty store = %v, want ErrNotFound", err)
	}

	if err := s.PutSlot(ctx, "backup", []byte("one")); err != nil {
		t.Fatalf("PutSlot() failed: %v", err)
	}
	if err := s.PutSlot(ctx, "backup", []byte("two")); err != nil {
		t.Fatalf("PutSlot() overwrite failed: %v", err)
	}

	got, err := s.GetSlot(ctx, "backup")
	if err != nil {
		t.Fatalf("GetSlot() failed: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("GetSlot() = %q, want single-slot retention of %q", got, "two")
	}
}

func TestSlots_Delete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.PutSlot(ctx, "draft", []byte("png")); err != nil {
		t.Fatalf("PutSlot() failed: %v", err)
	}
	if err := s.DeleteSlot(ctx, "draft"); err != nil {
		t.Fatalf("DeleteSlot() failed: %v", err)
	}
	if err := s.DeleteSlot(ctx, "draft"); err != nil {
		t.Errorf("DeleteSlot() of empty slot failed: %v", err)
	}
	if _, err := s.GetSlot(ctx, "draft"); !IsNotFound(err) {
		t.Errorf("GetSlot() after delete = %v, want ErrNotFound", err)
	}
}

func TestMeta_SetGetDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.GetMeta(ctx, "backup.last_run"); err != nil || ok {
		t.Fatalf("GetMeta() unset = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	if err := s.SetMeta(ctx, "backup.last_run", "1"); err != nil {
		t.Fatalf("SetMeta() failed: %v", err)
	}
	if err := s.SetMeta(ctx, "backup.last_run", "2"); err != nil {
		t.Fatalf("SetMeta() overwrite failed: %v", err)
	}

	v, ok, err := s.GetMeta(ctx, "backup.last_run")
	if err != nil || !ok || v != "2" {
		t.Errorf("GetMeta() = (%q, %v, %v), want (\"2\", true, nil)", v, ok, err)
	}

	if err := s.DeleteMeta(ctx, "backup.last_run"); err != nil {
		t.Fatalf("DeleteMeta() failed: %v", err)
	}
	if _, ok, _ := s.GetMeta(ctx, "backup.last_run"); ok {
		t.Error("GetMeta() still set after DeleteMeta")
	}
}

func TestMeta_SurvivesReopen(t *testing.T) {
	path := t.TempDir() + "/meta.db"
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.SetMeta(ctx, "backup.last_run", "1704121200000"); err != nil {
		t.Fatalf("SetMeta() failed: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	if v, ok, _ := s.GetMeta(ctx, "backup.last_run"); !ok || v != "1704121200000" {
		t.Errorf("last run lost across reopen: %q, %v", v, ok)
	}
}
