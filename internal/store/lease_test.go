package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

var leaseEpoch = time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC)

func TestLease_ExclusiveUntilExpiry(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ok, err := s.AcquireLease(ctx, "master", "a", leaseEpoch, time.Minute)
	if err != nil || !ok {
		t.Fatalf("AcquireLease(a) = (%v, %v), want (true, nil)", ok, err)
	}
	if ok, _ := s.AcquireLease(ctx, "master", "b", leaseEpoch.Add(30*time.Second), time.Minute); ok {
		t.Error("AcquireLease(b) succeeded while a holds an unexpired lease")
	}
	if ok, _ := s.AcquireLease(ctx, "master", "a", leaseEpoch.Add(30*time.Second), time.Minute); !ok {
		t.Error("AcquireLease(a) renewal refused")
	}
	// a renewed until +90s.
	if ok, _ := s.AcquireLease(ctx, "master", "b", leaseEpoch.Add(80*time.Second), time.Minute); ok {
		t.Error("AcquireLease(b) succeeded before the renewed lease expired")
	}
	if ok, _ := s.AcquireLease(ctx, "master", "b", leaseEpoch.Add(90*time.Second), time.Minute); !ok {
		t.Error("AcquireLease(b) refused after expiry")
	}
}

func TestLease_Release(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if ok, _ := s.AcquireLease(ctx, "master", "a", leaseEpoch, time.Hour); !ok {
		t.Fatal("AcquireLease(a) refused")
	}
	// Only the holder can release.
	if err := s.ReleaseLease(ctx, "master", "b"); err != nil {
		t.Fatalf("ReleaseLease(b) failed: %v", err)
	}
	if ok, _ := s.AcquireLease(ctx, "master", "b", leaseEpoch, time.Hour); ok {
		t.Fatal("lease released by a non-holder")
	}

	if err := s.ReleaseLease(ctx, "master", "a"); err != nil {
		t.Fatalf("ReleaseLease(a) failed: %v", err)
	}
	if ok, _ := s.AcquireLease(ctx, "master", "b", leaseEpoch, time.Hour); !ok {
		t.Error("AcquireLease(b) refused after release")
	}
}

func TestLease_SharedAcrossConnections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	ctx := context.Background()

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s1.Close()
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	if ok, _ := s1.AcquireLease(ctx, "master", "p1", leaseEpoch, time.Hour); !ok {
		t.Fatal("AcquireLease(p1) refused")
	}
	if ok, _ := s2.AcquireLease(ctx, "master", "p2", leaseEpoch, time.Hour); ok {
		t.Error("second connection acquired a lease held by the first")
	}
	if err := s1.ReleaseLease(ctx, "master", "p1"); err != nil {
		t.Fatalf("ReleaseLease(p1) failed: %v", err)
	}
	if ok, _ := s2.AcquireLease(ctx, "master", "p2", leaseEpoch, time.Hour); !ok {
		t.Error("second connection refused after release")
	}
}

func TestLease_ClosedStore(t *testing.T) {
	s := closedStore(t)
	if _, err := s.AcquireLease(context.Background(), "master", "a", leaseEpoch, time.Minute); err == nil {
		t.Error("AcquireLease() on closed store succeeded")
	}
}
