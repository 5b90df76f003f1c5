package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestReadSolve_Exists(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := createTestSolve("solve-1", "hash-a")
	seq, _, err := s.WriteSolve(ctx, want)
	if err != nil {
		t.Fatalf("WriteSolve() failed: %v", err)
	}
	want.Seq = seq

	got, err := s.ReadSolve(ctx, "solve-1")
	if err != nil {
		t.Fatalf("ReadSolve() failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadSolve() = %+v, want %+v", got, want)
	}
}

func TestReadSolve_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadSolve(context.Background(), "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadSolve() error = %v, want sql.ErrNoRows", err)
	}
}

func TestReadSolve_Failure(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestSolve("bad", "h")
	rec.Reflectance, rec.Transmittance = 0, 0
	rec.ErrorCode = "INVALID_INPUT"
	rec.ErrorMessage = "wavelength must be positive"
	if _, _, err := s.WriteSolve(ctx, rec); err != nil {
		t.Fatalf("WriteSolve() failed: %v", err)
	}

	got, err := s.ReadSolve(ctx, "bad")
	if err != nil {
		t.Fatalf("ReadSolve() failed: %v", err)
	}
	if !got.Failed() {
		t.Error("Failed() = false, want true")
	}
	if got.ErrorMessage != rec.ErrorMessage {
		t.Errorf("ErrorMessage = %q, want %q", got.ErrorMessage, rec.ErrorMessage)
	}
	if got.Reflectance != 0 || got.Transmittance != 0 {
		t.Errorf("failed solve has R=%v T=%v, want zeros", got.Reflectance, got.Transmittance)
	}
}

func TestListSolves_Empty(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ListSolves(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListSolves() failed: %v", err)
	}
	if got == nil {
		t.Error("ListSolves() returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestListSolves_NewestFirst(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		if _, _, err := s.WriteSolve(ctx, createTestSolve(fmt.Sprintf("solve-%d", i), "h")); err != nil {
			t.Fatalf("WriteSolve() failed: %v", err)
		}
	}

	got, err := s.ListSolves(ctx, 3)
	if err != nil {
		t.Fatalf("ListSolves() failed: %v", err)
	}
	ids := recordIDs(got)
	want := []string{"solve-5", "solve-4", "solve-3"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	all, err := s.ListSolves(ctx, 0)
	if err != nil {
		t.Fatalf("ListSolves(0) failed: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("ListSolves(0) returned %d records, want 5", len(all))
	}
}

func TestSolvesByStack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	writes := []struct{ id, hash string }{
		{"a1", "A"}, {"b1", "B"}, {"a2", "A"}, {"b2", "B"}, {"a3", "A"},
	}
	for _, w := range writes {
		if _, _, err := s.WriteSolve(ctx, createTestSolve(w.id, w.hash)); err != nil {
			t.Fatalf("WriteSolve() failed: %v", err)
		}
	}

	got, err := s.SolvesByStack(ctx, "A")
	if err != nil {
		t.Fatalf("SolvesByStack() failed: %v", err)
	}
	want := []string{"a1", "a2", "a3"}
	if ids := recordIDs(got); !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	none, err := s.SolvesByStack(ctx, "C")
	if err != nil {
		t.Fatalf("SolvesByStack() failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unknown stack returned %d records", len(none))
	}
}

func TestListStacks(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	a := createTestSolve("a1", "A")
	a.StackName = "first name"
	b := createTestSolve("b1", "B")
	failed := createTestSolve("a2", "A")
	failed.StackName = "renamed"
	failed.ErrorCode = "INVALID_INPUT"

	for _, rec := range []SolveRecord{a, b, failed} {
		if _, _, err := s.WriteSolve(ctx, rec); err != nil {
			t.Fatalf("WriteSolve() failed: %v", err)
		}
	}

	got, err := s.ListStacks(ctx)
	if err != nil {
		t.Fatalf("ListStacks() failed: %v", err)
	}
	want := []StackSummary{
		{StackHash: "A", StackName: "renamed", Solves: 2, Failures: 1, LastSeq: 3},
		{StackHash: "B", StackName: "test stack", Solves: 1, Failures: 0, LastSeq: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListStacks() = %+v, want %+v", got, want)
	}
}

func recordIDs(records []SolveRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
