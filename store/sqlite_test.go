package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "structkernel.db")

	s, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("database file was not created at %s", dbPath)
	}

	var tableName string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='runs'").Scan(&tableName)
	if err != nil {
		t.Fatalf("failed to query sqlite_master for runs table: %v", err)
	}

	// reopening runs the migration again
	s2, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("second NewStore failed: %v", err)
	}
	s2.Close()
}

func TestSaveGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := Run{
		Source:        "cantilever.yaml",
		Dimension:     2,
		NumDOF:        6,
		NumFree:       3,
		Iterations:    2,
		Residual:      1.5e-16,
		Model:         "dimension: 2\n",
		Displacements: []float64{0, 0, 0, 0, 1, 1.5},
		Forces:        []float64{0, -3, -3, 0, 3, 0},
	}
	id, err := s.SaveRun(ctx, run)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a generated run id")
	}

	got, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.ID != id || got.Source != run.Source || got.Dimension != 2 || got.NumFree != 3 {
		t.Errorf("unexpected run header: %+v", got)
	}
	if got.Residual != run.Residual {
		t.Errorf("expected residual %g, got %g", run.Residual, got.Residual)
	}
	if got.Model != run.Model {
		t.Errorf("expected model %q, got %q", run.Model, got.Model)
	}
	if len(got.Displacements) != 6 || got.Displacements[5] != 1.5 {
		t.Errorf("unexpected displacements %v", got.Displacements)
	}
	if len(got.Forces) != 6 || got.Forces[1] != -3 {
		t.Errorf("unexpected forces %v", got.Forces)
	}
	if time.Since(got.CreatedAt) > time.Minute {
		t.Errorf("created_at %v not set on save", got.CreatedAt)
	}

	_, err = s.GetRun(ctx, "does-not-exist")
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}

	if _, err := s.SaveRun(ctx, Run{ID: id}); err == nil {
		t.Error("expected duplicate id to fail")
	}
}

func TestListRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, src := range []string{"a.yaml", "b.yaml", "c.yaml"} {
		_, err := s.SaveRun(ctx, Run{
			Source:    src,
			CreatedAt: base.Add(time.Duration(i) * 1500 * time.Millisecond),
			Dimension: 1,
		})
		if err != nil {
			t.Fatalf("SaveRun %s failed: %v", src, err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, want := range []string{"c.yaml", "b.yaml", "a.yaml"} {
		if runs[i].Source != want {
			t.Errorf("run %d: expected %s, got %s", i, want, runs[i].Source)
		}
	}
	if !runs[2].CreatedAt.Equal(base) {
		t.Errorf("expected created_at %v, got %v", base, runs[2].CreatedAt)
	}
	if runs[0].Displacements == nil || len(runs[0].Displacements) != 0 {
		t.Errorf("expected empty displacements, got %v", runs[0].Displacements)
	}

	runs, err = s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected limit of 2 runs, got %d", len(runs))
	}
}
