package store

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore creates an in-memory SQLite store for testing
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.db == nil {
		t.Error("expected db to be initialized")
	}
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	s, err := New(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New with nested path failed: %v", err)
	}
	defer s.Close()
}

func TestRecordDetection(t *testing.T) {
	s := newTestStore(t)

	d := &Detection{
		Region:            "global",
		ChinaSuccessRate:  0.2,
		GlobalSuccessRate: 0.8,
		ChinaAvgLatencyMs: 120,
	}
	if err := s.RecordDetection(d); err != nil {
		t.Fatalf("RecordDetection failed: %v", err)
	}
	if d.ID == 0 {
		t.Error("expected ID to be set after insert")
	}
	if d.DetectedAt.IsZero() {
		t.Error("expected DetectedAt to be filled in")
	}
}

func TestLatestDetection(t *testing.T) {
	s := newTestStore(t)

	if d, err := s.LatestDetection(); err != nil || d != nil {
		t.Fatalf("LatestDetection on empty store = %v, %v; want nil, nil", d, err)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	older := &Detection{Region: "china", DetectedAt: base}
	newer := &Detection{Region: "global", GlobalSuccessRate: 1, DetectedAt: base.Add(time.Hour)}
	if err := s.RecordDetection(older); err != nil {
		t.Fatalf("recording older detection: %v", err)
	}
	if err := s.RecordDetection(newer); err != nil {
		t.Fatalf("recording newer detection: %v", err)
	}

	got, err := s.LatestDetection()
	if err != nil {
		t.Fatalf("LatestDetection failed: %v", err)
	}
	if got == nil || got.Region != "global" {
		t.Errorf("LatestDetection = %+v, want the newer global record", got)
	}
	if got.GlobalSuccessRate != 1 {
		t.Errorf("GlobalSuccessRate = %v, want 1", got.GlobalSuccessRate)
	}
}

func TestListDetections(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		d := &Detection{Region: "china", DetectedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.RecordDetection(d); err != nil {
			t.Fatalf("recording detection %d: %v", i, err)
		}
	}

	got, err := s.ListDetections(3)
	if err != nil {
		t.Fatalf("ListDetections failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListDetections returned %d records, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].DetectedAt.After(got[i-1].DetectedAt) {
			t.Errorf("records not in most-recent-first order: %v before %v",
				got[i-1].DetectedAt, got[i].DetectedAt)
		}
	}
}
