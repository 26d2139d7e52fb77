package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPendingListAddGet(t *testing.T) {
	pending, err := NewPendingList(t.TempDir())
	if err != nil {
		t.Fatalf("NewPendingList failed: %v", err)
	}

	err = pending.Add(PendingTick{
		Name:          "toolz",
		PinnedVersion: "0.8.2",
		LatestVersion: "0.9.0",
		Status:        StatusPending,
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	tick, ok := pending.Get("toolz")
	if !ok {
		t.Fatalf("Get(toolz) missed")
	}
	if tick.LatestVersion != "0.9.0" || tick.Status != StatusPending {
		t.Errorf("tick = %+v", tick)
	}
	if tick.DetectedAt.IsZero() {
		t.Errorf("DetectedAt not stamped")
	}
}

func TestPendingListStatusTransitions(t *testing.T) {
	pending, err := NewPendingList(t.TempDir())
	if err != nil {
		t.Fatalf("NewPendingList failed: %v", err)
	}

	pending.Add(PendingTick{Name: "toolz", Status: StatusPending})

	if err := pending.SetStatus("toolz", StatusSubmitted, "", "https://github.com/conda-forge/toolz-feedstock/pull/7"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	tick, _ := pending.Get("toolz")
	if tick.PullRequestURL == "" {
		t.Errorf("submitted tick has no PR URL")
	}

	if err := pending.SetStatus("toolz", StatusFailed, "boom", ""); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	tick, _ = pending.Get("toolz")
	if tick.Error != "boom" || tick.PullRequestURL != "" {
		t.Errorf("failed tick = %+v", tick)
	}

	if err := pending.SetStatus("missing", StatusFailed, "", ""); !errors.Is(err, ErrFeedstockNotInPending) {
		t.Errorf("error = %v, want ErrFeedstockNotInPending", err)
	}
	if err := pending.SetStatus("toolz", TickStatus("bogus"), "", ""); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("error = %v, want ErrInvalidStatus", err)
	}
}

func TestPendingListPersistsAcrossLoads(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2018, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := NewPendingList(dir, WithPendingNowFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewPendingList failed: %v", err)
	}
	first.Add(PendingTick{Name: "six", Status: StatusBlocked})

	second, err := NewPendingList(dir)
	if err != nil {
		t.Fatalf("NewPendingList reload failed: %v", err)
	}

	tick, ok := second.Get("six")
	if !ok || tick.Status != StatusBlocked {
		t.Errorf("reloaded tick = %+v, ok = %v", tick, ok)
	}
	if !tick.DetectedAt.Equal(now) {
		t.Errorf("DetectedAt = %v, want %v", tick.DetectedAt, now)
	}
}

func TestPendingListCorruptedFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "pending.json"), []byte("{{{{"), 0644); err != nil {
		t.Fatalf("writing corrupt file failed: %v", err)
	}

	pending, err := NewPendingList(dir)
	if err != nil {
		t.Fatalf("NewPendingList on corrupted file failed: %v", err)
	}
	if pending.Len() != 0 {
		t.Errorf("corrupted pending list must start empty, got %d", pending.Len())
	}
}

func TestPendingListListByStatus(t *testing.T) {
	pending, err := NewPendingList(t.TempDir())
	if err != nil {
		t.Fatalf("NewPendingList failed: %v", err)
	}

	pending.Add(PendingTick{Name: "b", Status: StatusPending})
	pending.Add(PendingTick{Name: "a", Status: StatusPending})
	pending.Add(PendingTick{Name: "c", Status: StatusBlocked})

	got := pending.ListByStatus(StatusPending)
	if len(got) != 2 || got[0].Name != "a" || got[1].Name != "b" {
		t.Errorf("ListByStatus = %+v, want sorted [a b]", got)
	}
}
