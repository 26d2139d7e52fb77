// Package pipeline drives a full tick run: inventory, staleness
// classification, safe-subset filtering, recipe patching, and submission.
package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Error variables for pending list errors
var (
	// ErrPendingCorrupted is returned when the pending file cannot be parsed
	ErrPendingCorrupted = errors.New("pending file is corrupted")
	// ErrFeedstockNotInPending is returned when a feedstock has no pending entry
	ErrFeedstockNotInPending = errors.New("feedstock not found in pending list")
	// ErrInvalidStatus is returned when an unknown status is set
	ErrInvalidStatus = errors.New("invalid tick status")
)

// TickStatus represents where a detected update sits in the pipeline.
type TickStatus string

// Tick status constants
const (
	// StatusPending indicates a safe update that has not been submitted yet
	StatusPending TickStatus = "pending"
	// StatusBlocked indicates a stale feedstock held back by a stale dependency
	StatusBlocked TickStatus = "blocked"
	// StatusSubmitted indicates a pull request has been opened
	StatusSubmitted TickStatus = "submitted"
	// StatusFailed indicates the tick attempt failed
	StatusFailed TickStatus = "failed"
)

// ValidStatuses returns all valid tick statuses
func ValidStatuses() []TickStatus {
	return []TickStatus{StatusPending, StatusBlocked, StatusSubmitted, StatusFailed}
}

// IsValidStatus checks if a status is valid
func IsValidStatus(s TickStatus) bool {
	for _, valid := range ValidStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// PendingTick is one detected update awaiting or past submission.
type PendingTick struct {
	// Name is the feedstock package name
	Name string `json:"name"`
	// PinnedVersion is the version currently in the recipe
	PinnedVersion string `json:"pinned_version"`
	// LatestVersion is the upstream version detected
	LatestVersion string `json:"latest_version"`
	// Status is the current pipeline status of this update
	Status TickStatus `json:"status"`
	// DetectedAt is when this update was first detected
	DetectedAt time.Time `json:"detected_at"`
	// PullRequestURL is set once a pull request has been opened
	PullRequestURL string `json:"pull_request_url,omitempty"`
	// Error holds the failure message when status is failed
	Error string `json:"error,omitempty"`
}

// pendingFile is the JSON structure stored on disk
type pendingFile struct {
	Ticks map[string]PendingTick `json:"ticks"`
}

// PendingList persists detected updates across runs so a later tick can pick
// up what an earlier check found. Safe for concurrent use.
type PendingList struct {
	ticks   map[string]PendingTick
	path    string
	mu      sync.RWMutex
	nowFunc func() time.Time
}

// PendingListOption is a functional option for configuring PendingList
type PendingListOption func(*PendingList)

// WithPendingNowFunc sets a custom time function for testing
func WithPendingNowFunc(fn func() time.Time) PendingListOption {
	return func(p *PendingList) {
		p.nowFunc = fn
	}
}

// NewPendingList creates or loads a pending list from configDir/pending.json.
// A missing or corrupted file starts an empty list; the corrupted file is
// overwritten on the next save.
func NewPendingList(configDir string, opts ...PendingListOption) (*PendingList, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pending directory: %w", err)
	}

	pending := &PendingList{
		ticks:   make(map[string]PendingTick),
		path:    filepath.Join(configDir, "pending.json"),
		nowFunc: time.Now,
	}

	for _, opt := range opts {
		opt(pending)
	}

	if err := pending.load(); err != nil {
		if !os.IsNotExist(err) {
			pending.ticks = make(map[string]PendingTick)
		}
	}

	return pending, nil
}

func (p *PendingList) load() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return err
	}

	var pf pendingFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("%w: %v", ErrPendingCorrupted, err)
	}

	if pf.Ticks != nil {
		p.ticks = pf.Ticks
	}

	return nil
}

// Add records or replaces a pending tick and saves the list.
func (p *PendingList) Add(tick PendingTick) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if tick.DetectedAt.IsZero() {
		tick.DetectedAt = p.nowFunc()
	}
	if !IsValidStatus(tick.Status) {
		tick.Status = StatusPending
	}

	p.ticks[tick.Name] = tick
	return p.saveUnsafe()
}

// Get retrieves a pending tick by feedstock name.
func (p *PendingList) Get(name string) (*PendingTick, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	tick, exists := p.ticks[name]
	if !exists {
		return nil, false
	}
	return &tick, true
}

// SetStatus moves a tick to a new status. errMsg fills the Error field when
// the status is failed; prURL fills PullRequestURL when submitted.
func (p *PendingList) SetStatus(name string, status TickStatus, errMsg, prURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	tick, exists := p.ticks[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrFeedstockNotInPending, name)
	}
	if !IsValidStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	tick.Status = status
	tick.Error = ""
	tick.PullRequestURL = ""
	switch status {
	case StatusFailed:
		tick.Error = errMsg
	case StatusSubmitted:
		tick.PullRequestURL = prURL
	}

	p.ticks[name] = tick
	return p.saveUnsafe()
}

// List returns all pending ticks sorted by name.
func (p *PendingList) List() []PendingTick {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ticks := make([]PendingTick, 0, len(p.ticks))
	for _, tick := range p.ticks {
		ticks = append(ticks, tick)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Name < ticks[j].Name })
	return ticks
}

// ListByStatus returns all pending ticks with the given status, sorted by name.
func (p *PendingList) ListByStatus(status TickStatus) []PendingTick {
	var ticks []PendingTick
	for _, tick := range p.List() {
		if tick.Status == status {
			ticks = append(ticks, tick)
		}
	}
	return ticks
}

// Delete removes a feedstock from the pending list and saves.
func (p *PendingList) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.ticks, name)
	return p.saveUnsafe()
}

// Clear removes all entries and saves.
func (p *PendingList) Clear() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ticks = make(map[string]PendingTick)
	return p.saveUnsafe()
}

// Len returns the number of entries in the pending list.
func (p *PendingList) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.ticks)
}

// Has checks if a feedstock has a pending entry.
func (p *PendingList) Has(name string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, exists := p.ticks[name]
	return exists
}

// saveUnsafe persists the list to disk. Caller must hold the write lock.
// Writes go to a temp file first, then rename, so readers never see a
// partial file.
func (p *PendingList) saveUnsafe() error {
	data, err := json.MarshalIndent(pendingFile{Ticks: p.ticks}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pending list: %w", err)
	}

	tmpPath := p.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write pending file: %w", err)
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename pending file: %w", err)
	}

	return nil
}
