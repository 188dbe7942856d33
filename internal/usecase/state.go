package usecase

import (
	"sync"

	"LinkedLens/internal/domain"
)

// State holds the pipeline state for the lifetime of one page.
// It is the only place run results and user flags live; callers go through its methods.
type State struct {
	mu         sync.Mutex
	posts      []domain.Post
	autoHide   bool
	enabled    bool
	processing bool
	lastError  *string
}

// Snapshot is a consistent copy of State.
type Snapshot struct {
	Posts            []domain.Post
	Stats            domain.Stats
	AutoHideEnabled  bool
	ExtensionEnabled bool
	IsProcessing     bool
	LastError        *string
}

// NewState returns the page-load defaults: enabled, auto-hide off.
func NewState() *State {
	return &State{enabled: true}
}

// Hydrate applies persisted toggles.
func (s *State) Hydrate(t domain.Toggles) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = t.ExtensionEnabled
	s.autoHide = t.AutoHide
}

// Snapshot copies the current state; stats are derived from the posts.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Posts:            append([]domain.Post(nil), s.posts...),
		Stats:            domain.ComputeStats(s.posts),
		AutoHideEnabled:  s.autoHide,
		ExtensionEnabled: s.enabled,
		IsProcessing:     s.processing,
	}
	if s.lastError != nil {
		msg := *s.lastError
		snap.LastError = &msg
	}
	return snap
}

// Posts returns a copy of the posts of the last successful run.
func (s *State) Posts() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Post(nil), s.posts...)
}

// SetAutoHide stores the flag and reports whether bait posts should now be hidden.
func (s *State) SetAutoHide(on bool) (hide bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoHide = on
	return s.autoHide && s.enabled
}

// SetExtensionEnabled stores the flag and reports whether bait posts should now be hidden.
func (s *State) SetExtensionEnabled(on bool) (hide bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = on
	return s.autoHide && s.enabled
}

// ShouldHide reports whether both auto-hide and the extension are on.
// Auto-hide alone is not enough: a disabled extension never hides posts.
func (s *State) ShouldHide() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoHide && s.enabled
}

// begin is the single-flight guard. It clears the last error when a run starts.
func (s *State) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	s.processing = true
	s.lastError = nil
	return true
}

func (s *State) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
}

func (s *State) fail(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = &msg
}

// commit replaces the posts wholesale.
func (s *State) commit(posts []domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
}
