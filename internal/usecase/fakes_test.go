package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"LinkedLens/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubExtractor struct {
	posts []domain.Post
}

func (s *stubExtractor) Extract() []domain.Post {
	return append([]domain.Post(nil), s.posts...)
}

type stubClassifier struct {
	results []domain.ClassificationResult
	err     error
	calls   atomic.Int32
	// release, when set, blocks Classify until it is closed.
	release chan struct{}
	started chan struct{}
}

func (s *stubClassifier) Classify(ctx context.Context, posts []domain.Post) ([]domain.ClassificationResult, error) {
	s.calls.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	return s.results, s.err
}

type visibilityCall struct {
	ids    []int
	hidden bool
}

type recordingAnnotator struct {
	mu         sync.Mutex
	labeled    [][]domain.Post
	visibility []visibilityCall
	restores   int
}

func (a *recordingAnnotator) Label(posts []domain.Post) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.labeled = append(a.labeled, posts)
}

func (a *recordingAnnotator) SetVisibility(posts []domain.Post, hidden bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	call := visibilityCall{hidden: hidden}
	for _, p := range posts {
		if p.Classification == domain.ClassificationEngagementBait {
			call.ids = append(call.ids, p.ID)
		}
	}
	a.visibility = append(a.visibility, call)
}

func (a *recordingAnnotator) RestoreAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.restores++
}

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMapStore(values map[string]string) *mapStore {
	if values == nil {
		values = map[string]string{}
	}
	return &mapStore{values: values}
}

func (m *mapStore) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *mapStore) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}
