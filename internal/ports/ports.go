package ports

import (
	"context"
	"time"

	"LinkedLens/internal/domain"
)

// PostExtractor reads the rendered page and returns candidate posts.
type PostExtractor interface {
	Extract() []domain.Post
}

// Classifier labels a batch of posts through an external AI service.
type Classifier interface {
	Classify(ctx context.Context, posts []domain.Post) ([]domain.ClassificationResult, error)
}

// Annotator renders classification labels and visibility onto the page.
type Annotator interface {
	Label(posts []domain.Post)
	SetVisibility(posts []domain.Post, hidden bool)
	RestoreAll()
}

// SettingsStore is the persisted key/value store for user settings.
type SettingsStore interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
}

// ProviderSettingsReader supplies provider selection and credentials at call time.
type ProviderSettingsReader interface {
	ProviderSettings(ctx context.Context) (domain.ProviderSettings, error)
}

// Metrics receives pipeline and provider observations.
type Metrics interface {
	RunFinished(outcome string, duration time.Duration)
	PostsClassified(stats domain.Stats)
	ProviderCall(provider string, status int, err error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
