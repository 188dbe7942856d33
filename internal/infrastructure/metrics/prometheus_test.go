package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"LinkedLens/internal/domain"
)

func TestRecorderCounts(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.RunFinished("classified", 2*time.Second)
	r.RunFinished("skipped", 0)
	r.RunFinished("classified", time.Second)

	if got := testutil.ToFloat64(r.runs.WithLabelValues("classified")); got != 2 {
		t.Fatalf("expected 2 classified runs, got %v", got)
	}
	if got := testutil.CollectAndCount(r.runDuration); got != 1 {
		t.Fatalf("expected one histogram series, got %d", got)
	}

	r.ProviderCall("gemini", 500, nil)
	r.ProviderCall("gemini", 0, errors.New("reset"))
	r.ProviderCall("gemini", 200, nil)
	if got := testutil.ToFloat64(r.providerCalls.WithLabelValues("gemini", "0")); got != 1 {
		t.Fatalf("expected one transport failure, got %v", got)
	}

	r.PostsClassified(domain.Stats{Total: 5, Bait: 2, Genuine: 2})
	if got := testutil.ToFloat64(r.posts.WithLabelValues("unclassified")); got != 1 {
		t.Fatalf("expected 1 unclassified post, got %v", got)
	}
}

func TestRecorderHandler(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	r.RunFinished("failed", time.Second)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `linkedlens_analysis_runs_total{outcome="failed"} 1`) {
		t.Fatalf("metrics output missing run counter:\n%s", body)
	}
}
