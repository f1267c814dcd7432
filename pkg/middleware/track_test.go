package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/notify"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recorder struct {
	mu        sync.Mutex
	summaries []association.Summary
}

func (rec *recorder) Notify(_ context.Context, s association.Summary) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.summaries = append(rec.summaries, s)
	return nil
}

var _ notify.Notifier = (*recorder)(nil)

func lazyComments(w http.ResponseWriter, r *http.Request) {
	req, ok := RequestFrom(r)
	if !ok {
		http.Error(w, "untracked", http.StatusInternalServerError)
		return
	}
	for _, id := range []int{1, 2} {
		if err := req.NotifyAccess("Post", "comments", id); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func TestTrackWithChiRouter(t *testing.T) {
	rec := &recorder{}
	r := chi.NewRouter()
	r.Use(Track(TrackConfig{Notifier: rec, Logger: zaptest.NewLogger(t)}))
	r.Get("/posts/{id}", lazyComments)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/posts/7", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	require.Len(t, rec.summaries, 1)
	summary := rec.summaries[0]
	assert.Equal(t, "GET /posts/{id}", summary.Label)
	assert.True(t, summary.Unpreloaded.Contains(association.Key{Owner: "Post", Name: "comments"}, association.Path{}))
}

func TestTrackIsolatesConcurrentRequests(t *testing.T) {
	rec := &recorder{}
	handler := Track(TrackConfig{Notifier: rec})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, _ := RequestFrom(r)
		// a single post per request never crosses the threshold
		_ = req.NotifyAccess("Post", "comments", r.URL.Query().Get("id"))
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts?id="+string(rune('a'+i)), nil))
		}(i)
	}
	wg.Wait()

	require.Len(t, rec.summaries, 20)
	ids := make(map[string]struct{})
	for _, s := range rec.summaries {
		assert.True(t, s.Unpreloaded.Empty())
		ids[s.RequestID] = struct{}{}
	}
	assert.Len(t, ids, 20)
}

func TestTrackSkipsPathsAndDisabledConfig(t *testing.T) {
	rec := &recorder{}
	untracked := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := RequestFrom(r)
		assert.False(t, ok)
	})

	Track(TrackConfig{Notifier: rec, SkipPaths: []string{"/health"}})(untracked).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	disabled := association.DefaultConfig()
	disabled.Enabled = false
	Track(TrackConfig{Notifier: rec, Detection: disabled})(untracked).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/posts", nil))

	assert.Empty(t, rec.summaries)
}

func TestTrackNotifiesAfterUnbalancedHandler(t *testing.T) {
	rec := &recorder{}
	handler := Track(TrackConfig{Notifier: rec})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, _ := RequestFrom(r)
		_ = req.EnterAssociation("Category", "posts")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/categories", nil))
	require.Len(t, rec.summaries, 1)
	assert.Equal(t, "GET /categories", rec.summaries[0].Label)
}
