package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/robalobadob/viewduel/internal/catalog"
)

const videoJSON = `{
  "items": [{
    "id": "9bZkp7q19f0",
    "snippet": {
      "title": "PSY - GANGNAM STYLE(강남스타일) M/V",
      "publishedAt": "2012-07-15T07:46:32Z",
      "thumbnails": {
        "default": {"url": "https://i.ytimg.com/vi/9bZkp7q19f0/default.jpg"},
        "high": {"url": "https://i.ytimg.com/vi/9bZkp7q19f0/hqdefault.jpg"}
      }
    },
    "statistics": {"viewCount": "5400000000", "likeCount": "1"}
  }]
}`

// fakeAPI serves a canned videos.list body and records the last query.
func fakeAPI(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	last := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*last = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, last
}

func newTestClient(t *testing.T, srv *httptest.Server, payload Payload) *YouTube {
	t.Helper()
	yt, err := NewYouTube(context.Background(), "test-key", payload,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewYouTube: %v", err)
	}
	return yt
}

var gangnam = catalog.Entry{ID: "9bZkp7q19f0", Title: "PSY - Gangnam Style"}

func TestFetchRich(t *testing.T) {
	srv, last := fakeAPI(t, http.StatusOK, videoJSON)
	yt := newTestClient(t, srv, PayloadRich)

	it, err := yt.Fetch(context.Background(), gangnam)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if it.ID != gangnam.ID {
		t.Errorf("Expected id %s, got %s", gangnam.ID, it.ID)
	}
	if it.Views != 5400000000 {
		t.Errorf("Expected 5400000000 views, got %d", it.Views)
	}
	if !strings.HasPrefix(it.Title, "PSY - GANGNAM STYLE") {
		t.Errorf("Expected upstream title, got %q", it.Title)
	}
	if !strings.HasSuffix(it.Thumbnail, "hqdefault.jpg") {
		t.Errorf("Expected high thumbnail, got %q", it.Thumbnail)
	}
	want := time.Date(2012, 7, 15, 7, 46, 32, 0, time.UTC)
	if !it.PublishedAt.Equal(want) {
		t.Errorf("Expected publishedAt %v, got %v", want, it.PublishedAt)
	}

	q := last.URL.Query()
	if q.Get("id") != gangnam.ID {
		t.Errorf("Expected id query %s, got %q", gangnam.ID, q.Get("id"))
	}
	if !strings.HasSuffix(last.URL.Path, "/videos") {
		t.Errorf("Expected videos endpoint, got %s", last.URL.Path)
	}
	if parts := strings.Join(q["part"], ","); parts != "snippet,statistics" {
		t.Errorf("Expected snippet,statistics parts, got %q", parts)
	}
}

func TestFetchViewsOnlyKeepsCatalogTitle(t *testing.T) {
	srv, last := fakeAPI(t, http.StatusOK, videoJSON)
	yt := newTestClient(t, srv, PayloadViews)

	it, err := yt.Fetch(context.Background(), gangnam)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if it.Title != gangnam.Title {
		t.Errorf("Expected catalog title, got %q", it.Title)
	}
	if it.Thumbnail != "" || !it.PublishedAt.IsZero() {
		t.Errorf("Expected no snippet data, got %+v", it)
	}
	if parts := strings.Join(last.URL.Query()["part"], ","); parts != "statistics" {
		t.Errorf("Expected statistics part only, got %q", parts)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "empty item list is not found",
			status:  http.StatusOK,
			body:    `{"items": []}`,
			wantErr: ErrNotFound,
		},
		{
			name:    "missing statistics",
			status:  http.StatusOK,
			body:    `{"items": [{"id": "x"}]}`,
			wantErr: ErrNoStats,
		},
		{
			name:   "upstream error status",
			status: http.StatusForbidden,
			body:   `{"error": {"code": 403, "message": "quotaExceeded"}}`,
		},
		{
			name:   "malformed json",
			status: http.StatusOK,
			body:   `{"items": [`,
		},
		{
			name:   "bad publish date",
			status: http.StatusOK,
			body:   `{"items": [{"snippet": {"publishedAt": "yesterday"}, "statistics": {"viewCount": "1"}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := fakeAPI(t, tt.status, tt.body)
			yt := newTestClient(t, srv, PayloadRich)

			_, err := yt.Fetch(context.Background(), gangnam)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewYouTubeValidation(t *testing.T) {
	if _, err := NewYouTube(context.Background(), "", PayloadRich); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
	if _, err := NewYouTube(context.Background(), "k", Payload("everything")); !errors.Is(err, ErrBadPayload) {
		t.Errorf("Expected ErrBadPayload, got %v", err)
	}
}

func TestParsePayload(t *testing.T) {
	for _, s := range []string{"rich", "views"} {
		if p, err := ParsePayload(s); err != nil || string(p) != s {
			t.Errorf("ParsePayload(%q) = %q, %v", s, p, err)
		}
	}
	if _, err := ParsePayload("RICH"); err == nil {
		t.Error("Expected error for unknown payload")
	}
}
