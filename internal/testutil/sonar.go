package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Route is a canned SonarQube response.
type Route struct {
	Status int
	Body   string
	// ContentType defaults to application/json.
	ContentType string
}

// SonarRequest records one request received by a FakeSonar.
type SonarRequest struct {
	Path  string
	Query url.Values
	Auth  string
}

// FakeSonar is an httptest server that answers by path.
type FakeSonar struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]Route
	requests []SonarRequest
}

// NewFakeSonar starts a fake SonarQube serving routes and closes it with the
// test. Unknown paths answer 404.
func NewFakeSonar(t *testing.T, routes map[string]Route) *FakeSonar {
	t.Helper()
	f := &FakeSonar{routes: routes}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeSonar) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, SonarRequest{Path: r.URL.Path, Query: r.URL.Query(), Auth: r.Header.Get("Authorization")})
	rt, ok := f.routes[r.URL.Path]
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	ct := rt.ContentType
	if ct == "" {
		ct = "application/json"
	}
	status := rt.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(rt.Body))
}

// Requests returns the requests received so far.
func (f *FakeSonar) Requests() []SonarRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SonarRequest(nil), f.requests...)
}

// Paths returns the paths of the requests received so far.
func (f *FakeSonar) Paths() []string {
	var out []string
	for _, r := range f.Requests() {
		out = append(out, r.Path)
	}
	return out
}
