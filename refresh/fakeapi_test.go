package refresh_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeAPI is a backend with one valid access token at a time. Refresh rotates the
// pair; every other path answers 200 to the valid bearer token and 401 otherwise.
type fakeAPI struct {
	mu      sync.Mutex
	access  string
	refresh string
	hits    map[string]int
	auths   []string

	refreshCalls  atomic.Int32
	refreshStatus int                      // non-zero makes /refresh fail with this status
	refreshBody   string                   // overrides the refresh response body
	release       chan struct{}            // when set /refresh blocks until closed
	rejectAll     bool                     // 401 even for the current token
	failStatus    int                      // non-zero answers every resource with this status
	stall         map[string]chan struct{} // holds responses for a path until closed
}

func newFakeAPI(t *testing.T, access, refresh string) (*fakeAPI, *httptest.Server) {
	t.Helper()

	api := &fakeAPI{access: access, refresh: refresh, hits: make(map[string]int)}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/backend/refresh" {
		f.handleRefresh(w, r)
		return
	}

	f.mu.Lock()
	f.hits[r.URL.Path]++
	attempt := f.hits[r.URL.Path]
	f.auths = append(f.auths, r.Header.Get("Authorization"))
	valid := r.Header.Get("Authorization") == "Bearer "+f.access && !f.rejectAll
	failStatus := f.failStatus
	stall := f.stall[r.URL.Path]
	f.mu.Unlock()

	if stall != nil {
		<-stall
	}

	if failStatus != 0 {
		writeJSON(w, failStatus, fmt.Sprintf(`{"message":"failure attempt %d"}`, attempt))
		return
	}
	if !valid {
		writeJSON(w, http.StatusUnauthorized, fmt.Sprintf(`{"message":"attempt %d","error":"unauthorized"}`, attempt))
		return
	}
	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"path":%q}`, r.URL.Path))
}

func (f *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	n := f.refreshCalls.Add(1)
	if f.release != nil {
		<-f.release
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, `{"message":"bad body"}`)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refreshStatus != 0 {
		writeJSON(w, f.refreshStatus, `{"message":"refresh unavailable"}`)
		return
	}
	if body.Token != f.refresh {
		writeJSON(w, http.StatusUnauthorized, `{"message":"unknown refresh token"}`)
		return
	}
	if f.refreshBody != "" {
		writeJSON(w, http.StatusOK, f.refreshBody)
		return
	}

	f.access = fmt.Sprintf("access-%d", n)
	f.refresh = fmt.Sprintf("refresh-%d", n)
	writeJSON(w, http.StatusOK, fmt.Sprintf(`{"access_token":%q,"refresh_token":%q}`, f.access, f.refresh))
}

// stallPath holds every response for path, decided on arrival, until the
// returned func is called.
func (f *fakeAPI) stallPath(path string) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stall == nil {
		f.stall = make(map[string]chan struct{})
	}
	ch := make(chan struct{})
	f.stall[path] = ch
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeAPI) hitCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeAPI) authHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.auths...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
