package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"github.com/ulule/limiter/v3"

	"tv-finder/internal/models"
	"tv-finder/internal/repository"
	"tv-finder/internal/service"
	"tv-finder/internal/session"
	"tv-finder/internal/tvmaze"
	"tv-finder/internal/ui"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type countingProvider struct {
	mu           sync.Mutex
	searchCalls  int
	episodeCalls int
}

func (p *countingProvider) SearchShows(_ context.Context, query string) ([]tvmaze.SearchMatch, error) {
	p.mu.Lock()
	p.searchCalls++
	p.mu.Unlock()
	return []tvmaze.SearchMatch{
		{Score: 0.9, Show: tvmaze.Show{ID: 139, Name: query}},
	}, nil
}

func (p *countingProvider) GetEpisodes(_ context.Context, showID int) ([]tvmaze.Episode, error) {
	p.mu.Lock()
	p.episodeCalls++
	p.mu.Unlock()
	one := 1
	return []tvmaze.Episode{{ID: 1, Name: "Winter Is Coming", Season: &one, Number: &one}}, nil
}

type testServer struct {
	engine   *gin.Engine
	provider service.ShowProvider
	diag     *service.Diagnostics
}

func newTestServer(t *testing.T, provider service.ShowProvider, diag *service.Diagnostics, apiToken string, rate string) *testServer {
	t.Helper()

	if diag == nil {
		diag = service.NewDiagnostics(nil, nil)
	}
	if rate == "" {
		rate = "1000-M"
	}
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		t.Fatal(err)
	}

	sessions := session.NewStore(time.Minute, func() *ui.Router {
		return ui.NewRouter(provider, diag)
	})
	engine, err := NewEngine(NewHTTPHandler(provider, diag, sessions, apiToken, r))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return &testServer{engine: engine, provider: provider, diag: diag}
}

func (s *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, cookies...)
}

func (s *testServer) page(t *testing.T, cookies ...*http.Cookie) *goquery.Document {
	t.Helper()
	rec := s.do(httptest.NewRequest(http.MethodGet, "/", nil), cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d", rec.Code)
	}
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestSearchAndEpisodesFlow(t *testing.T) {
	provider := &countingProvider{}
	s := newTestServer(t, provider, nil, "", "")

	rec := s.postForm("/search", url.Values{"q": {"Game of Thrones"}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST /search status = %d, want 303", rec.Code)
	}
	cookie := sessionCookie(t, rec)

	doc := s.page(t, cookie)
	card := doc.Find(`#shows-list .Show[data-show-id="139"]`)
	if card.Length() != 1 {
		t.Fatalf("show card for 139 not rendered")
	}
	if got := strings.TrimSpace(card.Find(".card-text").Text()); got != models.MissingSummary {
		t.Errorf("card summary = %q", got)
	}
	if doc.Find("#episodes-area").Length() != 0 {
		t.Error("episode area should be hidden after a search")
	}

	rec = s.postForm("/shows/139/episodes", nil, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("POST episodes status = %d, want 303", rec.Code)
	}

	doc = s.page(t, cookie)
	got := strings.TrimSpace(doc.Find("#episodes-list li").Text())
	if got != "Winter Is Coming (season 1, episode 1)" {
		t.Errorf("episode item = %q", got)
	}
	if id, _ := doc.Find("#episodes-area").Attr("data-show-id"); id != "139" {
		t.Errorf("episode area show id = %q", id)
	}
}

func TestEmptySearchSkipsProvider(t *testing.T) {
	provider := &countingProvider{}
	s := newTestServer(t, provider, nil, "", "")

	rec := s.postForm("/search", url.Values{"q": {""}})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if provider.searchCalls != 0 {
		t.Errorf("provider called %d times for empty query", provider.searchCalls)
	}

	doc := s.page(t, sessionCookie(t, rec))
	if doc.Find("#shows-list .Show").Length() != 0 {
		t.Error("no shows should render")
	}
}

func TestSessionsDoNotShareState(t *testing.T) {
	s := newTestServer(t, &countingProvider{}, nil, "", "")

	rec := s.postForm("/search", url.Values{"q": {"Girls"}})
	sessionCookie(t, rec)

	// a fresh browser sees an empty page
	doc := s.page(t)
	if doc.Find("#shows-list .Show").Length() != 0 {
		t.Error("new session should not see another session's shows")
	}
}

func TestRequestEpisodesInvalidID(t *testing.T) {
	s := newTestServer(t, &countingProvider{}, nil, "", "")

	for _, id := range []string{"abc", "0", "-4"} {
		rec := s.postForm("/shows/"+id+"/episodes", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", id, rec.Code)
		}
	}
}

func TestAPISearch(t *testing.T) {
	s := newTestServer(t, &countingProvider{}, nil, "", "")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/search?q=Girls", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Shows    []models.ShowSummary `json:"shows"`
		Messages []string             `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	want := []models.ShowSummary{
		{ID: 139, Name: "Girls", Summary: "No summary available", Image: "http://tinyurl.com/missing-tv"},
	}
	if diff := cmp.Diff(want, body.Shows); diff != "" {
		t.Errorf("shows mismatch (-want +got):\n%s", diff)
	}
	if len(body.Messages) != 0 {
		t.Errorf("messages = %v, want none", body.Messages)
	}
}

func TestAPISearchRequiresQuery(t *testing.T) {
	s := newTestServer(t, &countingProvider{}, nil, "", "")

	for _, q := range []string{"", "%20%20"} {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/search?q="+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("q=%q: status = %d, want 400", q, rec.Code)
		}
	}
}

func newDiagnostics(t *testing.T) *service.Diagnostics {
	t.Helper()
	db, err := repository.NewSQLiteDB(filepath.Join(t.TempDir(), "diag.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatal(err)
	}
	return service.NewDiagnostics(repository.NewDiagnosticsRepository(db), nil)
}

func TestAPISearchProviderFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	client := tvmaze.NewClient()
	client.SetBaseURL(upstream.URL)

	diag := newDiagnostics(t)
	s := newTestServer(t, client, diag, "secret", "")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/search?q=Girls", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Shows    []models.ShowSummary `json:"shows"`
		Messages []string             `json:"messages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Shows == nil || len(body.Shows) != 0 {
		t.Errorf("shows = %#v, want []", body.Shows)
	}
	if diff := cmp.Diff([]string{"Error fetching shows. Please try again."}, body.Messages); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = s.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("diagnostics status = %d", rec.Code)
	}
	var diagBody struct {
		Errors []models.ProviderError `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &diagBody); err != nil {
		t.Fatal(err)
	}
	if len(diagBody.Errors) != 1 || diagBody.Errors[0].Operation != service.OpSearchShows {
		t.Errorf("diagnostics = %+v", diagBody.Errors)
	}
}

func TestPageShowsNoticeOnFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	client := tvmaze.NewClient()
	client.SetBaseURL(upstream.URL)
	s := newTestServer(t, client, nil, "", "")

	rec := s.postForm("/search", url.Values{"q": {"Girls"}})
	cookie := sessionCookie(t, rec)

	doc := s.page(t, cookie)
	if got := strings.TrimSpace(doc.Find(".notice").Text()); got != "Error fetching shows. Please try again." {
		t.Errorf("notice = %q", got)
	}

	// notices are shown once
	if s.page(t, cookie).Find(".notice").Length() != 0 {
		t.Error("notice should not repeat")
	}
}

func TestAPIEpisodes(t *testing.T) {
	s := newTestServer(t, &countingProvider{}, nil, "", "")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/api/shows/139/episodes", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Episodes []models.EpisodeSummary `json:"episodes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Episodes) != 1 || body.Episodes[0].Name != "Winter Is Coming" {
		t.Errorf("episodes = %+v", body.Episodes)
	}

	rec = s.do(httptest.NewRequest(http.MethodGet, "/api/shows/x/episodes", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d, want 400", rec.Code)
	}
}

func TestDiagnosticsAuth(t *testing.T) {
	tests := []struct {
		name     string
		apiToken string
		header   string
		want     int
	}{
		{"token not configured", "", "Bearer anything", http.StatusForbidden},
		{"missing header", "secret", "", http.StatusUnauthorized},
		{"wrong scheme", "secret", "Basic secret", http.StatusUnauthorized},
		{"wrong token", "secret", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "secret", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &countingProvider{}, nil, tt.apiToken, "")
			req := httptest.NewRequest(http.MethodGet, "/api/diagnostics", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if rec := s.do(req); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, &countingProvider{}, nil, "", "2-M")

	var codes []int
	for i := 0; i < 3; i++ {
		rec := s.do(httptest.NewRequest(http.MethodGet, "/api/search?q=Girls", nil))
		codes = append(codes, rec.Code)
	}
	if diff := cmp.Diff([]int{200, 200, 429}, codes); diff != "" {
		t.Errorf("status codes mismatch (-want +got):\n%s", diff)
	}

	// probes are never limited
	if rec := s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("health status = %d", rec.Code)
	}
}
