package testutil

import (
	"embed"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

//go:embed testdata/*.json
var fixtures embed.FS

// Fixture routes. Player and match routes match any id.
const (
	RoutePlayers    = "/players/"
	RouteHeroStats  = "/heroStats"
	RouteHeroes     = "/heroes"
	RouteProMatches = "/proMatches"
	RouteMatches    = "/matches/"
)

var fixtureFiles = map[string]string{
	RoutePlayers:    "testdata/players.json",
	RouteHeroStats:  "testdata/heroStats.json",
	RouteHeroes:     "testdata/heroes.json",
	RouteProMatches: "testdata/proMatches.json",
	RouteMatches:    "testdata/matches.json",
}

// Fixture returns the body served for route
func Fixture(t *testing.T, route string) []byte {
	t.Helper()
	data, err := fixtures.ReadFile(fixtureFiles[route])
	if err != nil {
		t.Fatalf("fixture for %s: %v", route, err)
	}
	return data
}

// OpenDotaServer is an httptest server that answers the OpenDota endpoints
// from fixtures. Routes can be overridden per test.
type OpenDotaServer struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
	query  map[string]url.Values
}

// NewOpenDotaServer starts a fixture server closed at test cleanup
func NewOpenDotaServer(t *testing.T) *OpenDotaServer {
	t.Helper()
	s := &OpenDotaServer{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
		query:  make(map[string]url.Values),
	}
	for route := range fixtureFiles {
		s.Body(route, Fixture(t, route))
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func routeOf(path string) string {
	if i := strings.Index(path[1:], "/"); i >= 0 {
		return path[:i+2]
	}
	return path
}

func (s *OpenDotaServer) serve(w http.ResponseWriter, r *http.Request) {
	route := routeOf(r.URL.Path)

	s.mu.Lock()
	h, ok := s.routes[route]
	s.hits[route]++
	s.query[route] = r.URL.Query()
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

// Handle replaces the handler of route
func (s *OpenDotaServer) Handle(route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[route] = h
}

// Body serves body as JSON on route
func (s *OpenDotaServer) Body(route string, body []byte) {
	s.Handle(route, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}

// Fail answers route with status
func (s *OpenDotaServer) Fail(route string, status int) {
	s.Handle(route, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"fixture failure"}`, status)
	})
}

// Delay holds route for d, or until the request is cancelled, before
// serving its fixture
func (s *OpenDotaServer) Delay(t *testing.T, route string, d time.Duration) {
	body := Fixture(t, route)
	s.Handle(route, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write(body)
	})
}

// Hits returns how many requests reached route
func (s *OpenDotaServer) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// LastQuery returns the query of the last request to route
func (s *OpenDotaServer) LastQuery(route string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query[route]
}
