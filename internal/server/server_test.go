package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joeblew999/plat-gold/internal/db"
	"github.com/joeblew999/plat-gold/internal/service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(context.Background(), Config{
		Host: "localhost", Port: "8087", DataDir: t.TempDir(), Seed: 1, NoDB: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func get(s *Server, path string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)
	w := get(s, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(strings.Join(w.Header().Values("Link"), ","), `rel="service-desc"`) {
		t.Fatalf("root links=%v", w.Header().Values("Link"))
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
	if get(s, "/nope").Code != http.StatusNotFound {
		t.Fatal("unknown path should 404")
	}
}

func TestLayersCarryLinks(t *testing.T) {
	s := newTestServer(t)
	w := get(s, "/api/v1/layers/ghanaGoldMinesLayer")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
	links := strings.Join(w.Header().Values("Link"), ",")
	for _, rel := range []string{`rel="collection"`, `rel="self"`, `rel="toggle-visibility"`, `rel="geojson"`} {
		if !strings.Contains(links, rel) {
			t.Errorf("links missing %s: %s", rel, links)
		}
	}
}

func TestInfoAndMetrics(t *testing.T) {
	s := newTestServer(t)
	var info struct {
		Origin   string   `json:"origin"`
		DB       bool     `json:"db"`
		Features []string `json:"features"`
	}
	if err := json.Unmarshal(get(s, "/api/v1/info").Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Origin != "mock" || info.DB {
		t.Fatalf("info=%+v", info)
	}

	get(s, "/api/v1/layers")
	body := get(s, "/metrics").Body.String()
	for _, name := range []string{"plat_gold_dataset_generations_total", "plat_gold_http_requests_total"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics missing %s", name)
		}
	}
}

func TestTilesCORS(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/tiles/ghanaGoldMinesLayer.pmtiles", nil)
	req.Header.Set("Origin", "https://maps.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	req.Header.Set("Access-Control-Request-Headers", "Range")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("preflight headers=%v", w.Header())
	}
}

func TestDashboardTemplatesReload(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "dashboard.html")
	if err := os.WriteFile(page, []byte(`{{define "dashboard"}}first {{.Title}}{{end}}`), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := New(context.Background(), Config{DataDir: t.TempDir(), NoDB: true, TemplatesDir: dir})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	if body := get(s, "/dashboard").Body.String(); body != "first Ghana Gold Mining" {
		t.Fatalf("body=%q", body)
	}
	if err := os.WriteFile(page, []byte(`{{define "dashboard"}}second{{end}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if body := get(s, "/dashboard").Body.String(); body != "second" {
		t.Fatalf("body=%q, want reloaded template", body)
	}
}

func TestDashboardPage(t *testing.T) {
	s := newTestServer(t)
	w := get(s, "/dashboard")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "data-init") {
		t.Fatalf("status=%d body=%s", w.Code, w.Body)
	}
}

func TestOpenAPI(t *testing.T) {
	s := newTestServer(t)
	paths := s.OpenAPI().Paths
	for _, p := range []string{"/api/v1/layers", "/api/v1/tooltip", "/api/v1/query", "/api/v1/dashboard/events"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("OpenAPI missing %s", p)
		}
	}
}

func TestTableSourceNeedsDB(t *testing.T) {
	_, err := New(context.Background(), Config{DataDir: t.TempDir(), Source: service.OriginTable, NoDB: true})
	if err == nil {
		t.Fatal("expected error for table source without database")
	}
}

func TestFailedStartClosesDB(t *testing.T) {
	// An empty database has no dataset tables, so the table source fails.
	_, err := New(context.Background(), Config{DataDir: t.TempDir(), Source: service.OriginTable})
	if err == nil {
		t.Fatal("expected error loading tables from an empty database")
	}
	conn, _ := db.Get(db.Config{})
	if conn == nil {
		t.Fatal("database was never opened")
	}
	if err := conn.Ping(); err == nil {
		t.Fatal("database left open after failed start")
	}
}
