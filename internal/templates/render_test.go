package templates

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestEmbeddedFragments(t *testing.T) {
	r, err := New()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"empty-state", "stat-card", "stat-cards", "layer-item", "layer-list", "legend-swatch", "tile-item", "dashboard"} {
		if r.templates.Lookup(name) == nil {
			t.Errorf("template %q not defined", name)
		}
	}

	html, err := r.Render("layer-list", nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "No layers") {
		t.Fatalf("empty list rendered %q", html)
	}
}

func TestReload(t *testing.T) {
	fsys := fstest.MapFS{"a.html": {Data: []byte(`{{define "hello"}}hi {{.}}{{end}}`)}}
	r, err := NewFS(fsys, "*.html")
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := r.Render("hello", "gold"); got != "hi gold" {
		t.Fatalf("got %q", got)
	}

	fsys["a.html"] = &fstest.MapFile{Data: []byte(`{{define "hello"}}bye {{.}}{{end}}`)}
	if err := r.Reload(fsys, "*.html"); err != nil {
		t.Fatal(err)
	}
	if got, _ := r.Render("hello", "gold"); got != "bye gold" {
		t.Fatalf("got %q", got)
	}

	fsys["a.html"] = &fstest.MapFile{Data: []byte(`{{define "hello"}}{{.Broken`)}
	if err := r.Reload(fsys, "*.html"); err == nil {
		t.Fatal("expected parse error")
	}
	if got, _ := r.Render("hello", "gold"); got != "bye gold" {
		t.Fatalf("after failed reload got %q", got)
	}

	if _, err := r.Render("missing", nil); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestThousands(t *testing.T) {
	tests := map[int]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4200: "-4,200"}
	for in, want := range tests {
		if got := thousands(in); got != want {
			t.Errorf("thousands(%d)=%q, want %q", in, got, want)
		}
	}
}
