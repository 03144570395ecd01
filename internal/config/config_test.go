package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeblew999/plat-gold/internal/mining"
)

func TestLoadGeneratorConfigMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generator.yaml")
	body := "concessions:\n  min: 1\n  max: 2\nmineJitterDeg: 0.05\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadGeneratorConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Concessions != (mining.IntRange{Min: 1, Max: 2}) {
		t.Fatalf("concessions=%+v", cfg.Concessions)
	}
	if cfg.MineJitterDeg != 0.05 {
		t.Fatalf("mineJitterDeg=%v", cfg.MineJitterDeg)
	}
	def := mining.DefaultConfig()
	if cfg.Mines != def.Mines || cfg.PolygonVertices != def.PolygonVertices {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
}

func TestLoadGeneratorConfigEmptyPath(t *testing.T) {
	cfg, err := LoadGeneratorConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != mining.DefaultConfig() {
		t.Fatalf("cfg=%+v, want defaults", cfg)
	}
}

func TestParseGeneratorConfigErrors(t *testing.T) {
	if _, err := ParseGeneratorConfig([]byte("concesions:\n  min: 1\n")); err == nil {
		t.Fatal("expected unknown-field error")
	}

	_, err := ParseGeneratorConfig([]byte("polygonVertices:\n  min: 4\n  max: 5\n"))
	var cfgErr *mining.ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "polygonVertices" {
		t.Fatalf("err=%v, want polygonVertices ConfigurationError", err)
	}

	_, err = ParseGeneratorConfig([]byte("polygonSizeKm: {min: 3, max: .nan}\n"))
	if !errors.As(err, &cfgErr) || cfgErr.Field != "polygonSizeKm" {
		t.Fatalf("err=%v, want polygonSizeKm ConfigurationError", err)
	}

	if _, err := LoadGeneratorConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestMarshalGeneratorConfigRoundTrip(t *testing.T) {
	cfg := mining.DefaultConfig()
	cfg.Transactions = mining.IntRange{Min: 0, Max: 9}
	data, err := MarshalGeneratorConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	got, err := ParseGeneratorConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("PLAT_GOLD_TEST_SEED=2404\nPLAT_GOLD_TEST_KEEP=file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLAT_GOLD_TEST_KEEP", "env")
	t.Setenv("PLAT_GOLD_TEST_SEED", "")
	os.Unsetenv("PLAT_GOLD_TEST_SEED")

	if err := LoadEnv(path, filepath.Join(dir, "absent.env")); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("PLAT_GOLD_TEST_SEED"); got != "2404" {
		t.Fatalf("seed=%q, want 2404", got)
	}
	if got := os.Getenv("PLAT_GOLD_TEST_KEEP"); got != "env" {
		t.Fatalf("existing variable overridden: %q", got)
	}
}
