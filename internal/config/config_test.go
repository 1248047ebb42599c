package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func TestLoadConfig_Valid(t *testing.T) {
	path := writeTemp(t, "solarview.yaml", `
service:
  base_url: http://ephemeris.local:9000
fetch:
  min_interval: 750ms
clock:
  mode: fixed
  start: "2030-01-01"
scene:
  flatten: 0.5
bodies:
  - id: sun
  - id: earth
    radius_override: 40
  - id: mars
    wire_name: Mars
    radius_override: 55
`)
	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Service.BaseURL != "http://ephemeris.local:9000" {
		t.Errorf("base url = %q", cfg.Service.BaseURL)
	}
	if cfg.Fetch.MinInterval != 750*time.Millisecond {
		t.Errorf("min interval = %v", cfg.Fetch.MinInterval)
	}
	if cfg.Clock.Mode != "fixed" || cfg.Clock.Start != "2030-01-01" {
		t.Errorf("clock = %+v", cfg.Clock)
	}
	// unset keys keep their defaults
	if cfg.Scene.AUToUnits != 30 || cfg.Scene.Flatten != 0.5 {
		t.Errorf("scene = %+v", cfg.Scene)
	}
	if cfg.FrameInterval != 50*time.Millisecond {
		t.Errorf("frame interval = %v", cfg.FrameInterval)
	}
	if got := strings.Join(cfg.BodyIDs(), ","); got != "sun,earth,mars" {
		t.Errorf("bodies = %s", got)
	}
	earth, ok := cfg.Body("earth")
	if !ok || earth.WireName != "Earth" || earth.Radius != 1 {
		t.Errorf("earth = %+v", earth)
	}
	overrides := cfg.RadiusOverrides()
	if len(overrides) != 2 || overrides["earth"] != 40 || overrides["mars"] != 55 {
		t.Errorf("overrides = %v", overrides)
	}
}

func TestLoadConfig_NoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Fetch.MinInterval != 500*time.Millisecond {
		t.Errorf("min interval = %v", cfg.Fetch.MinInterval)
	}
	if cfg.Clock.RateDaysPerSecond != 10 || cfg.Clock.MaxStep != 250*time.Millisecond {
		t.Errorf("clock = %+v", cfg.Clock)
	}
	if len(cfg.Bodies) != 9 {
		t.Errorf("expected 9 default bodies, got %d", len(cfg.Bodies))
	}
	if len(cfg.RadiusOverrides()) != 0 {
		t.Errorf("defaults should have no radius overrides")
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("POSITION_SERVICE_URL", "http://override:1234")
	t.Setenv("FETCH_INTERVAL", "2s")
	t.Setenv("FRAME_INTERVAL", "100ms")
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Service.BaseURL != "http://override:1234" {
		t.Errorf("base url = %q", cfg.Service.BaseURL)
	}
	if cfg.Fetch.MinInterval != 2*time.Second || cfg.FrameInterval != 100*time.Millisecond {
		t.Errorf("intervals = %v %v", cfg.Fetch.MinInterval, cfg.FrameInterval)
	}

	t.Setenv("FETCH_INTERVAL", "soon")
	if _, err := Load("", ""); err == nil {
		t.Fatal("expected error for bad FETCH_INTERVAL")
	}
}

func TestLoadConfig_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "bogus: 1\n",
		"bad mode":      "clock:\n  mode: warp\n",
		"zero rate":     "clock:\n  rate_days_per_second: 0\n",
		"bad duration":  "fetch:\n  min_interval: fast\n",
		"bad axis":      "scene:\n  axis_remap:\n    x: w\n",
		"flatten range": "scene:\n  flatten: 2\n",
		"bad url":       "service:\n  base_url: localhost\n",
		"neg override":  "bodies:\n  - id: earth\n    radius_override: -3\n",
		"upper id":      "bodies:\n  - id: Earth\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeTemp(t, "c.yaml", body)
			if _, err := Load(path, ""); err == nil {
				t.Fatalf("expected schema error for %q", body)
			}
		})
	}
}

func TestLoadConfig_CustomSchema(t *testing.T) {
	schema := writeTemp(t, "strict.cue", `#Config: { service: { base_url: "http://only.here" } }`)
	ok := writeTemp(t, "ok.yaml", "service:\n  base_url: http://only.here\n")
	if _, err := Load(ok, schema); err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	bad := writeTemp(t, "bad.yaml", "service:\n  base_url: http://elsewhere\n")
	if _, err := Load(bad, schema); err == nil {
		t.Fatal("expected custom schema to reject config")
	}
	if _, err := Load(ok, filepath.Join(t.TempDir(), "missing.cue")); err == nil {
		t.Fatal("expected error for missing schema file")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestLoadConfig_SampleFile(t *testing.T) {
	cfg, err := Load("../../config/solarview.yaml", "")
	if err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
	if len(cfg.RadiusOverrides()) != 8 {
		t.Errorf("sample config should override every planet, got %v", cfg.RadiusOverrides())
	}
}

func TestDefaultWireName(t *testing.T) {
	if got := defaultWireName("jupiter"); got != "Jupiter" {
		t.Errorf("jupiter -> %q", got)
	}
	if got := defaultWireName("pluto"); got != "Pluto" {
		t.Errorf("pluto -> %q", got)
	}
}
