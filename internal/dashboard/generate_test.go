package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderMissingEnv(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "")
	t.Setenv("PROMETHEUS_DATASOURCE_UID", "")
	if err := Render(t.TempDir(), Options{}); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderSuccess(t *testing.T) {
	t.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")
	t.Setenv("PROMETHEUS_DATASOURCE_UID", "uid2")

	dir := t.TempDir()
	bodies := []string{"sun", "mercury", "venus", "earth", "mars"}
	if err := Render(dir, Options{Table: "orbits_test", Bodies: bodies}); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "solarview-placements.json"))
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	var placements struct {
		Panels []struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
		} `json:"panels"`
	}
	if err := json.Unmarshal(b, &placements); err != nil {
		t.Fatalf("placements dashboard is not valid JSON: %v", err)
	}
	if len(placements.Panels) != len(bodies)+1 {
		t.Fatalf("panels = %d, want %d", len(placements.Panels), len(bodies)+1)
	}
	if !strings.Contains(string(b), "uid1") || !strings.Contains(string(b), "FROM orbits_test") {
		t.Fatalf("greptime uid or table not rendered")
	}

	b, err = os.ReadFile(filepath.Join(dir, "solarview-viewer.json"))
	if err != nil {
		t.Fatalf("read viewer dashboard: %v", err)
	}
	if !json.Valid(b) {
		t.Fatalf("viewer dashboard is not valid JSON")
	}
	if !strings.Contains(string(b), "uid2") || !strings.Contains(string(b), "{{outcome}}") {
		t.Fatalf("prometheus uid or legend not rendered")
	}
}
