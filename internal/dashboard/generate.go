// Package dashboard renders Grafana dashboards for the placement table and
// the viewer metrics.
package dashboard

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

var templateFiles = []string{
	"templates/solarview-placements.json.tmpl",
	"templates/solarview-viewer.json.tmpl",
}

// Options are the values substituted into the dashboards.
type Options struct {
	Table  string   // GreptimeDB placement table
	Bodies []string // one orbit panel per body
}

// Render writes the rendered dashboards to outDir. Datasource UIDs come from
// GREPTIMEDB_DATASOURCE_UID and PROMETHEUS_DATASOURCE_UID.
func Render(outDir string, opts Options) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
		"add": func(a, b int) int { return a + b },
		"mul": func(a, b int) int { return a * b },
		"div": func(a, b int) int { return a / b },
		"mod": func(a, b int) int { return a % b },
	}
	if opts.Table == "" {
		opts.Table = "body_placements"
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for _, tplName := range templateFiles {
		t, err := template.New(filepath.Base(tplName)).Funcs(funcMap).ParseFS(templates, tplName)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(tplName), ".tmpl"))
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := t.Execute(f, opts); err != nil {
			f.Close()
			return fmt.Errorf("render %s: %w", filepath.Base(tplName), err)
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
