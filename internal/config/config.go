// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceConfig locates the position service.
type ServiceConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	CacheBust bool          `yaml:"cache_bust"`
}

// FetchConfig controls query cadence.
type FetchConfig struct {
	MinInterval time.Duration `yaml:"min_interval"`
}

// ClockConfig sets the initial simulated clock.
type ClockConfig struct {
	Mode              string        `yaml:"mode"`
	RateDaysPerSecond float64       `yaml:"rate_days_per_second"`
	MaxStep           time.Duration `yaml:"max_step"`
	Start             string        `yaml:"start"`
}

// AxisRemapConfig names the raw axis behind each scene axis, e.g. "x", "-y".
type AxisRemapConfig struct {
	X string `yaml:"x"`
	Y string `yaml:"y"`
	Z string `yaml:"z"`
}

// SceneConfig holds the layout constants shared by every body.
type SceneConfig struct {
	AUToUnits   float64         `yaml:"au_to_units"`
	Flatten     float64         `yaml:"flatten"`
	AxisRemap   AxisRemapConfig `yaml:"axis_remap"`
	CentralBody string          `yaml:"central_body"`
}

// BodyConfig describes one tracked body.
type BodyConfig struct {
	ID             string   `yaml:"id"`
	WireName       string   `yaml:"wire_name"`
	Radius         float64  `yaml:"radius"`
	RadiusOverride *float64 `yaml:"radius_override"`
	Color          string   `yaml:"color"`
}

// AdminConfig controls the HTTP control surface.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration.
type Config struct {
	Service       ServiceConfig `yaml:"service"`
	Fetch         FetchConfig   `yaml:"fetch"`
	Clock         ClockConfig   `yaml:"clock"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	Scene         SceneConfig   `yaml:"scene"`
	Bodies        []BodyConfig  `yaml:"bodies"`
	Admin         AdminConfig   `yaml:"admin"`
}

var defaultBodies = []BodyConfig{
	{ID: "sun", WireName: "Sun", Radius: 4, Color: "#FDB813"},
	{ID: "mercury", WireName: "Mercury", Radius: 0.6, Color: "#B5B5B5"},
	{ID: "venus", WireName: "Venus", Radius: 1.2, Color: "#E8CDA2"},
	{ID: "earth", WireName: "Earth", Radius: 1.3, Color: "#2E86AB"},
	{ID: "mars", WireName: "Mars", Radius: 0.9, Color: "#C1440E"},
	{ID: "jupiter", WireName: "Jupiter", Radius: 2.8, Color: "#D8CA9D"},
	{ID: "saturn", WireName: "Saturn", Radius: 2.5, Color: "#EAD6B8"},
	{ID: "uranus", WireName: "Uranus", Radius: 2.0, Color: "#D1E7E7"},
	{ID: "neptune", WireName: "Neptune", Radius: 2.0, Color: "#5B5DDF"},
}

// Default returns the stock configuration.
func Default() *Config {
	bodies := make([]BodyConfig, len(defaultBodies))
	copy(bodies, defaultBodies)
	return &Config{
		Service: ServiceConfig{BaseURL: "http://localhost:8000", Timeout: 10 * time.Second},
		Fetch:   FetchConfig{MinInterval: 500 * time.Millisecond},
		Clock: ClockConfig{
			Mode:              "fast",
			RateDaysPerSecond: 10,
			MaxStep:           250 * time.Millisecond,
		},
		FrameInterval: 50 * time.Millisecond,
		Scene: SceneConfig{
			AUToUnits:   30,
			Flatten:     0.2,
			AxisRemap:   AxisRemapConfig{X: "x", Y: "z", Z: "y"},
			CentralBody: "sun",
		},
		Bodies: bodies,
		Admin:  AdminConfig{Addr: ":8080"},
	}
}

// Load reads a YAML config, validates it against the CUE schema at
// cueSchemaPath (the embedded schema when empty) and fills in defaults.
// An empty configPath yields the defaults.
func Load(configPath, cueSchemaPath string) (*Config, error) {
	cfg := Default()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read config: %w", err)
		}
		schema := embeddedSchema
		if cueSchemaPath != "" {
			if schema, err = os.ReadFile(cueSchemaPath); err != nil {
				return nil, fmt.Errorf("cannot read CUE schema: %w", err)
			}
		}
		if err := Validate(configPath, data, schema); err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("cannot unmarshal YAML config: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	slog.Debug("loaded configuration", "config", fmt.Sprintf("%+v", *cfg))
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("POSITION_SERVICE_URL"); v != "" {
		c.Service.BaseURL = v
	}
	if v := os.Getenv("FETCH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FETCH_INTERVAL: %w", err)
		}
		c.Fetch.MinInterval = d
	}
	if v := os.Getenv("FRAME_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FRAME_INTERVAL: %w", err)
		}
		c.FrameInterval = d
	}
	return nil
}

func (c *Config) finish() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url is required")
	}
	if c.Service.Timeout <= 0 {
		c.Service.Timeout = 10 * time.Second
	}
	if c.Fetch.MinInterval < 0 {
		return fmt.Errorf("fetch.min_interval must not be negative")
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = 50 * time.Millisecond
	}
	if c.Clock.RateDaysPerSecond <= 0 {
		c.Clock.RateDaysPerSecond = 10
	}
	if c.Clock.MaxStep <= 0 {
		c.Clock.MaxStep = 250 * time.Millisecond
	}
	if c.Scene.AUToUnits <= 0 {
		c.Scene.AUToUnits = 30
	}
	if len(c.Bodies) == 0 {
		return fmt.Errorf("at least one body is required")
	}
	for i := range c.Bodies {
		b := &c.Bodies[i]
		b.ID = strings.ToLower(strings.TrimSpace(b.ID))
		if b.WireName == "" {
			b.WireName = defaultWireName(b.ID)
		}
		if b.Radius <= 0 {
			b.Radius = 1
		}
	}
	return nil
}

// defaultWireName looks the id up in the stock table and falls back to
// capitalising it.
func defaultWireName(id string) string {
	for _, b := range defaultBodies {
		if b.ID == id {
			return b.WireName
		}
	}
	if id == "" {
		return ""
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// Body returns the config of body id.
func (c *Config) Body(id string) (BodyConfig, bool) {
	for _, b := range c.Bodies {
		if b.ID == id {
			return b, true
		}
	}
	return BodyConfig{}, false
}

// BodyIDs lists the configured body ids in config order.
func (c *Config) BodyIDs() []string {
	ids := make([]string, len(c.Bodies))
	for i, b := range c.Bodies {
		ids[i] = b.ID
	}
	return ids
}

// RadiusOverrides collects the per-body radius overrides.
func (c *Config) RadiusOverrides() map[string]float64 {
	out := make(map[string]float64)
	for _, b := range c.Bodies {
		if b.RadiusOverride != nil {
			out[b.ID] = *b.RadiusOverride
		}
	}
	return out
}
