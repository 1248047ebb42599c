package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"solarview/internal/config"
	"solarview/internal/sim"
)

const (
	sinkAuto = "auto"
	sinkTUI  = "tui"
	sinkJSON = "json"
)

// sinks bundles the placement writer with where logs should go and the
// resources to release on exit.
type sinks struct {
	writer  sim.PlacementWriter
	logOut  io.Writer
	closers []io.Closer
}

// SetControls hands the viewer controls to sinks that accept them.
func (s *sinks) SetControls(c sim.Controls) {
	if cw, ok := s.writer.(interface{ SetControls(sim.Controls) }); ok {
		cw.SetControls(c)
	}
}

// SetAdminStatus updates sinks that show the admin indicator.
func (s *sinks) SetAdminStatus(active bool) {
	if aw, ok := s.writer.(interface{ SetAdminStatus(bool) }); ok {
		aw.SetAdminStatus(active)
	}
}

// Close releases sinks in reverse order of creation.
func (s *sinks) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// newWriters sets up placement writers based on flags and env vars. A
// GreptimeDB sink is added when GREPTIMEDB_ENDPOINT is set and a JSONL
// export when logFile is non-empty.
func newWriters(cfg *config.Config, sink, logFile string) (*sinks, error) {
	s := &sinks{logOut: os.Stderr}
	base, err := baseWriter(cfg, sink)
	if err != nil {
		return nil, err
	}
	writers := []sim.PlacementWriter{base}
	if tw, ok := base.(*sim.TUIWriter); ok {
		s.logOut = tw
		s.closers = append(s.closers, tw)
	}

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		gw, err := sim.NewGreptimeDBWriter(endpoint, database, os.Getenv("GREPTIMEDB_TABLE"))
		if err != nil {
			s.Close()
			return nil, err
		}
		writers = append(writers, gw)
	}

	if logFile != "" {
		fw, err := sim.NewFileWriter(logFile)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, fw)
		writers = append(writers, fw)
	}

	if len(writers) == 1 {
		s.writer = base
	} else {
		s.writer = sim.NewMultiWriter(writers...)
	}
	return s, nil
}

// baseWriter picks the interactive or the JSON sink.
func baseWriter(cfg *config.Config, sink string) (sim.PlacementWriter, error) {
	switch sink {
	case sinkAuto, "":
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return sim.NewTUIWriter(cfg), nil
		}
		return jsonWriter(), nil
	case sinkTUI:
		return sim.NewTUIWriter(cfg), nil
	case sinkJSON:
		return jsonWriter(), nil
	default:
		return nil, fmt.Errorf("unknown sink %q (want auto, tui or json)", sink)
	}
}

func jsonWriter() *sim.JSONStdoutWriter {
	w := sim.NewJSONStdoutWriter()
	w.OnlyChanges = os.Getenv("SOLARVIEW_JSON_ALL_FRAMES") == ""
	return w
}
