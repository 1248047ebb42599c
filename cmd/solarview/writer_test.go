package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"solarview/internal/config"
	"solarview/internal/scene"
	"solarview/internal/sim"
	"solarview/internal/telemetry"
)

func TestNewWritersJSON(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	s, err := newWriters(config.Default(), sinkJSON, "")
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	defer s.Close()
	jw, ok := s.writer.(*sim.JSONStdoutWriter)
	if !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", s.writer)
	}
	if !jw.OnlyChanges {
		t.Fatal("JSON sink should print only snapshot changes by default")
	}
	if s.logOut != os.Stderr {
		t.Fatal("logs should go to stderr for the JSON sink")
	}
}

func TestNewWritersAllFrames(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	t.Setenv("SOLARVIEW_JSON_ALL_FRAMES", "1")
	s, err := newWriters(config.Default(), sinkJSON, "")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.writer.(*sim.JSONStdoutWriter).OnlyChanges {
		t.Fatal("expected every frame to be printed")
	}
}

func TestNewWritersLogFile(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "placements.jsonl")
	s, err := newWriters(config.Default(), sinkJSON, path)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := s.writer.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", s.writer)
	}
	frame := telemetry.PlacementFrame{
		SessionID:   "s1",
		SnapshotSeq: 1,
		Placements:  []scene.Placement{{Body: "sun", Central: true}},
		Timestamp:   time.Now(),
	}
	if err := s.writer.WritePlacements(frame); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	s.Close()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected log file to be non-empty")
	}
}

func TestNewWritersUnknownSink(t *testing.T) {
	if _, err := newWriters(config.Default(), "hologram", ""); err == nil {
		t.Fatal("expected error for unknown sink")
	}
}

func TestNewWritersBadLogPath(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.jsonl")
	if _, err := newWriters(config.Default(), sinkJSON, path); err == nil {
		t.Fatal("expected error for unwritable log file")
	}
}
