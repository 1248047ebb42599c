package sim

import (
	"encoding/json"
	"os"
	"sync"

	"solarview/internal/telemetry"
)

// FileWriter writes placement frames to a JSONL file.
type FileWriter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileWriter creates path, truncating an existing file.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileWriter{file: f, enc: json.NewEncoder(f)}, nil
}

// WritePlacements logs a single frame.
func (f *FileWriter) WritePlacements(frame telemetry.PlacementFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enc.Encode(frame)
}

// WriteFrames logs multiple frames.
func (f *FileWriter) WriteFrames(frames []telemetry.PlacementFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fr := range frames {
		if err := f.enc.Encode(fr); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying file.
func (f *FileWriter) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}
