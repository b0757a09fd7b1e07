package trace

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
)

// FileName is the trace file inside the runs directory
const FileName = "trace.jsonl"

// FileSink appends records as JSON lines
type FileSink struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewFileSink opens runsDir/trace.jsonl for appending, creating it if needed
func NewFileSink(runsDir string) (*FileSink, error) {
	if err := os.MkdirAll(runsDir, 0750); err != nil {
		return nil, helper.NewError("create runs directory", err)
	}
	file, err := os.OpenFile(filepath.Join(runsDir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, helper.NewError("open trace file", err)
	}
	encoder := json.NewEncoder(file)
	encoder.SetEscapeHTML(false)
	return &FileSink{file: file, encoder: encoder}, nil
}

// Write appends one record
func (s *FileSink) Write(ctx context.Context, record *model.TraceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.encoder.Encode(record); err != nil {
		return helper.NewError("write trace record", err)
	}
	return nil
}

// Close closes the trace file
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
