package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/vitalog/vitalog/internal/health/records"
)

// FileBridge keeps the record list in a single JSON file on local disk.
type FileBridge struct {
	path string
}

func NewFileBridge(path string) (*FileBridge, error) {
	if path == "" {
		return nil, errors.New("records file path empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create records dir: %w", err)
	}

	log.Debugf("file bridge: using records file: %s", path)

	return &FileBridge{
		path: path,
	}, nil
}

func (fb *FileBridge) Load(_ context.Context) ([]records.Record, error) {
	data, err := os.ReadFile(fb.path)
	if errors.Is(err, os.ErrNotExist) {
		// nothing stored yet
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var recs []records.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("unmarshal records file: %w", err)
	}

	return recs, nil
}

func (fb *FileBridge) Save(_ context.Context, recs []records.Record) error {
	if recs == nil {
		recs = []records.Record{}
	}

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}

	if err := os.WriteFile(fb.path, data, 0600); err != nil {
		return fmt.Errorf("write records file: %w", err)
	}

	return nil
}
