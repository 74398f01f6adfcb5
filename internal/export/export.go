// Package export serializes built timelines to the edl.json document the
// render step consumes.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beatcut/beatcut-agent/internal/timeline"
)

// WriteEDL writes the EDL document to path as indented JSON. Parent
// directories are created as needed; the write goes through a temp file
// and rename so a crash mid-write never leaves a truncated document.
func WriteEDL(path string, edl *timeline.EDL) error {
	if err := ValidateOutputPath(path); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	data, err := json.MarshalIndent(edl, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal EDL: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write EDL: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize EDL: %w", err)
	}

	return nil
}

// ReadEDL loads a previously written EDL document.
func ReadEDL(path string) (*timeline.EDL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read EDL: %w", err)
	}
	var edl timeline.EDL
	if err := json.Unmarshal(data, &edl); err != nil {
		return nil, fmt.Errorf("parse EDL %s: %w", path, err)
	}
	return &edl, nil
}

// ValidateOutputPath rejects paths that cannot safely receive the output
// document.
func ValidateOutputPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("output path is required")
	}

	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("output path cannot contain path traversal")
		}
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("output path %s is a directory", path)
	}

	return nil
}
