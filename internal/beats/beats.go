// Package beats loads beat timestamp logs. The log is line-delimited JSON,
// one {"label": ..., "t": ...} object per line, as written by the recording
// harness.
package beats

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beatcut/beatcut-agent/internal/timeline"
)

// Load reads beat events from a JSONL file.
func Load(path string) ([]timeline.BeatEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open beats file: %w", err)
	}
	defer f.Close()

	events, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return events, nil
}

// Parse reads beat events from line-delimited JSON. Blank lines are
// skipped. A record missing its label or timestamp fails fast with the
// line number and the offending record.
func Parse(r io.Reader) ([]timeline.BeatEvent, error) {
	var events []timeline.BeatEvent

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec struct {
			Label *string  `json:"label"`
			T     *float64 `json:"t"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("line %d: invalid beat record: %w", lineNo, err)
		}
		if rec.Label == nil || *rec.Label == "" {
			return nil, fmt.Errorf("line %d: beat record missing label: %s", lineNo, line)
		}
		if rec.T == nil {
			return nil, fmt.Errorf("line %d: beat record missing t: %s", lineNo, line)
		}

		events = append(events, timeline.BeatEvent{Label: *rec.Label, T: *rec.T})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read beats: %w", err)
	}

	return events, nil
}
