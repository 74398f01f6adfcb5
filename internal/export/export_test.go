package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beatcut/beatcut-agent/internal/timeline"
)

func sampleEDL(t *testing.T) *timeline.EDL {
	t.Helper()
	beats := []timeline.BeatEvent{
		{Label: "open", T: 0},
		{Label: "search", T: 6},
		{Label: "end", T: 9},
	}
	edl, err := timeline.Build(beats, 9.0, timeline.DefaultProfile())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return edl
}

func TestWriteEDL_RoundTrip(t *testing.T) {
	edl := sampleEDL(t)
	path := filepath.Join(t.TempDir(), "dist", "edl.json")

	if err := WriteEDL(path, edl); err != nil {
		t.Fatalf("WriteEDL() error = %v", err)
	}

	got, err := ReadEDL(path)
	if err != nil {
		t.Fatalf("ReadEDL() error = %v", err)
	}

	if got.DurationSec != edl.DurationSec {
		t.Errorf("DurationSec = %v, want %v", got.DurationSec, edl.DurationSec)
	}
	if len(got.Segments) != len(edl.Segments) {
		t.Errorf("segment count = %d, want %d", len(got.Segments), len(edl.Segments))
	}
	if len(got.Transitions) != len(edl.Transitions) {
		t.Errorf("transition count = %d, want %d", len(got.Transitions), len(edl.Transitions))
	}
	if got.Inputs.Video != edl.Inputs.Video {
		t.Errorf("inputs.video = %q, want %q", got.Inputs.Video, edl.Inputs.Video)
	}
}

func TestWriteEDL_LeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edl.json")

	if err := WriteEDL(path, sampleEDL(t)); err != nil {
		t.Fatalf("WriteEDL() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "normal", path: "dist/edl.json"},
		{name: "empty", path: "  ", wantErr: true},
		{name: "traversal", path: "../outside/edl.json", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateOutputPath(tc.path)
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateOutputPath_Directory(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateOutputPath(dir); err == nil {
		t.Fatal("expected error for directory path")
	}
}

func TestReadEDL_MissingFile(t *testing.T) {
	if _, err := ReadEDL(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
