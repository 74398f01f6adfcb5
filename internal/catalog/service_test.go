package catalog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeBeatsFixture(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "beats.jsonl")
	content := `{"label": "open", "t": 0.0}
{"label": "search", "t": 6.0}
{"label": "end", "t": 9.0}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write beats fixture: %v", err)
	}
	return path
}

func TestService_EnqueueBuild(t *testing.T) {
	repo := testRepo(t)
	svc := NewService(repo, testLogger())
	dir := t.TempDir()
	beatsPath := writeBeatsFixture(t, dir)

	build, err := svc.EnqueueBuild(context.Background(),
		beatsPath,
		filepath.Join(dir, "raw.mp4"),
		filepath.Join(dir, "dist", "edl.json"),
	)
	if err != nil {
		t.Fatalf("EnqueueBuild() error = %v", err)
	}

	if build.Status != BuildStatusPending {
		t.Errorf("status = %q, want pending", build.Status)
	}
	if !filepath.IsAbs(build.BeatsPath) {
		t.Errorf("beats path not absolute: %q", build.BeatsPath)
	}

	stored, err := svc.GetBuild(context.Background(), build.ID)
	if err != nil {
		t.Fatalf("GetBuild() error = %v", err)
	}
	if stored == nil || stored.ID != build.ID {
		t.Errorf("stored build = %+v", stored)
	}
}

func TestService_EnqueueBuild_MissingBeats(t *testing.T) {
	repo := testRepo(t)
	svc := NewService(repo, testLogger())
	dir := t.TempDir()

	_, err := svc.EnqueueBuild(context.Background(),
		filepath.Join(dir, "nope.jsonl"),
		filepath.Join(dir, "raw.mp4"),
		filepath.Join(dir, "edl.json"),
	)
	if err == nil {
		t.Fatal("expected error for missing beats file")
	}
}

func TestService_EnqueueBuild_BeatsPathIsDirectory(t *testing.T) {
	repo := testRepo(t)
	svc := NewService(repo, testLogger())
	dir := t.TempDir()

	_, err := svc.EnqueueBuild(context.Background(), dir,
		filepath.Join(dir, "raw.mp4"),
		filepath.Join(dir, "edl.json"),
	)
	if err == nil {
		t.Fatal("expected error for directory beats path")
	}
}

func TestService_GetBuilds(t *testing.T) {
	repo := testRepo(t)
	svc := NewService(repo, testLogger())
	dir := t.TempDir()
	beatsPath := writeBeatsFixture(t, dir)

	for i := 0; i < 3; i++ {
		if _, err := svc.EnqueueBuild(context.Background(), beatsPath,
			filepath.Join(dir, "raw.mp4"), filepath.Join(dir, "edl.json")); err != nil {
			t.Fatalf("EnqueueBuild() error = %v", err)
		}
	}

	builds, err := svc.GetBuilds(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetBuilds() error = %v", err)
	}
	if len(builds) != 2 {
		t.Errorf("build count = %d, want 2 (limit)", len(builds))
	}
}
