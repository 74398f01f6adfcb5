package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/beatcut/beatcut-agent/internal/catalog"
	"github.com/beatcut/beatcut-agent/internal/db"
	"github.com/beatcut/beatcut-agent/internal/timeline"
)

const testToken = "test-token-1234567890"

func testServerConfig(t *testing.T) ServerConfig {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := catalog.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), "auth_token", testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	return ServerConfig{
		Port:         0,
		BuildService: catalog.NewService(repo, logger),
		Repository:   repo,
		Profile:      timeline.DefaultProfile(),
		Logger:       logger,
		StartTime:    time.Now(),
		DeviceID:     "device-1",
	}
}

func doRequest(t *testing.T, router http.Handler, method, path string, body []byte, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rr.Body.String())
	}
	return body
}

func TestHealth_NoAuthRequired(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := doRequest(t, router, http.MethodGet, "/health", nil, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["device_id"] != "device-1" {
		t.Errorf("device_id = %v", body["device_id"])
	}
}

func TestBuilds_RequireAuth(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := doRequest(t, router, http.MethodGet, "/builds", nil, false)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestProfile_ReturnsActiveProfile(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := doRequest(t, router, http.MethodGet, "/profile", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	body := decodeJSONBody(t, rr)
	if body["fps"] != float64(30) {
		t.Errorf("fps = %v, want 30", body["fps"])
	}
	if _, ok := body["sceneOrder"].([]interface{}); !ok {
		t.Errorf("sceneOrder missing: %v", body)
	}
}

func TestBuildEDL_Synchronous(t *testing.T) {
	cfg := testServerConfig(t)
	cfg.Profile.SceneOrder = []string{"open", "search", "end"}
	cfg.Profile.Captions = map[string]string{"search": "search"}
	router := NewRouter(cfg)

	reqBody, _ := json.Marshal(map[string]interface{}{
		"beats": []map[string]interface{}{
			{"label": "open", "t": 0.0},
			{"label": "search", "t": 6.0},
			{"label": "end", "t": 9.0},
		},
		"raw_duration_sec": 9.0,
	})

	rr := doRequest(t, router, http.MethodPost, "/edl", reqBody, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	body := decodeJSONBody(t, rr)
	if body["durationSec"] != 11.4 {
		t.Errorf("durationSec = %v, want 11.4", body["durationSec"])
	}
	segments, ok := body["segments"].([]interface{})
	if !ok || len(segments) != 5 {
		t.Errorf("segments = %v, want 5 entries", body["segments"])
	}
}

func TestBuildEDL_InvalidBeats(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	reqBody, _ := json.Marshal(map[string]interface{}{
		"beats": []map[string]interface{}{{"label": "open", "t": -2.0}},
	})

	rr := doRequest(t, router, http.MethodPost, "/edl", reqBody, true)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestEnqueueBuild_Validation(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	reqBody, _ := json.Marshal(EnqueueBuildRequest{VideoPath: "raw.mp4", OutputPath: "edl.json"})
	rr := doRequest(t, router, http.MethodPost, "/builds", reqBody, true)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestEnqueueBuild_AndGet(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	dir := t.TempDir()
	beatsPath := filepath.Join(dir, "beats.jsonl")
	if err := os.WriteFile(beatsPath, []byte(`{"label":"open","t":0}`+"\n"), 0644); err != nil {
		t.Fatalf("write beats: %v", err)
	}

	reqBody, _ := json.Marshal(EnqueueBuildRequest{
		BeatsPath:  beatsPath,
		VideoPath:  filepath.Join(dir, "raw.mp4"),
		OutputPath: filepath.Join(dir, "edl.json"),
	})
	rr := doRequest(t, router, http.MethodPost, "/builds", reqBody, true)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	buildID, _ := decodeJSONBody(t, rr)["build_id"].(string)
	if buildID == "" {
		t.Fatal("no build_id in response")
	}

	rr = doRequest(t, router, http.MethodGet, "/builds/"+buildID, nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != catalog.BuildStatusPending {
		t.Errorf("build status = %v, want pending", body["status"])
	}

	rr = doRequest(t, router, http.MethodGet, "/builds", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	builds, _ := decodeJSONBody(t, rr)["builds"].([]interface{})
	if len(builds) != 1 {
		t.Errorf("build count = %d, want 1", len(builds))
	}
}

func TestGetBuild_NotFound(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := doRequest(t, router, http.MethodGet, "/builds/nope", nil, true)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestStatus_Idle(t *testing.T) {
	router := NewRouter(testServerConfig(t))

	rr := doRequest(t, router, http.MethodGet, "/status", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeJSONBody(t, rr)
	if body["state"] != "idle" {
		t.Errorf("state = %v, want idle", body["state"])
	}
}

func TestStatus_RunnerStopped(t *testing.T) {
	cfg := testServerConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg.Runner = catalog.NewRunner(cfg.Repository, nil, cfg.Profile, logger)
	router := NewRouter(cfg)

	rr := doRequest(t, router, http.MethodGet, "/status", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decodeJSONBody(t, rr); body["state"] != "stopped" {
		t.Errorf("state = %v, want stopped", body["state"])
	}
}

func TestStatus_RunnerPaused(t *testing.T) {
	cfg := testServerConfig(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := catalog.NewRunner(cfg.Repository, nil, cfg.Profile, logger)
	cfg.Runner = runner
	router := NewRouter(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go runner.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for !runner.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !runner.IsRunning() {
		t.Fatal("runner did not start")
	}
	runner.Pause()

	rr := doRequest(t, router, http.MethodGet, "/status", nil, true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body := decodeJSONBody(t, rr); body["state"] != "paused" {
		t.Errorf("state = %v, want paused", body["state"])
	}
}
