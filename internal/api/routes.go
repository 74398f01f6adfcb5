package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beatcut/beatcut-agent/internal/catalog"
	"github.com/beatcut/beatcut-agent/internal/config"
	"github.com/beatcut/beatcut-agent/internal/timeline"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Get("/profile", profileHandler(cfg))
		r.Post("/edl", buildEDLHandler(cfg))
		r.Post("/builds", enqueueBuildHandler(cfg))
		r.Get("/builds", listBuildsHandler(cfg))
		r.Get("/builds/{id}", getBuildHandler(cfg))
		if cfg.PreviewServer != nil {
			r.Get("/preview", cfg.PreviewServer.ServeHTTP)
		}
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builds, err := cfg.BuildService.GetBuilds(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list builds", "INTERNAL_ERROR")
			return
		}

		state := "idle"
		lastError := ""
		running := 0
		var active *BuildResponse

		// Runner state is the baseline; an actively running build below
		// overrides it with "building".
		if cfg.Runner != nil {
			switch {
			case !cfg.Runner.IsRunning():
				state = "stopped"
			case cfg.Runner.IsPaused():
				state = "paused"
			}
		}

		for _, b := range builds {
			if b.Status == catalog.BuildStatusRunning {
				state = "building"
				resp := BuildToResponse(b)
				active = &resp
				running++
			}
			if b.Status == catalog.BuildStatusFailed && lastError == "" {
				lastError = b.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		WriteJSON(w, http.StatusOK, StatusResponse{
			State:         state,
			LastError:     lastError,
			BuildsTotal:   len(builds),
			BuildsRunning: running,
			ActiveBuild:   active,
		})
	}
}

func profileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, cfg.Profile)
	}
}

// buildEDLHandler runs the timeline builder synchronously on posted beats.
// Nothing is written to disk or recorded in the catalog; this is the
// dry-run surface for tuning profiles.
func buildEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BuildEDLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		rawDuration := cfg.Profile.FallbackDuration
		if req.RawDurationSec != nil {
			rawDuration = *req.RawDurationSec
		}

		edl, err := timeline.Build(req.Beats, rawDuration, cfg.Profile)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, edl)
	}
}

func enqueueBuildHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EnqueueBuildRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		if req.BeatsPath == "" {
			WriteError(w, http.StatusBadRequest, "beats_path is required", "BAD_REQUEST")
			return
		}
		if req.VideoPath == "" {
			WriteError(w, http.StatusBadRequest, "video_path is required", "BAD_REQUEST")
			return
		}
		if req.OutputPath == "" {
			WriteError(w, http.StatusBadRequest, "output_path is required", "BAD_REQUEST")
			return
		}

		build, err := cfg.BuildService.EnqueueBuild(r.Context(), req.BeatsPath, req.VideoPath, req.OutputPath)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusAccepted, EnqueueBuildResponse{BuildID: build.ID})
	}
}

func listBuildsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builds, err := cfg.BuildService.GetBuilds(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list builds", "INTERNAL_ERROR")
			return
		}

		resp := BuildsResponse{Builds: make([]BuildResponse, len(builds))}
		for i, b := range builds {
			resp.Builds[i] = BuildToResponse(b)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getBuildHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if id == "" {
			WriteError(w, http.StatusBadRequest, "build id required", "BAD_REQUEST")
			return
		}

		build, err := cfg.BuildService.GetBuild(r.Context(), id)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if build == nil {
			WriteError(w, http.StatusNotFound, "build not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, BuildToResponse(build))
	}
}
