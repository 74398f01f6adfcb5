package api

import (
	"time"

	"github.com/beatcut/beatcut-agent/internal/catalog"
	"github.com/beatcut/beatcut-agent/internal/timeline"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string         `json:"state"`
	LastError     string         `json:"last_error,omitempty"`
	BuildsTotal   int            `json:"builds_total"`
	BuildsRunning int            `json:"builds_running"`
	ActiveBuild   *BuildResponse `json:"active_build,omitempty"`
}

type BuildResponse struct {
	ID              string  `json:"id"`
	Status          string  `json:"status"`
	BeatsPath       string  `json:"beats_path"`
	VideoPath       string  `json:"video_path"`
	OutputPath      string  `json:"output_path"`
	RawDuration     float64 `json:"raw_duration,omitempty"`
	DurationSec     float64 `json:"duration_sec,omitempty"`
	SegmentCount    int     `json:"segment_count,omitempty"`
	TransitionCount int     `json:"transition_count,omitempty"`
	FallbackUsed    bool    `json:"fallback_used,omitempty"`
	Error           string  `json:"error,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type BuildsResponse struct {
	Builds []BuildResponse `json:"builds"`
}

type EnqueueBuildRequest struct {
	BeatsPath  string `json:"beats_path,omitempty"`
	VideoPath  string `json:"video_path,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

type EnqueueBuildResponse struct {
	BuildID string `json:"build_id"`
}

// BuildEDLRequest asks for a synchronous in-memory build: beats are posted
// directly instead of being read from disk, and the raw footage duration is
// supplied by the client (the profile fallback is used when omitted).
type BuildEDLRequest struct {
	Beats          []timeline.BeatEvent `json:"beats"`
	RawDurationSec *float64             `json:"raw_duration_sec,omitempty"`
}

func BuildToResponse(b *catalog.Build) BuildResponse {
	return BuildResponse{
		ID:              b.ID,
		Status:          b.Status,
		BeatsPath:       b.BeatsPath,
		VideoPath:       b.VideoPath,
		OutputPath:      b.OutputPath,
		RawDuration:     b.RawDuration,
		DurationSec:     b.DurationSec,
		SegmentCount:    b.SegmentCount,
		TransitionCount: b.TransitionCount,
		FallbackUsed:    b.FallbackUsed,
		Error:           b.Error,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       b.UpdatedAt.Format(time.RFC3339),
	}
}
