// Package catalog records EDL builds and executes queued ones.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

const (
	BuildStatusPending   = "pending"
	BuildStatusRunning   = "running"
	BuildStatusCompleted = "completed"
	BuildStatusFailed    = "failed"
)

// Build is one EDL generation run, queued or finished.
type Build struct {
	ID              string    `json:"id"`
	Status          string    `json:"status"`
	BeatsPath       string    `json:"beats_path"`
	VideoPath       string    `json:"video_path"`
	OutputPath      string    `json:"output_path"`
	RawDuration     float64   `json:"raw_duration,omitempty"`
	DurationSec     float64   `json:"duration_sec,omitempty"`
	SegmentCount    int       `json:"segment_count,omitempty"`
	TransitionCount int       `json:"transition_count,omitempty"`
	FallbackUsed    bool      `json:"fallback_used,omitempty"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BuildResult carries the measurable outcome of a completed build.
type BuildResult struct {
	RawDuration     float64
	DurationSec     float64
	SegmentCount    int
	TransitionCount int
	FallbackUsed    bool
}

func NewID() string {
	return uuid.NewString()
}
