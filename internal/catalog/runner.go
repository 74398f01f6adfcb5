package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/beatcut/beatcut-agent/internal/beats"
	"github.com/beatcut/beatcut-agent/internal/export"
	"github.com/beatcut/beatcut-agent/internal/probe"
	"github.com/beatcut/beatcut-agent/internal/timeline"
)

// Runner drains the pending build queue: for each build it loads beats,
// probes the raw footage, lays out the timeline, and writes the EDL.
type Runner struct {
	repo         Repository
	prober       probe.Prober
	profile      timeline.Profile
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRunner(repo Repository, prober probe.Prober, profile timeline.Profile, logger *slog.Logger) *Runner {
	return &Runner{
		repo:         repo,
		prober:       prober,
		profile:      profile,
		logger:       logger,
		pollInterval: 2 * time.Second,
	}
}

func (r *Runner) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("build runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("build runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextBuild(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("build runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("build runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) processNextBuild(ctx context.Context) {
	builds, err := r.repo.ListPendingBuilds(ctx)
	if err != nil {
		r.logger.Error("failed to list pending builds", "error", err)
		return
	}
	if len(builds) == 0 {
		return
	}

	r.Execute(ctx, builds[0])
}

// Execute runs one build to completion, recording its outcome.
func (r *Runner) Execute(ctx context.Context, b *Build) {
	logger := r.logger.With("build_id", b.ID)
	logger.Info("processing build", "beats", b.BeatsPath)

	if err := r.repo.UpdateBuildStatus(ctx, b.ID, BuildStatusRunning, ""); err != nil {
		logger.Error("failed to mark build running", "error", err)
		return
	}

	fail := func(err error) {
		logger.Error("build failed", "error", err)
		if uerr := r.repo.UpdateBuildStatus(ctx, b.ID, BuildStatusFailed, err.Error()); uerr != nil {
			// The build stays running in the catalog until the next
			// restart sweep; make sure the reason is on record somewhere.
			logger.Error("failed to mark build failed", "error", uerr)
		}
	}

	events, err := beats.Load(b.BeatsPath)
	if err != nil {
		fail(fmt.Errorf("load beats: %w", err))
		return
	}
	logger.Info("loaded beats", "count", len(events))

	rawDuration, fallbackUsed, err := r.footageDuration(ctx, b.VideoPath)
	if err != nil {
		fail(err)
		return
	}
	logger.Info("raw footage duration", "duration_sec", rawDuration, "fallback", fallbackUsed)

	profile := r.profile
	profile.VideoInput = b.VideoPath

	edl, err := timeline.Build(events, rawDuration, profile)
	if err != nil {
		fail(fmt.Errorf("build timeline: %w", err))
		return
	}

	if err := export.WriteEDL(b.OutputPath, edl); err != nil {
		fail(fmt.Errorf("write EDL: %w", err))
		return
	}

	result := BuildResult{
		RawDuration:     rawDuration,
		DurationSec:     edl.DurationSec,
		SegmentCount:    len(edl.Segments),
		TransitionCount: len(edl.Transitions),
		FallbackUsed:    fallbackUsed,
	}
	if err := r.repo.UpdateBuildResult(ctx, b.ID, result); err != nil {
		logger.Error("failed to record build result", "error", err)
	}
	if err := r.repo.UpdateBuildStatus(ctx, b.ID, BuildStatusCompleted, ""); err != nil {
		logger.Error("failed to mark build completed", "error", err)
		return
	}

	logger.Info("build completed",
		"duration_sec", edl.DurationSec,
		"segments", len(edl.Segments),
		"output", b.OutputPath,
	)
}

// footageDuration probes the raw video; any probe failure degrades to the
// profile's fallback duration rather than failing the build.
func (r *Runner) footageDuration(ctx context.Context, videoPath string) (float64, bool, error) {
	if r.prober == nil {
		return r.profile.FallbackDuration, true, nil
	}

	dur, err := r.prober.Duration(ctx, videoPath)
	if err != nil {
		r.logger.Warn("probe failed, using fallback duration",
			"video", videoPath,
			"fallback_sec", r.profile.FallbackDuration,
			"error", err,
		)
		return r.profile.FallbackDuration, true, nil
	}
	return dur, false, nil
}
