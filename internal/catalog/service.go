package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

type BuildService interface {
	EnqueueBuild(ctx context.Context, beatsPath, videoPath, outputPath string) (*Build, error)
	GetBuild(ctx context.Context, id string) (*Build, error)
	GetBuilds(ctx context.Context, limit int) ([]*Build, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// EnqueueBuild validates the beats file and queues a build for the runner.
// The raw video is allowed to be absent here: probing happens at execution
// time and falls back to the profile's fallback duration.
func (s *Service) EnqueueBuild(ctx context.Context, beatsPath, videoPath, outputPath string) (*Build, error) {
	absBeats, err := filepath.Abs(beatsPath)
	if err != nil {
		return nil, fmt.Errorf("invalid beats path: %w", err)
	}
	info, err := os.Stat(absBeats)
	if err != nil {
		return nil, fmt.Errorf("beats file not found: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("beats path %s is a directory", absBeats)
	}

	absVideo, err := filepath.Abs(videoPath)
	if err != nil {
		return nil, fmt.Errorf("invalid video path: %w", err)
	}
	absOut, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, fmt.Errorf("invalid output path: %w", err)
	}

	now := time.Now().UTC()
	build := &Build{
		ID:         NewID(),
		Status:     BuildStatusPending,
		BeatsPath:  absBeats,
		VideoPath:  absVideo,
		OutputPath: absOut,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateBuild(ctx, build); err != nil {
		return nil, fmt.Errorf("queue build: %w", err)
	}

	s.logger.Info("build queued", "build_id", build.ID, "beats", absBeats)
	return build, nil
}

func (s *Service) GetBuild(ctx context.Context, id string) (*Build, error) {
	return s.repo.GetBuild(ctx, id)
}

func (s *Service) GetBuilds(ctx context.Context, limit int) ([]*Build, error) {
	return s.repo.ListBuilds(ctx, limit)
}
