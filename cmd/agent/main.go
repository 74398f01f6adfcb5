package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beatcut/beatcut-agent/internal/api"
	"github.com/beatcut/beatcut-agent/internal/beats"
	"github.com/beatcut/beatcut-agent/internal/catalog"
	"github.com/beatcut/beatcut-agent/internal/config"
	"github.com/beatcut/beatcut-agent/internal/db"
	"github.com/beatcut/beatcut-agent/internal/export"
	"github.com/beatcut/beatcut-agent/internal/logging"
	"github.com/beatcut/beatcut-agent/internal/preview"
	"github.com/beatcut/beatcut-agent/internal/probe"
	"github.com/beatcut/beatcut-agent/internal/timeline"
	"github.com/beatcut/beatcut-agent/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	serve := flag.Bool("serve", false, "run as a long-lived agent with HTTP API and file watching")
	projectDir := flag.String("project", "", "recording project directory")
	beatsPath := flag.String("beats", "", "beats log path (default <project>/recordings/beats.jsonl)")
	videoPath := flag.String("video", "", "raw footage path (default <project>/recordings/raw.mp4)")
	outputPath := flag.String("out", "", "EDL output path (default <project>/dist/edl.json)")
	profilePath := flag.String("profile", "", "timeline profile JSON path")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("beatcut-agent %s (built %s, commit %s)\n", config.Version, config.BuildTime, config.GitCommit)
		return nil
	}

	// Flags take precedence over environment variables; funnel them
	// through the environment so config.New stays the single resolver.
	setEnvFlag(config.EnvProjectDir, *projectDir)
	setEnvFlag(config.EnvBeatsPath, *beatsPath)
	setEnvFlag(config.EnvVideoPath, *videoPath)
	setEnvFlag(config.EnvOutputPath, *outputPath)
	setEnvFlag(config.EnvProfile, *profilePath)

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())

	profile, err := config.LoadProfile(cfg.ProfilePath())
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	if *serve {
		return runServe(cfg, profile, logger, startTime)
	}
	return runOnce(cfg, profile, logger)
}

// runOnce builds the EDL a single time from the configured project files
// and exits. Missing inputs are hard errors; a failed duration probe is
// not, the profile fallback covers it.
func runOnce(cfg config.Config, profile timeline.Profile, logger *slog.Logger) error {
	if _, err := os.Stat(cfg.BeatsPath()); err != nil {
		return fmt.Errorf("beats log not found: %s", cfg.BeatsPath())
	}
	if _, err := os.Stat(cfg.VideoPath()); err != nil {
		return fmt.Errorf("raw footage not found: %s", cfg.VideoPath())
	}

	events, err := beats.Load(cfg.BeatsPath())
	if err != nil {
		return fmt.Errorf("load beats: %w", err)
	}
	logger.Info("loaded beats", "count", len(events), "path", cfg.BeatsPath())

	rawDuration := profile.FallbackDuration
	fallbackUsed := true
	if prober, err := probe.NewFFProbe(cfg.FFProbePath(), cfg.ProbeTimeout(), logger); err != nil {
		logger.Warn("ffprobe unavailable, using fallback duration",
			"fallback_sec", profile.FallbackDuration, "error", err)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ProbeTimeout())
		defer cancel()
		dur, err := prober.Duration(ctx, cfg.VideoPath())
		if err != nil {
			logger.Warn("probe failed, using fallback duration",
				"fallback_sec", profile.FallbackDuration, "error", err)
		} else {
			rawDuration = dur
			fallbackUsed = false
		}
	}

	profile.VideoInput = cfg.VideoPath()

	edl, err := timeline.Build(events, rawDuration, profile)
	if err != nil {
		return fmt.Errorf("build timeline: %w", err)
	}

	if err := export.WriteEDL(cfg.OutputPath(), edl); err != nil {
		return fmt.Errorf("write EDL: %w", err)
	}

	logger.Info("EDL written",
		"output", cfg.OutputPath(),
		"duration_sec", edl.DurationSec,
		"segments", len(edl.Segments),
		"transitions", len(edl.Transitions),
		"raw_duration_sec", rawDuration,
		"fallback_used", fallbackUsed,
	)
	return nil
}

func runServe(cfg config.Config, profile timeline.Profile, logger *slog.Logger, startTime time.Time) error {
	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	logger.Info("starting beatcut agent", "version", config.Version, "data_dir", cfg.DataDir())

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	repo := catalog.NewRepository(database.Conn())

	deviceID, err := ensureDeviceID(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure device ID: %w", err)
	}

	authToken, err := ensureAuthToken(repo)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Printf("║                    BEATCUT AGENT v%-24s ║\n", config.Version)
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Device ID:  %-45s ║\n", deviceID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	buildSvc := catalog.NewService(repo, logger)

	var prober probe.Prober
	if p, err := probe.NewFFProbe(cfg.FFProbePath(), cfg.ProbeTimeout(), logger); err != nil {
		logger.Warn("ffprobe unavailable, builds will use the fallback duration", "error", err)
	} else {
		prober = p
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := catalog.NewRunner(repo, prober, profile, logger)
	runner.SetPollInterval(cfg.PollInterval())
	go runner.Start(ctx)

	poller := watcher.NewPoller(cfg.WatchInterval(), logger)
	poller.OnChange(func(path string, event watcher.EventType) {
		if event == watcher.EventDelete {
			logger.Warn("beats log removed", "path", path)
			return
		}
		build, err := buildSvc.EnqueueBuild(ctx, cfg.BeatsPath(), cfg.VideoPath(), cfg.OutputPath())
		if err != nil {
			logger.Error("failed to enqueue build for changed beats log", "error", err)
			return
		}
		logger.Info("beats log changed, build enqueued", "event", event.String(), "build_id", build.ID)
	})
	go func() {
		if err := poller.Watch(ctx, cfg.BeatsPath()); err != nil && ctx.Err() == nil {
			logger.Error("watcher stopped", "error", err)
		}
	}()

	var previewSrv *preview.Server
	if _, err := os.Stat(cfg.VideoPath()); err == nil {
		previewSrv = preview.NewServer(cfg.VideoPath(), logger)
	} else {
		logger.Info("raw footage not present yet, preview endpoint disabled", "path", cfg.VideoPath())
	}

	serveProfile := profile
	serveProfile.VideoInput = cfg.VideoPath()

	apiServer := api.NewServer(api.ServerConfig{
		Port:          cfg.Port(),
		BuildService:  buildSvc,
		Repository:    repo,
		Runner:        runner,
		Profile:       serveProfile,
		PreviewServer: previewSrv,
		Logger:        logger,
		StartTime:     startTime,
		DeviceID:      deviceID,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	logger.Info("initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func setEnvFlag(key, value string) {
	if value != "" {
		os.Setenv(key, value)
	}
}

func ensureDeviceID(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "device_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	deviceID := hex.EncodeToString(idBytes)

	if err := repo.SetConfig(ctx, "device_id", deviceID); err != nil {
		return "", err
	}

	return deviceID, nil
}

func ensureAuthToken(repo catalog.Repository) (string, error) {
	ctx := context.Background()

	existing, err := repo.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := repo.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
