// Package config provides configuration for the beatcut agent.
// Configuration is loaded from environment variables with sensible
// defaults; a .env file in the working directory is honored when present.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/beatcut/beatcut-agent/internal/timeline"
)

const (
	// Default values
	DefaultPort     = 8765
	DefaultLogLevel = "info"
	DefaultDataDir  = ".beatcut"

	// Environment variable names
	EnvPort       = "BEATCUT_PORT"
	EnvLogLevel   = "BEATCUT_LOG_LEVEL"
	EnvDataDir    = "BEATCUT_DATA_DIR"
	EnvProjectDir = "BEATCUT_PROJECT_DIR"
	EnvBeatsPath  = "BEATCUT_BEATS_PATH"
	EnvVideoPath  = "BEATCUT_VIDEO_PATH"
	EnvOutputPath = "BEATCUT_OUTPUT_PATH"
	EnvProfile    = "BEATCUT_PROFILE"
	EnvFFProbe    = "BEATCUT_FFPROBE"

	// Database filename
	DBFilename = "beatcut.db"

	// Project-relative default locations
	DefaultBeatsFile  = "recordings/beats.jsonl"
	DefaultVideoFile  = "recordings/raw.mp4"
	DefaultOutputFile = "dist/edl.json"

	// Timeouts and intervals
	DefaultProbeTimeout  = 15 // seconds
	DefaultPollInterval  = 2  // seconds, build runner queue poll
	DefaultWatchInterval = 2  // seconds, beats file mtime poll
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ProjectDir() string
	BeatsPath() string
	VideoPath() string
	OutputPath() string
	ProfilePath() string
	FFProbePath() string
	ProbeTimeout() time.Duration
	PollInterval() time.Duration
	WatchInterval() time.Duration
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port       int
	logLevel   string
	dataDir    string
	projectDir string

	beatsPath  string
	videoPath  string
	outputPath string

	profilePath string
	ffprobePath string
}

// New creates a new EnvConfig with defaults and environment variable
// overrides. A .env file in the working directory is loaded first; a
// missing .env is not an error.
func New() (*EnvConfig, error) {
	godotenv.Load()

	cfg := &EnvConfig{
		port:       DefaultPort,
		logLevel:   DefaultLogLevel,
		dataDir:    defaultDataDir(),
		projectDir: ".",
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if pd := os.Getenv(EnvProjectDir); pd != "" {
		cfg.projectDir = pd
	}

	cfg.beatsPath = os.Getenv(EnvBeatsPath)
	cfg.videoPath = os.Getenv(EnvVideoPath)
	cfg.outputPath = os.Getenv(EnvOutputPath)
	cfg.profilePath = os.Getenv(EnvProfile)
	cfg.ffprobePath = os.Getenv(EnvFFProbe)

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ProjectDir returns the recording project directory
func (c *EnvConfig) ProjectDir() string {
	return c.projectDir
}

// BeatsPath returns the beats log location, project-relative by default
func (c *EnvConfig) BeatsPath() string {
	if c.beatsPath != "" {
		return c.beatsPath
	}
	return filepath.Join(c.projectDir, DefaultBeatsFile)
}

// VideoPath returns the raw footage location, project-relative by default
func (c *EnvConfig) VideoPath() string {
	if c.videoPath != "" {
		return c.videoPath
	}
	return filepath.Join(c.projectDir, DefaultVideoFile)
}

// OutputPath returns where the EDL document is written
func (c *EnvConfig) OutputPath() string {
	if c.outputPath != "" {
		return c.outputPath
	}
	return filepath.Join(c.projectDir, DefaultOutputFile)
}

// ProfilePath returns the optional timeline profile JSON path
func (c *EnvConfig) ProfilePath() string {
	return c.profilePath
}

// FFProbePath returns the configured ffprobe binary; empty = auto-detect
func (c *EnvConfig) FFProbePath() string {
	return c.ffprobePath
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return time.Duration(DefaultProbeTimeout) * time.Second
}

func (c *EnvConfig) PollInterval() time.Duration {
	return time.Duration(DefaultPollInterval) * time.Second
}

func (c *EnvConfig) WatchInterval() time.Duration {
	return time.Duration(DefaultWatchInterval) * time.Second
}

// LoadProfile returns the timeline profile: the defaults, overlaid with
// the JSON profile file when one is configured.
func LoadProfile(path string) (timeline.Profile, error) {
	profile := timeline.DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("read profile: %w", err)
	}
	if err := json.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return profile, fmt.Errorf("profile %s: %w", path, err)
	}

	return profile, nil
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
