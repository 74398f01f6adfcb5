package timeline

import "fmt"

// Default timing constants. Fade is 6 frames at 30fps.
const (
	DefaultFPS                  = 30
	DefaultIntroDuration        = 1.2
	DefaultInterstitialDuration = 0.7
	DefaultOutroDuration        = 1.5
	DefaultFadeDuration         = 0.2
	DefaultMaxClipDuration      = 5.0
	DefaultZoomScaleTo          = 1.02
	DefaultFallbackDuration     = 25.0
)

// Profile is the injected configuration the builder runs against.
// It keeps the algorithm independent of any particular project's beat
// vocabulary: scene order, captions, and all durations come from here.
type Profile struct {
	FPS       int  `json:"fps"`
	FrameSize Size `json:"size"`

	IntroText    string `json:"introText"`
	IntroSubtext string `json:"introSubtext"`
	OutroText    string `json:"outroText"`

	IntroDuration        float64 `json:"introDurationSec"`
	InterstitialDuration float64 `json:"interstitialDurationSec"`
	OutroDuration        float64 `json:"outroDurationSec"`
	FadeDuration         float64 `json:"fadeDurationSec"`
	MaxClipDuration      float64 `json:"maxClipDurationSec"`

	ZoomScaleTo float64 `json:"zoomScaleTo"`

	// SceneOrder lists the beat labels that delimit clips, in the order
	// clips should appear. Labels absent from the beat input are skipped.
	SceneOrder []string `json:"sceneOrder"`

	// Captions maps a scene label to the interstitial card text shown
	// before its clip. Labels with no caption get no card.
	Captions map[string]string `json:"captions"`

	// VideoInput is the source path recorded in the EDL's inputs block.
	VideoInput string `json:"videoInput"`

	// FallbackDuration substitutes for the raw footage duration when the
	// probe fails. Used by the caller, never by Build itself.
	FallbackDuration float64 `json:"fallbackDurationSec"`
}

// DefaultProfile returns the stock screen-recording demo profile.
func DefaultProfile() Profile {
	return Profile{
		FPS:                  DefaultFPS,
		FrameSize:            Size{W: 1920, H: 1080},
		IntroText:            "beatcut",
		IntroSubtext:         "cut from beats",
		OutroText:            "beatcut",
		IntroDuration:        DefaultIntroDuration,
		InterstitialDuration: DefaultInterstitialDuration,
		OutroDuration:        DefaultOutroDuration,
		FadeDuration:         DefaultFadeDuration,
		MaxClipDuration:      DefaultMaxClipDuration,
		ZoomScaleTo:          DefaultZoomScaleTo,
		SceneOrder: []string{
			"open",
			"multicursor_start",
			"split_view",
			"csv_view",
			"search",
			"outline",
			"command_palette",
			"end",
		},
		Captions: map[string]string{
			"multicursor_start": "multi-cursor",
			"split_view":        "split view",
			"csv_view":          "csv editor",
			"search":            "search",
			"outline":           "outline",
			"command_palette":   "command palette",
		},
		VideoInput:       "recordings/raw.mp4",
		FallbackDuration: DefaultFallbackDuration,
	}
}

// Validate rejects profiles the builder cannot lay out sensibly.
func (p Profile) Validate() error {
	if p.FPS <= 0 {
		return fmt.Errorf("profile: fps must be positive, got %d", p.FPS)
	}
	if p.FrameSize.W <= 0 || p.FrameSize.H <= 0 {
		return fmt.Errorf("profile: frame size must be positive, got %dx%d", p.FrameSize.W, p.FrameSize.H)
	}
	for name, d := range map[string]float64{
		"introDurationSec":        p.IntroDuration,
		"interstitialDurationSec": p.InterstitialDuration,
		"outroDurationSec":        p.OutroDuration,
		"fadeDurationSec":         p.FadeDuration,
	} {
		if d < 0 {
			return fmt.Errorf("profile: %s must not be negative, got %v", name, d)
		}
	}
	if p.MaxClipDuration <= 0 {
		return fmt.Errorf("profile: maxClipDurationSec must be positive, got %v", p.MaxClipDuration)
	}
	return nil
}
