package timeline

import (
	"fmt"
	"math"
)

// Build converts beat events plus the raw footage duration into an EDL.
//
// The pass is deterministic: intro card, then for each consecutive pair of
// scene boundaries an optional interstitial card and a clip, then an outro
// card. Segments are laid out against a running cursor, so the sequence is
// contiguous by construction. A fade transition is anchored at the end of
// every segment except the outro.
//
// Scene boundaries follow the order configured in the profile, not the
// input beat order; configured labels missing from the input are skipped.
// Clip pairs whose clamped duration is not positive are skipped entirely,
// including their interstitial card and fade.
func Build(beats []BeatEvent, rawDuration float64, p Profile) (*EDL, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	// Index beats by label; the last occurrence wins on duplicates.
	byLabel := make(map[string]float64, len(beats))
	for _, b := range beats {
		if b.Label == "" {
			return nil, fmt.Errorf("beat at t=%v has no label", b.T)
		}
		if b.T < 0 {
			return nil, fmt.Errorf("beat %q has negative timestamp %v", b.Label, b.T)
		}
		byLabel[b.Label] = b.T
	}

	var (
		segments    []Segment
		transitions []Transition
		cursor      float64
	)

	emitCard := func(text, subtext string, dur float64, fade bool) {
		segments = append(segments, Segment{
			Kind:    KindCard,
			Text:    text,
			Subtext: subtext,
			Start:   round3(cursor),
			End:     round3(cursor + dur),
		})
		if fade {
			transitions = append(transitions, Transition{
				Type: TransitionFade,
				At:   round3(cursor + dur),
				Dur:  p.FadeDuration,
			})
		}
		cursor += dur
	}

	emitCard(p.IntroText, p.IntroSubtext, p.IntroDuration, true)

	type boundary struct {
		label string
		t     float64
	}
	var bounds []boundary
	for _, label := range p.SceneOrder {
		if t, ok := byLabel[label]; ok {
			bounds = append(bounds, boundary{label: label, t: t})
		}
	}

	for i := 0; i+1 < len(bounds); i++ {
		from, to := bounds[i], bounds[i+1]

		in := from.t
		out := math.Min(to.t, rawDuration)
		if out-in > p.MaxClipDuration {
			out = in + p.MaxClipDuration
		}
		dur := out - in
		if dur <= 0 {
			// Degenerate pair: the boundary falls outside the footage
			// (or the footage is empty). Emitting a zero-or-negative
			// length segment would break contiguity downstream.
			continue
		}

		if caption := p.Captions[from.label]; caption != "" {
			emitCard(caption, "", p.InterstitialDuration, true)
		}

		segments = append(segments, Segment{
			Kind:  KindClip,
			Label: from.label,
			In:    round3(in),
			Out:   round3(out),
			Start: round3(cursor),
			End:   round3(cursor + dur),
			Motion: &Motion{
				ScaleFrom: 1.0,
				ScaleTo:   p.ZoomScaleTo,
			},
		})
		transitions = append(transitions, Transition{
			Type: TransitionFade,
			At:   round3(cursor + dur),
			Dur:  p.FadeDuration,
		})
		cursor += dur
	}

	// No trailing transition after the outro.
	emitCard(p.OutroText, "", p.OutroDuration, false)

	return &EDL{
		FPS:         p.FPS,
		Size:        p.FrameSize,
		DurationSec: round3(cursor),
		Inputs:      Inputs{Video: p.VideoInput},
		Segments:    segments,
		Transitions: transitions,
	}, nil
}

// round3 rounds to millisecond precision, the resolution the render step
// works at.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
