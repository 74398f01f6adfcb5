// Package timeline builds Edit Decision Lists from beat timestamps.
// The builder is a pure function over explicit configuration: it performs
// temporal layout of title cards and footage clips, clamps clip boundaries
// against the raw footage duration, and emits fade transitions at every
// segment boundary except the final one.
package timeline

import (
	"encoding/json"
	"fmt"
)

// Segment kinds.
const (
	KindCard = "card"
	KindClip = "clip"
)

// TransitionFade is the only transition type the render step understands.
const TransitionFade = "fade"

// BeatEvent is a labeled timestamp captured during a recording session.
// Labels are opaque; timestamps are seconds into the raw footage.
type BeatEvent struct {
	Label string  `json:"label"`
	T     float64 `json:"t"`
}

// Motion describes the slow push-in applied to a clip segment.
type Motion struct {
	ScaleFrom float64 `json:"scaleFrom"`
	ScaleTo   float64 `json:"scaleTo"`
}

// Segment is one unit of the output timeline. Kind selects which fields
// are meaningful: cards carry Text/Subtext, clips carry Label/In/Out/Motion.
// Start and End are absolute positions on the output timeline.
type Segment struct {
	Kind    string
	Text    string
	Subtext string
	Label   string
	In      float64
	Out     float64
	Motion  *Motion
	Start   float64
	End     float64
}

type cardJSON struct {
	Kind    string  `json:"kind"`
	Text    string  `json:"text"`
	Subtext string  `json:"subtext,omitempty"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

type clipJSON struct {
	Kind   string  `json:"kind"`
	Label  string  `json:"label"`
	In     float64 `json:"in"`
	Out    float64 `json:"out"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Motion *Motion `json:"motion"`
}

// MarshalJSON emits only the fields relevant to the segment kind, so card
// segments never carry clip fields and vice versa.
func (s Segment) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindCard:
		return json.Marshal(cardJSON{
			Kind:    s.Kind,
			Text:    s.Text,
			Subtext: s.Subtext,
			Start:   s.Start,
			End:     s.End,
		})
	case KindClip:
		return json.Marshal(clipJSON{
			Kind:   s.Kind,
			Label:  s.Label,
			In:     s.In,
			Out:    s.Out,
			Start:  s.Start,
			End:    s.End,
			Motion: s.Motion,
		})
	default:
		return nil, fmt.Errorf("unknown segment kind %q", s.Kind)
	}
}

// UnmarshalJSON restores a segment from either wire shape.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Kind {
	case KindCard:
		var c cardJSON
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*s = Segment{Kind: c.Kind, Text: c.Text, Subtext: c.Subtext, Start: c.Start, End: c.End}
		return nil
	case KindClip:
		var c clipJSON
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		*s = Segment{Kind: c.Kind, Label: c.Label, In: c.In, Out: c.Out, Motion: c.Motion, Start: c.Start, End: c.End}
		return nil
	default:
		return fmt.Errorf("unknown segment kind %q", probe.Kind)
	}
}

// Duration returns the span the segment occupies on the output timeline.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transition overlays a segment boundary; it occupies no timeline span
// of its own. At always coincides with the End of the preceding segment.
type Transition struct {
	Type string  `json:"type"`
	At   float64 `json:"at"`
	Dur  float64 `json:"dur"`
}

// Size is the output frame size in pixels.
type Size struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Inputs names the source media the EDL refers to.
type Inputs struct {
	Video string `json:"video"`
}

// EDL is the complete timeline description handed to the render step.
// It is a value object: constructed in one pass and never mutated after.
type EDL struct {
	FPS         int          `json:"fps"`
	Size        Size         `json:"size"`
	DurationSec float64      `json:"durationSec"`
	Inputs      Inputs       `json:"inputs"`
	Segments    []Segment    `json:"segments"`
	Transitions []Transition `json:"transitions"`
}
