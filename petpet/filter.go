// Package petpet turns a still image into a looping "squish" GIF. The
// resampling filter used while scaling each frame is selectable.
package petpet

import (
	"strings"

	"golang.org/x/image/draw"
)

// Filter selects the resampling strategy used to scale frames.
type Filter int

const (
	// Quality resamples with the Catmull-Rom cubic kernel.
	Quality Filter = iota
	// Fast resamples with nearest neighbor.
	Fast
)

// Label returns the human-readable filter name. It is part of cache keys and
// diagnostics, so it must stay stable.
func (f Filter) Label() string {
	switch f {
	case Fast:
		return "Nearest Neighbor"
	default:
		return "Cubic: Catmull-Rom"
	}
}

func (f Filter) String() string { return f.Label() }

func (f Filter) interpolator() draw.Interpolator {
	if f == Fast {
		return draw.NearestNeighbor
	}
	return draw.CatmullRom
}

// fastTokens are the speed query values that select Fast. Matching is
// case-insensitive after trimming spaces.
var fastTokens = map[string]struct{}{
	"true": {},
	"yes":  {},
	"ja":   {},
	"y":    {},
	"1":    {},
	"on":   {},
	"fast": {},
}

// ParseSpeed maps a speed query value to a filter. Every input maps to
// exactly one filter: the tokens in fastTokens select Fast, anything else
// (absent, "no", "false", "nein", "not", garbage) selects Quality.
func ParseSpeed(s string) Filter {
	if _, ok := fastTokens[strings.ToLower(strings.TrimSpace(s))]; ok {
		return Fast
	}
	return Quality
}
