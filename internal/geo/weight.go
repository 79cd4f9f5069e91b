// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package geo turns location statistics into map points. It filters rows
// without coordinates, weights each point by mention frequency (dot size)
// and recency (dot color), builds the GeoJSON feature collection, and ranks
// the cold-start list of recently mentioned places. Everything here is pure.
package geo

import (
	"fmt"
	"math"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// sizeBase controls how fast dots grow with mention count. Counts of 2-3
// already grow visibly; counts in the hundreds stay on screen.
const sizeBase = 2.2

// FallbackPubDate stands in for locations that have no dated article, so
// they decay to the faintest color.
var FallbackPubDate = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

// SizeFactor returns the dot size multiplier for a mention count. Invalid
// counts (negative, NaN, infinite) get the neutral factor 1.
func SizeFactor(count float64) float64 {
	if !(count >= 0) || math.IsInf(count, 0) {
		return 1
	}
	return math.Max(1, math.Log(count)/math.Log(sizeBase)+1)
}

// Palette maps recency onto a hue and opacity range. Hues are degrees,
// alphas are fractions in [0,1], DecayDays is the exponential decay
// constant in days.
type Palette struct {
	MinHue    float64 `yaml:"min_hue"`
	MaxHue    float64 `yaml:"max_hue"`
	MinAlpha  float64 `yaml:"min_alpha"`
	MaxAlpha  float64 `yaml:"max_alpha"`
	DecayDays float64 `yaml:"decay_days"`
}

// DefaultPalette is the cool blue-to-purple range used by the map.
func DefaultPalette() Palette {
	return Palette{
		MinHue:    195,
		MaxHue:    260,
		MinAlpha:  0.40,
		MaxAlpha:  0.60,
		DecayDays: 3.2,
	}
}

// Sanitize replaces unusable values with the defaults.
func (p Palette) Sanitize() Palette {
	d := DefaultPalette()
	if !finite(p.MinHue) {
		p.MinHue = d.MinHue
	}
	if !finite(p.MaxHue) {
		p.MaxHue = d.MaxHue
	}
	if !finite(p.MinAlpha) || p.MinAlpha < 0 || p.MinAlpha > 1 {
		p.MinAlpha = d.MinAlpha
	}
	if !finite(p.MaxAlpha) || p.MaxAlpha < 0 || p.MaxAlpha > 1 {
		p.MaxAlpha = d.MaxAlpha
	}
	if !finite(p.DecayDays) || p.DecayDays <= 0 {
		p.DecayDays = d.DecayDays
	}
	return p
}

// Recency returns e^(-|days|/k) for the distance between today and pubDate:
// 1 for an article published today, approaching 0 for old ones. A zero
// pubDate is treated as FallbackPubDate.
func (p Palette) Recency(today, pubDate time.Time) float64 {
	p = p.Sanitize()
	if pubDate.IsZero() {
		pubDate = FallbackPubDate
	}
	days := today.Sub(pubDate).Hours() / 24
	return math.Exp(-math.Abs(days) / p.DecayDays)
}

// RecencyColor returns the dot color for a location whose newest article
// was published on pubDate, as #rrggbbaa.
func (p Palette) RecencyColor(today, pubDate time.Time) string {
	return p.ColorAt(p.Recency(today, pubDate))
}

// ColorAt maps a recency percentage in [0,1] onto the palette. Values
// outside the range are clamped.
func (p Palette) ColorAt(percentage float64) string {
	p = p.Sanitize()
	if !finite(percentage) {
		percentage = 0
	}
	percentage = math.Min(1, math.Max(0, percentage))

	hue := p.MinHue + percentage*(p.MaxHue-p.MinHue)
	alpha := p.MinAlpha + percentage*(p.MaxAlpha-p.MinAlpha)

	c := colorful.Hsl(math.Mod(hue+360, 360), 1, 0.5).Clamped()
	return fmt.Sprintf("%s%02x", c.Hex(), uint8(math.Round(alpha*255)))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
