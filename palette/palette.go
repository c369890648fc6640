// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package palette defines the closed set of color palettes used to render
// thermal frames.
//
// Each palette is a continuous function from [0, 1] to a color, built by
// linear interpolation between evenly spaced color stops.
package palette

import (
	"image/color"
	"math"
	"sort"
	"strings"
)

// Default is the palette used when the requested one is unknown.
const Default = "iron"

// Palette is a named continuous color map.
type Palette struct {
	Name        string
	Description string
	stops       []color.RGBA
}

// At returns the color for v. v is clamped to [0, 1]; NaN maps to 0.
func (p *Palette) At(v float64) color.RGBA {
	if !(v > 0) {
		return p.stops[0]
	}
	last := len(p.stops) - 1
	if v >= 1 {
		return p.stops[last]
	}
	pos := v * float64(last)
	i := int(pos)
	if i >= last {
		return p.stops[last]
	}
	t := pos - float64(i)
	a, b := p.stops[i], p.stops[i+1]
	return color.RGBA{R: lerp(a.R, b.R, t), G: lerp(a.G, b.G, t), B: lerp(a.B, b.B, t), A: 0xFF}
}

// Stops returns a copy of the color stops.
func (p *Palette) Stops() []color.RGBA {
	return append([]color.RGBA(nil), p.stops...)
}

func (p *Palette) String() string {
	return p.Name
}

// Lookup returns the palette named name, case insensitive.
//
// When name is unknown, it returns the Default palette and false.
func Lookup(name string) (*Palette, bool) {
	if p, ok := all[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, true
	}
	return all[Default], false
}

// Names returns the names of all the palettes, sorted.
func Names() []string {
	out := make([]string, 0, len(all))
	for k := range all {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// All returns all the palettes, sorted by name.
func All() []*Palette {
	names := Names()
	out := make([]*Palette, len(names))
	for i, n := range names {
		out[i] = all[n]
	}
	return out
}

//

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + t*(float64(b)-float64(a))))
}

func rgb(v ...uint32) []color.RGBA {
	out := make([]color.RGBA, len(v))
	for i, c := range v {
		out[i] = color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xFF}
	}
	return out
}

var all = map[string]*Palette{
	"iron": {
		Name:        "iron",
		Description: "Industry standard, high contrast",
		stops:       rgb(0x000033, 0x000055, 0x0000aa, 0x0033ff, 0x0088ff, 0x00ddff, 0x33ffaa, 0x88ff55, 0xddff00, 0xffaa00, 0xff5500, 0xff0000, 0xaa0000),
	},
	"rainbow": {
		Name:        "rainbow",
		Description: "Full spectrum for fine discrimination",
		stops:       rgb(0x0000ff, 0x0055ff, 0x00aaff, 0x00ffff, 0x00ff88, 0x00ff00, 0x88ff00, 0xffff00, 0xffaa00, 0xff5500, 0xff0000, 0xffffff),
	},
	"grayscale": {
		Name:        "grayscale",
		Description: "Black to white, suited for printing",
		stops:       rgb(0x000000, 0xffffff),
	},
	"hot": {
		Name:        "hot",
		Description: "Emphasizes hot spots",
		stops:       rgb(0x000000, 0x330000, 0x660000, 0x990000, 0xcc0000, 0xff0000, 0xff3300, 0xff6600, 0xff9900, 0xffcc00, 0xffff00, 0xffffff),
	},
	"cold": {
		Name:        "cold",
		Description: "Emphasizes cold spots",
		stops:       rgb(0xffffff, 0xccffff, 0x99ffff, 0x66ffff, 0x33ffff, 0x00ffff, 0x00ccff, 0x0099ff, 0x0066ff, 0x0033ff, 0x0000ff, 0x000033),
	},
	"medical": {
		Name:        "medical",
		Description: "Medical imaging",
		stops:       rgb(0x000080, 0x0000c0, 0x0040ff, 0x0080ff, 0x00c0ff, 0x00ffff, 0x80ffff, 0xc0ffff, 0xffffff),
	},
	"sepia": {
		Name:        "sepia",
		Description: "Classic, easy to read",
		stops:       rgb(0x1a0f0a, 0x2d1b0e, 0x4a2f1a, 0x6b4423, 0x8b5a2b, 0xa0673a, 0xb8814a, 0xcc9966, 0xd4a574, 0xe0b88c, 0xf5deb3),
	},
	"arctic": {
		Name:        "arctic",
		Description: "Cold and icy scenes",
		stops:       rgb(0x001a33, 0x003366, 0x004d99, 0x0066cc, 0x0080ff, 0x3399ff, 0x66b3ff, 0x99ccff, 0xcce6ff, 0xe6f2ff, 0xffffff),
	},
	"lava": {
		Name:        "lava",
		Description: "Very hot scenes",
		stops:       rgb(0x000000, 0x1a0000, 0x330000, 0x4d0000, 0x660000, 0x800000, 0x990000, 0xb30000, 0xcc0000, 0xe60000, 0xff0000, 0xff3333, 0xff6666, 0xff9999, 0xffcccc),
	},
}
