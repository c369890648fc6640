// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package palette

import (
	"image/color"
	"math"
	"testing"
)

func TestLookup(t *testing.T) {
	data := []struct {
		name string
		want string
		ok   bool
	}{
		{"iron", "iron", true},
		{"Rainbow", "rainbow", true},
		{" lava ", "lava", true},
		{"", Default, false},
		{"ironbow", Default, false},
	}
	for _, line := range data {
		p, ok := Lookup(line.name)
		if p.Name != line.want || ok != line.ok {
			t.Fatalf("%q: %s %t", line.name, p.Name, ok)
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 9 {
		t.Fatal(names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatal(names)
		}
	}
	for i, p := range All() {
		if p.Name != names[i] || len(p.Stops()) < 2 {
			t.Fatal(p)
		}
	}
}

func TestAt(t *testing.T) {
	p, _ := Lookup("grayscale")
	data := []struct {
		v    float64
		want color.RGBA
	}{
		{0, color.RGBA{0, 0, 0, 255}},
		{-1, color.RGBA{0, 0, 0, 255}},
		{math.NaN(), color.RGBA{0, 0, 0, 255}},
		{0.5, color.RGBA{128, 128, 128, 255}},
		{1, color.RGBA{255, 255, 255, 255}},
		{2, color.RGBA{255, 255, 255, 255}},
	}
	for _, line := range data {
		if c := p.At(line.v); c != line.want {
			t.Fatalf("%g: %v != %v", line.v, c, line.want)
		}
	}
}

func TestAt_endpoints(t *testing.T) {
	for _, p := range All() {
		s := p.Stops()
		if p.At(0) != s[0] || p.At(1) != s[len(s)-1] {
			t.Fatal(p.Name)
		}
		// Continuity: a tiny step never jumps more than one stop apart.
		prev := p.At(0)
		for i := 1; i <= 1000; i++ {
			c := p.At(float64(i) / 1000)
			if d := diff(prev, c); d > 255/len(s)+2 {
				t.Fatalf("%s: jump of %d at %d", p.Name, d, i)
			}
			prev = c
		}
	}
}

func diff(a, b color.RGBA) int {
	m := 0
	for _, d := range []int{int(a.R) - int(b.R), int(a.G) - int(b.G), int(a.B) - int(b.B)} {
		if d < 0 {
			d = -d
		}
		if d > m {
			m = d
		}
	}
	return m
}
