// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"fmt"
	"image"
)

// Kind tells what the values of a Frame represent.
type Kind int

// Valid values for Kind.
const (
	// Radiometric frames hold temperatures in °C computed from raw counts.
	Radiometric Kind = 0
	// Rendered frames were decoded from an image the camera had already
	// rendered; values are relative intensities in [0, 255], not °C.
	Rendered Kind = 1
)

func (k Kind) String() string {
	switch k {
	case Radiometric:
		return "radiometric"
	case Rendered:
		return "rendered"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Stats summarizes a temperature matrix.
//
// It is always derived from the matrix with ComputeStats.
type Stats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// Frame is a decoded thermal frame. It is not modified once returned by
// Decode.
type Frame struct {
	Width       int
	Height      int
	Kind        Kind
	Temperature [][]float64 // [Height][Width]
	Stats       Stats
}

// newFrame allocates a frame with a single backing array.
func newFrame(w, h int, k Kind) *Frame {
	f := &Frame{Width: w, Height: h, Kind: k, Temperature: make([][]float64, h)}
	pix := make([]float64, w*h)
	for y := range f.Temperature {
		f.Temperature[y] = pix[y*w : (y+1)*w : (y+1)*w]
	}
	return f
}

// ComputeStats returns the minimum, maximum and average over all the values
// of m. It returns the zero value for an empty matrix.
func ComputeStats(m [][]float64) Stats {
	s := Stats{}
	n := 0
	sum := 0.
	for _, row := range m {
		for _, v := range row {
			if n == 0 || v < s.Min {
				s.Min = v
			}
			if n == 0 || v > s.Max {
				s.Max = v
			}
			sum += v
			n++
		}
	}
	if n == 0 {
		return Stats{}
	}
	s.Avg = sum / float64(n)
	// Rounding in the sum must not break Min <= Avg <= Max.
	if s.Avg < s.Min {
		s.Avg = s.Min
	} else if s.Avg > s.Max {
		s.Avg = s.Max
	}
	return s
}

// At returns the value at (x, y), with false when out of bounds.
func (f *Frame) At(x, y int) (float64, bool) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return 0, false
	}
	return f.Temperature[y][x], true
}

// Hottest returns the first pixel holding Stats.Max, in row order.
func (f *Frame) Hottest() image.Point {
	return f.find(f.Stats.Max)
}

// Coldest returns the first pixel holding Stats.Min, in row order.
func (f *Frame) Coldest() image.Point {
	return f.find(f.Stats.Min)
}

func (f *Frame) find(v float64) image.Point {
	for y, row := range f.Temperature {
		for x, t := range row {
			if t == v {
				return image.Point{X: x, Y: y}
			}
		}
	}
	return image.Point{}
}

func (f *Frame) String() string {
	return fmt.Sprintf("%dx%d %s min=%.2f max=%.2f avg=%.2f", f.Width, f.Height, f.Kind, f.Stats.Min, f.Stats.Max, f.Stats.Avg)
}
