// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package thermal decodes the thermal channel of a BMT container into a
// temperature matrix.
//
// The thermal channel is an embedded bitmap. Its bit depth tells how to read
// it:
//
//	16 bits: raw sensor counts, converted to °C by a Calibration.
//	8 bits:  palette-indexed image already rendered by the camera.
//	24 bits: RGB image already rendered by the camera.
//
// Only the 16 bits form carries temperatures; the rendered forms are decoded
// to relative intensities so they can still be displayed through a palette.
package thermal

import (
	"encoding/binary"
	"fmt"
	"image/color"

	"github.com/maruel/go-bmt/dib"
)

// UnsupportedBitDepthError is returned when the thermal bitmap has a bit depth
// that is neither raw counts nor a rendered image.
type UnsupportedBitDepthError struct {
	BitCount int
}

func (u *UnsupportedBitDepthError) Error() string {
	return fmt.Sprintf("thermal: unsupported bit depth %d", u.BitCount)
}

// Decode decodes the embedded bitmap b.
//
// cal is used for 16 bits raw counts; Default is used if nil.
func Decode(b []byte, cal Calibration) (*Frame, error) {
	h, err := dib.Parse(b)
	if err != nil {
		return nil, err
	}
	if cal == nil {
		cal = Default
	}
	var f *Frame
	switch h.BitCount() {
	case 16:
		f = decodeRaw(h, b, cal)
	case 8:
		if f, err = decodeIndexed(h, b); err != nil {
			return nil, err
		}
	case 24:
		f = decodeRGB(h, b)
	default:
		return nil, &UnsupportedBitDepthError{BitCount: h.BitCount()}
	}
	if len(f.Temperature) != h.Height() || len(f.Temperature[0]) != h.Width() {
		panic(fmt.Sprintf("internal error: decoded %dx%d, header says %dx%d", len(f.Temperature[0]), len(f.Temperature), h.Width(), h.Height()))
	}
	f.Stats = ComputeStats(f.Temperature)
	return f, nil
}

func decodeRaw(h *dib.Header, b []byte, cal Calibration) *Frame {
	f := newFrame(h.Width(), h.Height(), Radiometric)
	for y, dst := range f.Temperature {
		row := h.Row(b, y)
		for x := range dst {
			dst[x] = cal.Temperature(binary.LittleEndian.Uint16(row[2*x:]))
		}
	}
	return f
}

func decodeIndexed(h *dib.Header, b []byte) (*Frame, error) {
	levels := make([]float64, len(h.Palette))
	for i, c := range h.Palette {
		levels[i] = luma(c)
	}
	f := newFrame(h.Width(), h.Height(), Rendered)
	for y, dst := range f.Temperature {
		row := h.Row(b, y)
		for x := range dst {
			i := int(row[x])
			if i >= len(levels) {
				return nil, fmt.Errorf("thermal: pixel (%d,%d) uses palette index %d of %d", x, y, i, len(levels))
			}
			dst[x] = levels[i]
		}
	}
	return f, nil
}

func decodeRGB(h *dib.Header, b []byte) *Frame {
	f := newFrame(h.Width(), h.Height(), Rendered)
	for y, dst := range f.Temperature {
		row := h.Row(b, y)
		for x := range dst {
			p := row[3*x:]
			dst[x] = luma(color.RGBA{R: p[2], G: p[1], B: p[0]})
		}
	}
	return f
}

// luma returns the ITU-R BT.601 luma of c in [0, 255].
//
// A grayscale palette maps each index to itself.
func luma(c color.RGBA) float64 {
	if c.R == c.G && c.G == c.B {
		return float64(c.R)
	}
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}
