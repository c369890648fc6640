// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package render turns thermal frames into color images through a palette.
//
// Rendering is deterministic: the same frame, palette and format always
// produce the same bytes.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/maruel/go-bmt/palette"
	"github.com/maruel/go-bmt/thermal"
	"golang.org/x/image/bmp"
)

// Format is an output image encoding.
type Format int

// Valid values for Format.
const (
	PNG Format = 0
	BMP Format = 1
)

// ParseFormat parses "png" or "bmp".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return PNG, nil
	case "bmp":
		return BMP, nil
	default:
		return PNG, fmt.Errorf("render: unknown format %q", s)
	}
}

func (f Format) String() string {
	if f == BMP {
		return "bmp"
	}
	return "png"
}

// Ext returns the file extension, including the dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// ContentType returns the MIME type.
func (f Format) ContentType() string {
	return "image/" + f.String()
}

// UnknownPaletteWarning is reported when the requested palette doesn't exist
// and the default one was used instead.
type UnknownPaletteWarning struct {
	Requested string
	Used      string
}

func (u *UnknownPaletteWarning) Error() string {
	return fmt.Sprintf("render: unknown palette %q, used %q", u.Requested, u.Used)
}

// Image is an encoded rendering.
type Image struct {
	Palette   string // Palette actually used.
	Requested string // Palette requested by the caller.
	Fallback  bool   // True when Palette != Requested because Requested is unknown.
	Warning   *UnknownPaletteWarning
	Width     int
	Height    int
	Format    Format
	Data      []byte
}

// Normalize rescales the frame values to [0, 1] using the minimum and maximum
// of this frame only.
//
// The minimum maps to exactly 0 and the maximum to exactly 1. A flat frame
// maps entirely to 0. Two frames rendered separately are thus not comparable
// color for color.
func Normalize(f *thermal.Frame) [][]float64 {
	s := thermal.ComputeStats(f.Temperature)
	floor := s.Min
	delta := s.Max - floor
	out := make([][]float64, len(f.Temperature))
	for y, row := range f.Temperature {
		dst := make([]float64, len(row))
		if delta > 0 {
			for x, v := range row {
				dst[x] = (v - floor) / delta
			}
		}
		out[y] = dst
	}
	return out
}

// Colorize maps every normalized value of f through p.
func Colorize(f *thermal.Frame, p *palette.Palette) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y, row := range Normalize(f) {
		for x, v := range row {
			img.SetRGBA(x, y, p.At(v))
		}
	}
	return img
}

// Render colorizes f with the palette name and encodes it.
//
// An unknown name is not an error: the default palette is used, and the
// returned Image has Fallback set and Warning describing the substitution.
func Render(f *thermal.Frame, name string, format Format) (*Image, error) {
	p, ok := palette.Lookup(name)
	img := &Image{
		Palette:   p.Name,
		Requested: name,
		Fallback:  !ok,
		Width:     f.Width,
		Height:    f.Height,
		Format:    format,
	}
	if !ok {
		img.Warning = &UnknownPaletteWarning{Requested: name, Used: p.Name}
	}
	var err error
	if img.Data, err = EncodeBytes(Colorize(f, p), format); err != nil {
		return nil, err
	}
	return img, nil
}

// Visual re-encodes the photo of the visual channel.
func Visual(src image.Image, format Format) (*Image, error) {
	b := src.Bounds()
	data, err := EncodeBytes(src, format)
	if err != nil {
		return nil, err
	}
	return &Image{Width: b.Dx(), Height: b.Dy(), Format: format, Data: data}, nil
}

// Colorbar renders the palette name as a horizontal gradient of w by h
// pixels, coldest on the left.
func Colorbar(name string, w, h int, format Format) (*Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: invalid colorbar size %dx%d", w, h)
	}
	p, ok := palette.Lookup(name)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		v := 0.
		if w > 1 {
			v = float64(x) / float64(w-1)
		}
		c := p.At(v)
		for y := 0; y < h; y++ {
			dst.SetRGBA(x, y, c)
		}
	}
	img := &Image{Palette: p.Name, Requested: name, Fallback: !ok, Width: w, Height: h, Format: format}
	if !ok {
		img.Warning = &UnknownPaletteWarning{Requested: name, Used: p.Name}
	}
	var err error
	if img.Data, err = EncodeBytes(dst, format); err != nil {
		return nil, err
	}
	return img, nil
}

// Encode writes img to w in the requested format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		e := png.Encoder{CompressionLevel: png.DefaultCompression}
		return e.Encode(w, img)
	case BMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("render: unknown format %d", int(format))
	}
}

// EncodeBytes is Encode into a new buffer.
func EncodeBytes(img image.Image, format Format) ([]byte, error) {
	buf := bytes.Buffer{}
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
