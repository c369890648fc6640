// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bmttest builds synthetic BMT containers for tests.
package bmttest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"

	"github.com/maruel/go-bmt/dib"
	"golang.org/x/image/bmp"
)

// Raw16 returns a bottom-up 16 bits per pixel bitmap holding raw sensor counts
// as produced by the thermal channel.
func Raw16(w, h int, fn func(x, y int) uint16) []byte {
	stride := ((w*16 + 31) / 32) * 4
	size := dib.MinSize + stride*h
	buf := bytes.Buffer{}
	fh := dib.FileHeader{
		Type:    [2]byte{'B', 'M'},
		Size:    uint32(size),
		OffBits: dib.MinSize,
	}
	ih := dib.InfoHeader{
		Size:      dib.InfoHeaderSize,
		Width:     int32(w),
		Height:    int32(h),
		Planes:    1,
		BitCount:  16,
		SizeImage: uint32(stride * h),
	}
	mustWrite(&buf, &fh)
	mustWrite(&buf, &ih)
	row := make([]byte, stride)
	for y := h - 1; y >= 0; y-- {
		for x := 0; x < w; x++ {
			binary.LittleEndian.PutUint16(row[2*x:], fn(x, y))
		}
		buf.Write(row)
	}
	return buf.Bytes()
}

// Fill16 returns a 16 bits bitmap where every raw count is v.
func Fill16(w, h int, v uint16) []byte {
	return Raw16(w, h, func(x, y int) uint16 { return v })
}

// Ramp16 returns a 16 bits bitmap whose counts grow with x+y, starting at
// base.
func Ramp16(w, h int, base uint16) []byte {
	return Raw16(w, h, func(x, y int) uint16 { return base + uint16(x+y) })
}

// Solid24 returns a 24 bits bitmap filled with c, as stored in the visual
// channel.
func Solid24(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, 0xFF
	}
	return Encode(img)
}

// Gray8 returns a 8 bits palette-indexed grayscale bitmap, as found when the
// camera stored an already rendered thermal image.
func Gray8(w, h int, fn func(x, y int) uint8) []byte {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Pix[y*img.Stride+x] = fn(x, y)
		}
	}
	return Encode(img)
}

// Encode encodes img with golang.org/x/image/bmp.
func Encode(img image.Image) []byte {
	buf := bytes.Buffer{}
	if err := bmp.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Container concatenates the parts without any framing, like the camera does.
func Container(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// SetBitCount overwrites the bits per pixel field of the bitmap at the start
// of b.
func SetBitCount(b []byte, bpp uint16) []byte {
	binary.LittleEndian.PutUint16(b[dib.FileHeaderSize+14:], bpp)
	return b
}

// Red is the solid color used for visual channels in tests.
var Red = color.RGBA{R: 0xFF, A: 0xFF}

func mustWrite(buf *bytes.Buffer, v interface{}) {
	if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
}
