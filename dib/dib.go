// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dib reads the headers of an embedded Windows device independent
// bitmap, as found concatenated inside BMT containers.
//
// Only the narrow subset observed in thermal camera files is handled:
// uncompressed (BI_RGB) pixel arrays of 8, 16, 24 or 32 bits per pixel, plus
// BI_BITFIELDS for 16 and 32 bits. It is not a general purpose BMP codec; use
// golang.org/x/image/bmp to decode a photo into an image.Image.
//
// References:
//
//	https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapfileheader
//	https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapinfoheader
package dib

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
)

// Sizes of the fixed headers.
const (
	FileHeaderSize = 14
	InfoHeaderSize = 40
	// MinSize is the smallest possible embedded bitmap: both headers and no
	// pixel.
	MinSize = FileHeaderSize + InfoHeaderSize
)

// Compression values used in InfoHeader.Compression.
const (
	CompressionRGB       = 0
	CompressionBitfields = 3
)

// ErrSignature is returned when the buffer doesn't start with "BM".
var ErrSignature = errors.New("dib: missing BM signature")

// FileHeader is BITMAPFILEHEADER.
type FileHeader struct {
	Type      [2]byte // "BM"
	Size      uint32  // Total size of the bitmap, headers included.
	Reserved1 uint16  //
	Reserved2 uint16  //
	OffBits   uint32  // Offset from the start of FileHeader to the pixel array.
}

// InfoHeader is BITMAPINFOHEADER. The V4 and V5 headers start with the same
// fields, only Size differs.
type InfoHeader struct {
	Size          uint32 // Size of this header; 40, 108 or 124.
	Width         int32  //
	Height        int32  // Negative means the rows are stored top-down.
	Planes        uint16 //
	BitCount      uint16 // Bits per pixel.
	Compression   uint32 //
	SizeImage     uint32 // May be 0 for CompressionRGB.
	XPelsPerMeter int32  //
	YPelsPerMeter int32  //
	ClrUsed       uint32 // Number of palette entries; 0 means 1<<BitCount.
	ClrImportant  uint32 //
}

// TruncatedError is returned when a structure extends past the end of the
// bitmap bytes.
type TruncatedError struct {
	What string
	Need int64
	Have int
}

func (t *TruncatedError) Error() string {
	return fmt.Sprintf("dib: %s needs %d bytes, only %d available", t.What, t.Need, t.Have)
}

// UnsupportedError is returned for valid but unhandled header values.
type UnsupportedError struct {
	Field string
	Value int64
}

func (u *UnsupportedError) Error() string {
	return fmt.Sprintf("dib: unsupported %s %d", u.Field, u.Value)
}

// Header is a parsed embedded bitmap header.
//
// A Header returned by Parse guarantees that every row of the pixel array is
// within the bytes it was parsed from.
type Header struct {
	File    FileHeader
	Info    InfoHeader
	Palette []color.RGBA // Only set when BitCount <= 8.
}

// Parse parses the headers at the start of b.
func Parse(b []byte) (*Header, error) {
	if len(b) < MinSize {
		return nil, &TruncatedError{"headers", MinSize, len(b)}
	}
	h := &Header{}
	r := bytes.NewReader(b)
	if err := binary.Read(r, binary.LittleEndian, &h.File); err != nil {
		return nil, err
	}
	if h.File.Type != [2]byte{'B', 'M'} {
		return nil, ErrSignature
	}
	if err := binary.Read(r, binary.LittleEndian, &h.Info); err != nil {
		return nil, err
	}
	if h.Info.Size < InfoHeaderSize {
		return nil, &UnsupportedError{"info header size", int64(h.Info.Size)}
	}
	if h.Info.Width <= 0 {
		return nil, &UnsupportedError{"width", int64(h.Info.Width)}
	}
	if h.Info.Height == 0 || h.Info.Height == -1<<31 {
		return nil, &UnsupportedError{"height", int64(h.Info.Height)}
	}
	switch h.Info.Compression {
	case CompressionRGB:
	case CompressionBitfields:
		if h.Info.BitCount != 16 && h.Info.BitCount != 32 {
			return nil, &UnsupportedError{"compression", int64(h.Info.Compression)}
		}
	default:
		return nil, &UnsupportedError{"compression", int64(h.Info.Compression)}
	}
	if h.Info.BitCount == 0 {
		return nil, &UnsupportedError{"bit count", 0}
	}
	if h.Info.BitCount <= 8 {
		if err := h.readPalette(b); err != nil {
			return nil, err
		}
	}
	if h.File.OffBits < FileHeaderSize+InfoHeaderSize {
		return nil, &UnsupportedError{"pixel offset", int64(h.File.OffBits)}
	}
	// The pixel array must be fully present; a truncated payload is never
	// padded.
	if need := int64(h.File.OffBits) + int64(h.Stride())*int64(h.Height()-1) + int64(h.RowSize()); need > int64(len(b)) {
		return nil, &TruncatedError{"pixel array", need, len(b)}
	}
	return h, nil
}

// Width is the number of pixels per row.
func (h *Header) Width() int {
	return int(h.Info.Width)
}

// Height is the number of rows, always positive.
func (h *Header) Height() int {
	if h.Info.Height < 0 {
		return int(-h.Info.Height)
	}
	return int(h.Info.Height)
}

// TopDown returns true when the first stored row is the top of the image.
func (h *Header) TopDown() bool {
	return h.Info.Height < 0
}

// BitCount is the number of bits per pixel.
func (h *Header) BitCount() int {
	return int(h.Info.BitCount)
}

// RowSize is the number of meaningful bytes in a row.
func (h *Header) RowSize() int {
	return (h.Width()*h.BitCount() + 7) / 8
}

// Stride is the distance in bytes between two stored rows; rows are padded
// to 4 bytes.
func (h *Header) Stride() int {
	return ((h.Width()*h.BitCount() + 31) / 32) * 4
}

// Row returns the pixel bytes of row y, counted from the top of the image.
//
// b must be the same bytes that were passed to Parse.
func (h *Header) Row(b []byte, y int) []byte {
	stored := y
	if !h.TopDown() {
		stored = h.Height() - 1 - y
	}
	off := int(h.File.OffBits) + stored*h.Stride()
	return b[off : off+h.RowSize()]
}

func (h *Header) readPalette(b []byte) error {
	n := int64(h.Info.ClrUsed)
	if n == 0 || n > 1<<h.Info.BitCount {
		n = 1 << h.Info.BitCount
	}
	start := int64(FileHeaderSize) + int64(h.Info.Size)
	if end := start + 4*n; end > int64(len(b)) {
		return &TruncatedError{"palette", end, len(b)}
	}
	h.Palette = make([]color.RGBA, n)
	for i := range h.Palette {
		p := b[start+4*int64(i):]
		// Stored as RGBQUAD: blue, green, red, reserved.
		h.Palette[i] = color.RGBA{R: p[2], G: p[1], B: p[0], A: 0xFF}
	}
	return nil
}
