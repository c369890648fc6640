// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dib_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/maruel/go-bmt/bmttest"
	"github.com/maruel/go-bmt/dib"
	"golang.org/x/image/bmp"
)

func TestParse_raw16(t *testing.T) {
	b := bmttest.Raw16(3, 2, func(x, y int) uint16 { return uint16(10*y + x) })
	h, err := dib.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if h.Width() != 3 || h.Height() != 2 || h.BitCount() != 16 || h.TopDown() {
		t.Fatalf("%+v", h.Info)
	}
	if h.RowSize() != 6 || h.Stride() != 8 {
		t.Fatal(h.RowSize(), h.Stride())
	}
	for y := 0; y < 2; y++ {
		row := h.Row(b, y)
		for x := 0; x < 3; x++ {
			if v := binary.LittleEndian.Uint16(row[2*x:]); v != uint16(10*y+x) {
				t.Fatalf("(%d,%d) = %d", x, y, v)
			}
		}
	}
}

func TestParse_gray8(t *testing.T) {
	b := bmttest.Gray8(4, 4, func(x, y int) uint8 { return uint8(x * 60) })
	h, err := dib.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	if h.BitCount() != 8 || len(h.Palette) != 256 {
		t.Fatal(h.BitCount(), len(h.Palette))
	}
	if p := h.Palette[120]; p.R != 120 || p.G != 120 || p.B != 120 {
		t.Fatal(p)
	}
	if row := h.Row(b, 0); row[2] != 120 {
		t.Fatal(row)
	}
}

// The header fields read here must agree with an independent decoder.
func TestParse_agreesWithXImage(t *testing.T) {
	data := [][]byte{
		bmttest.Solid24(10, 7, bmttest.Red),
		bmttest.Gray8(5, 9, func(x, y int) uint8 { return uint8(y) }),
	}
	for i, b := range data {
		h, err := dib.Parse(b)
		if err != nil {
			t.Fatal(i, err)
		}
		cfg, err := bmp.DecodeConfig(bytes.NewReader(b))
		if err != nil {
			t.Fatal(i, err)
		}
		if cfg.Width != h.Width() || cfg.Height != h.Height() {
			t.Fatalf("#%d: %dx%d != %dx%d", i, cfg.Width, cfg.Height, h.Width(), h.Height())
		}
	}
}

func TestParse_fail(t *testing.T) {
	valid := bmttest.Fill16(4, 4, 1)
	data := []struct {
		name string
		b    []byte
	}{
		{"short", valid[:dib.MinSize-1]},
		{"signature", append([]byte("XM"), valid[2:]...)},
		{"truncated pixels", valid[:len(valid)-1]},
		{"bitfields on 24", bmttest.SetBitCount(setCompression(clone(valid), dib.CompressionBitfields), 24)},
		{"rle", setCompression(clone(valid), 1)},
		{"zero width", setInt32(clone(valid), 4, 0)},
		{"zero height", setInt32(clone(valid), 8, 0)},
		{"bad offset", setOffBits(clone(valid), 10)},
	}
	for _, line := range data {
		if _, err := dib.Parse(line.b); err == nil {
			t.Fatalf("%s: expected failure", line.name)
		}
	}
	var terr *dib.TruncatedError
	if _, err := dib.Parse(valid[:len(valid)-1]); !errors.As(err, &terr) {
		t.Fatal(err)
	}
	if _, err := dib.Parse(append([]byte("XM"), valid[2:]...)); err != dib.ErrSignature {
		t.Fatal(err)
	}
}

func TestParse_topDown(t *testing.T) {
	b := bmttest.Raw16(2, 2, func(x, y int) uint16 { return uint16(y) })
	// Flip the rows in place and mark the bitmap as top-down.
	h, err := dib.Parse(b)
	if err != nil {
		t.Fatal(err)
	}
	top := append([]byte(nil), h.Row(b, 0)...)
	bottom := append([]byte(nil), h.Row(b, 1)...)
	setInt32(b, 8, -2)
	off := int(h.File.OffBits)
	copy(b[off:], top)
	copy(b[off+h.Stride():], bottom)
	if h, err = dib.Parse(b); err != nil {
		t.Fatal(err)
	}
	if !h.TopDown() || h.Height() != 2 {
		t.Fatal(h.Info.Height)
	}
	if v := binary.LittleEndian.Uint16(h.Row(b, 1)); v != 1 {
		t.Fatal(v)
	}
}

//

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

func setCompression(b []byte, c uint32) []byte {
	binary.LittleEndian.PutUint32(b[dib.FileHeaderSize+16:], c)
	return b
}

func setInt32(b []byte, infoOffset int, v int32) []byte {
	binary.LittleEndian.PutUint32(b[dib.FileHeaderSize+infoOffset:], uint32(v))
	return b
}

func setOffBits(b []byte, v uint32) []byte {
	binary.LittleEndian.PutUint32(b[10:], v)
	return b
}
