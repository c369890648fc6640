// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bmt locates the two bitmaps embedded in a BMT container.
//
// A BMT file, as written by some handheld thermal cameras, has no header and no
// table of contents: it is the concatenation of BMP files. The first one
// usually holds the thermal channel as 16 bits raw sensor counts and the second
// one the visible light photo. The only way to find them is to scan for the
// "BM" signature and validate the length declared after each occurrence.
package bmt

import (
	"crypto/sha256"
	"encoding/hex"
)

// Decoder splits a container into its thermal and visual segments.
type Decoder interface {
	Decode(buf []byte) (*Container, error)
}

// Container is a decoded container.
//
// The segments are sub-slices of the decoded buffer.
type Container struct {
	Identity string // Identity of the source buffer.
	Size     int    // Length of the source buffer.
	Thermal  Segment
	Visual   Segment
	Method   Method
	Skipped  []Skipped // Candidates rejected by validation.
	Nested   []Segment // Valid candidates inside another segment.
	Ignored  []Segment // Extra top level segments.
}

// ScanDecoder decodes headerless containers by scanning for embedded bitmap
// signatures.
type ScanDecoder struct{}

// Decode implements Decoder.
func (ScanDecoder) Decode(buf []byte) (*Container, error) {
	s := NewScanner(buf)
	if _, ok := s.Next(); !ok {
		return nil, &SignatureNotFoundError{Length: len(buf)}
	}
	s.Reset()
	segs, skipped := Validate(buf, s)
	c, err := Classify(segs)
	if err != nil {
		if i, ok := err.(*InsufficientSegmentsError); ok {
			i.Skipped = skipped
		}
		return nil, err
	}
	return &Container{
		Identity: Identity(buf),
		Size:     len(buf),
		Thermal:  c.Thermal,
		Visual:   c.Visual,
		Method:   c.Method,
		Skipped:  skipped,
		Nested:   c.Nested,
		Ignored:  c.Ignored,
	}, nil
}

// Identity returns the content identity of a source buffer: the hex encoded
// SHA-256 of its bytes.
//
// Two buffers with the same bytes have the same identity, whatever their name.
func Identity(buf []byte) string {
	h := sha256.Sum256(buf)
	return hex.EncodeToString(h[:])
}
