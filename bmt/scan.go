// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmt

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/maruel/go-bmt/dib"
)

// Signature starts every embedded bitmap.
const Signature = "BM"

// MinSegmentSize is the smallest declared length accepted for a segment.
const MinSegmentSize = dib.MinSize

var signature = []byte(Signature)

// Scanner yields, in order, the offsets where Signature occurs in a buffer.
//
// Matches are candidates only, they are not validated. A Scanner is not safe
// for concurrent use; create one per goroutine, they are cheap.
type Scanner struct {
	buf []byte
	pos int
}

// NewScanner returns a Scanner positioned at the start of buf.
func NewScanner(buf []byte) *Scanner {
	return &Scanner{buf: buf}
}

// Next returns the next candidate offset, or false once the buffer is
// exhausted.
func (s *Scanner) Next() (int, bool) {
	if s.pos >= len(s.buf) {
		return 0, false
	}
	i := bytes.Index(s.buf[s.pos:], signature)
	if i < 0 {
		s.pos = len(s.buf)
		return 0, false
	}
	off := s.pos + i
	// "BM" cannot overlap itself.
	s.pos = off + len(signature)
	return off, true
}

// Reset restarts the scan from the start of the buffer.
func (s *Scanner) Reset() {
	s.pos = 0
}

// Offsets returns all the candidate offsets in buf.
func Offsets(buf []byte) []int {
	var out []int
	s := NewScanner(buf)
	for off, ok := s.Next(); ok; off, ok = s.Next() {
		out = append(out, off)
	}
	return out
}

// Segment is one embedded bitmap found in a container.
//
// Bytes is a sub-slice of the scanned buffer; it must not be modified.
type Segment struct {
	Offset         int
	DeclaredLength int
	Bytes          []byte
}

// End returns the offset just past the segment.
func (s Segment) End() int {
	return s.Offset + s.DeclaredLength
}

func (s Segment) String() string {
	return fmt.Sprintf("[%d, %d)", s.Offset, s.End())
}

// Skipped is a candidate that failed validation.
type Skipped struct {
	Offset int
	Err    error // One of *SegmentTruncatedError, *SegmentTooSmallError or *SegmentOutOfBoundsError.
}

// ValidateAt validates the candidate at offset off in buf.
func ValidateAt(buf []byte, off int) (Segment, error) {
	if off < 0 || len(buf)-off < len(signature)+4 {
		return Segment{}, &SegmentTruncatedError{Offset: off, Length: len(buf)}
	}
	declared := binary.LittleEndian.Uint32(buf[off+len(signature):])
	if declared < MinSegmentSize {
		return Segment{}, &SegmentTooSmallError{Offset: off, Declared: declared}
	}
	if uint64(off)+uint64(declared) > uint64(len(buf)) {
		return Segment{}, &SegmentOutOfBoundsError{Offset: off, Declared: declared, Length: len(buf)}
	}
	end := off + int(declared)
	return Segment{Offset: off, DeclaredLength: int(declared), Bytes: buf[off:end:end]}, nil
}

// Validate consumes every candidate from s and returns the valid segments in
// scan order, along with the rejected candidates.
//
// A rejected candidate never stops the scan.
func Validate(buf []byte, s *Scanner) ([]Segment, []Skipped) {
	var segs []Segment
	var skipped []Skipped
	for off, ok := s.Next(); ok; off, ok = s.Next() {
		seg, err := ValidateAt(buf, off)
		if err != nil {
			skipped = append(skipped, Skipped{Offset: off, Err: err})
			continue
		}
		segs = append(segs, seg)
	}
	return segs, skipped
}
