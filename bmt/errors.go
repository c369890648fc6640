// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmt

import (
	"fmt"
	"strings"
)

// SignatureNotFoundError is returned when the buffer holds no "BM" marker at
// all. Nothing can be extracted.
type SignatureNotFoundError struct {
	Length int // Length of the buffer scanned.
}

func (s *SignatureNotFoundError) Error() string {
	return fmt.Sprintf("bmt: no %q signature in %d bytes", Signature, s.Length)
}

// SegmentTruncatedError is recorded when a signature is too close to the end
// of the buffer for its length field to be read.
type SegmentTruncatedError struct {
	Offset int
	Length int // Length of the buffer.
}

func (s *SegmentTruncatedError) Error() string {
	return fmt.Sprintf("bmt: signature at offset %d: length field past end of %d bytes buffer", s.Offset, s.Length)
}

// SegmentTooSmallError is recorded when the declared length cannot hold the
// embedded bitmap headers.
type SegmentTooSmallError struct {
	Offset   int
	Declared uint32
}

func (s *SegmentTooSmallError) Error() string {
	return fmt.Sprintf("bmt: signature at offset %d: declared length %d is below %d", s.Offset, s.Declared, MinSegmentSize)
}

// SegmentOutOfBoundsError is recorded when the declared length extends past
// the end of the buffer.
type SegmentOutOfBoundsError struct {
	Offset   int
	Declared uint32
	Length   int // Length of the buffer.
}

func (s *SegmentOutOfBoundsError) Error() string {
	return fmt.Sprintf("bmt: signature at offset %d: declared length %d ends at %d, past %d bytes buffer", s.Offset, s.Declared, uint64(s.Offset)+uint64(s.Declared), s.Length)
}

// InsufficientSegmentsError is returned when less than two segments survived
// validation.
type InsufficientSegmentsError struct {
	Found   int
	Skipped []Skipped // Candidates that were rejected, to help diagnosis.
}

func (i *InsufficientSegmentsError) Error() string {
	if len(i.Skipped) == 0 {
		return fmt.Sprintf("bmt: expected 2 embedded bitmaps, found %d", i.Found)
	}
	offsets := make([]string, len(i.Skipped))
	for j, s := range i.Skipped {
		offsets[j] = fmt.Sprint(s.Offset)
	}
	return fmt.Sprintf("bmt: expected 2 embedded bitmaps, found %d; skipped candidates at offsets %s", i.Found, strings.Join(offsets, ","))
}

// ChannelError is returned when one channel of the container failed to
// decode. It locates the segment that failed.
type ChannelError struct {
	Channel        Channel
	Offset         int
	DeclaredLength int
	Err            error
}

func (c *ChannelError) Error() string {
	return fmt.Sprintf("bmt: %s channel at offset %d (%d bytes): %s", c.Channel, c.Offset, c.DeclaredLength, c.Err)
}

func (c *ChannelError) Unwrap() error {
	return c.Err
}
