// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmt

import (
	"github.com/maruel/go-bmt/dib"
)

// Channel identifies one of the two images of a container.
type Channel int

// Valid values for Channel.
const (
	Thermal Channel = 0
	Visual  Channel = 1
)

func (c Channel) String() string {
	switch c {
	case Thermal:
		return "thermal"
	case Visual:
		return "visual"
	default:
		return "unknown"
	}
}

// Method tells how the channels were assigned.
type Method int

// Valid values for Method.
const (
	// Ordinal means the first segment was taken as thermal and the second as
	// visual, since the payloads didn't tell them apart.
	Ordinal Method = 0
	// Sniffed means the bit depths identified a raw counts payload and a
	// photo.
	Sniffed Method = 1
)

func (m Method) String() string {
	if m == Sniffed {
		return "sniffed"
	}
	return "ordinal"
}

// Classification is the result of Classify.
type Classification struct {
	Thermal Segment
	Visual  Segment
	Method  Method
	Nested  []Segment // Valid segments lying inside an earlier segment.
	Ignored []Segment // Top level segments after the first two.
}

// Classify assigns the thermal and visual channels from the validated
// segments, in scan order.
//
// A segment starting inside an earlier accepted segment is payload of that
// segment that happened to look like a bitmap; it is set aside in Nested. Only
// the first two top level segments are considered. When one of them holds
// 16 bits raw counts and the other a 24 or 32 bits photo, they are assigned by
// content; otherwise the first is thermal and the second visual.
func Classify(segs []Segment) (*Classification, error) {
	c := &Classification{}
	var top []Segment
	end := 0
	for _, s := range segs {
		if len(top) != 0 && s.Offset < end {
			c.Nested = append(c.Nested, s)
			continue
		}
		top = append(top, s)
		end = s.End()
	}
	if len(top) < 2 {
		return nil, &InsufficientSegmentsError{Found: len(top)}
	}
	c.Ignored = top[2:]
	a, b := sniff(top[0]), sniff(top[1])
	switch {
	case a == payloadRaw && b == payloadPhoto:
		c.Thermal, c.Visual, c.Method = top[0], top[1], Sniffed
	case a == payloadPhoto && b == payloadRaw:
		c.Thermal, c.Visual, c.Method = top[1], top[0], Sniffed
	default:
		c.Thermal, c.Visual, c.Method = top[0], top[1], Ordinal
	}
	return c, nil
}

type payload int

const (
	payloadUnknown payload = iota
	payloadRaw
	payloadPhoto
)

func sniff(s Segment) payload {
	h, err := dib.Parse(s.Bytes)
	if err != nil {
		return payloadUnknown
	}
	switch h.BitCount() {
	case 16:
		return payloadRaw
	case 24, 32:
		return payloadPhoto
	default:
		// 8 bits may be either a rendered thermal image or a photo.
		return payloadUnknown
	}
}
