// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmt

import (
	"bytes"
	"errors"
	"image"

	"github.com/maruel/go-bmt/thermal"
	"golang.org/x/image/bmp"
)

// Options configures Extract. The zero value is valid.
type Options struct {
	Decoder     Decoder             // Defaults to ScanDecoder.
	Calibration thermal.Calibration // Defaults to thermal.Default.
	Metadata    *thermal.Metadata   // Defaults to thermal.DefaultMetadata().
}

// Result is the outcome of Extract.
//
// A channel can fail while the other one succeeds; check HasThermal and
// HasVisual before using either.
type Result struct {
	Container  *Container
	Thermal    *thermal.Frame
	ThermalErr error // *ChannelError when Thermal is nil.
	Visual     image.Image
	VisualErr  error // *ChannelError when Visual is nil.
	Metadata   thermal.Metadata
}

// HasThermal returns true if the thermal channel was decoded.
func (r *Result) HasThermal() bool {
	return r.Thermal != nil
}

// HasVisual returns true if the visual channel was decoded.
func (r *Result) HasVisual() bool {
	return r.Visual != nil
}

// Partial returns true if exactly one channel failed.
func (r *Result) Partial() bool {
	return r.HasThermal() != r.HasVisual()
}

// Extract decodes both channels of the container in buf.
//
// It fails when the container framing cannot be decoded or when both channels
// fail to decode. buf must not be modified while the Result is in use.
func Extract(buf []byte, opts *Options) (*Result, error) {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	if o.Decoder == nil {
		o.Decoder = ScanDecoder{}
	}
	c, err := o.Decoder.Decode(buf)
	if err != nil {
		return nil, err
	}
	r := &Result{Container: c, Metadata: thermal.DefaultMetadata()}
	if o.Metadata != nil {
		r.Metadata = *o.Metadata
	}
	if r.Thermal, err = thermal.Decode(c.Thermal.Bytes, o.Calibration); err != nil {
		r.ThermalErr = channelErr(Thermal, c.Thermal, err)
	}
	if r.Visual, err = bmp.Decode(bytes.NewReader(c.Visual.Bytes)); err != nil {
		r.Visual = nil
		r.VisualErr = channelErr(Visual, c.Visual, err)
	}
	if r.ThermalErr != nil && r.VisualErr != nil {
		return nil, errors.Join(r.ThermalErr, r.VisualErr)
	}
	return r, nil
}

func channelErr(ch Channel, s Segment, err error) error {
	return &ChannelError{Channel: ch, Offset: s.Offset, DeclaredLength: s.DeclaredLength, Err: err}
}
