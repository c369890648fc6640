// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bmt

import (
	"image"

	"github.com/maruel/go-bmt/thermal"
)

// Summary is the JSON description of an extraction, as written next to the
// rendered images and handed to the store.
type Summary struct {
	Identity string           `json:"identity"`
	Size     int              `json:"size"`
	Method   string           `json:"method"`
	Thermal  *ThermalSummary  `json:"thermal,omitempty"`
	Visual   *VisualSummary   `json:"visual,omitempty"`
	Metadata thermal.Metadata `json:"metadata"`
	Skipped  []SkippedSummary `json:"skipped,omitempty"`
	Errors   []string         `json:"errors,omitempty"`
}

// ThermalSummary describes the thermal channel.
type ThermalSummary struct {
	Offset  int           `json:"offset"`
	Width   int           `json:"width"`
	Height  int           `json:"height"`
	Kind    string        `json:"kind"`
	Stats   thermal.Stats `json:"stats"`
	Hottest image.Point   `json:"hottest"`
	Coldest image.Point   `json:"coldest"`
}

// VisualSummary describes the visual channel.
type VisualSummary struct {
	Offset int `json:"offset"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SkippedSummary is a rejected candidate.
type SkippedSummary struct {
	Offset int    `json:"offset"`
	Reason string `json:"reason"`
}

// Summary returns the summary of the extraction.
func (r *Result) Summary() *Summary {
	c := r.Container
	s := &Summary{
		Identity: c.Identity,
		Size:     c.Size,
		Method:   c.Method.String(),
		Metadata: r.Metadata,
	}
	if f := r.Thermal; f != nil {
		s.Thermal = &ThermalSummary{
			Offset:  c.Thermal.Offset,
			Width:   f.Width,
			Height:  f.Height,
			Kind:    f.Kind.String(),
			Stats:   f.Stats,
			Hottest: f.Hottest(),
			Coldest: f.Coldest(),
		}
	} else {
		s.Errors = append(s.Errors, r.ThermalErr.Error())
	}
	if r.Visual != nil {
		b := r.Visual.Bounds()
		s.Visual = &VisualSummary{Offset: c.Visual.Offset, Width: b.Dx(), Height: b.Dy()}
	} else {
		s.Errors = append(s.Errors, r.VisualErr.Error())
	}
	for _, k := range c.Skipped {
		s.Skipped = append(s.Skipped, SkippedSummary{Offset: k.Offset, Reason: k.Err.Error()})
	}
	return s
}
