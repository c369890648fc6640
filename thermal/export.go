// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteCSV writes the matrix as one "Y,X,Temperature" line per pixel, in row
// order, preceded by '#' comment lines describing the frame.
//
// m may be nil.
func (f *Frame) WriteCSV(w io.Writer, m *Metadata) error {
	bw := bufio.NewWriter(w)
	unit := "°C"
	if f.Kind != Radiometric {
		unit = "relative intensity"
	}
	fmt.Fprintf(bw, "# Temperature Data Export\n")
	if m != nil {
		fmt.Fprintf(bw, "# Device: %s\n", m.Device)
		if !m.CapturedAt.IsZero() {
			fmt.Fprintf(bw, "# Timestamp: %s\n", m.CapturedAt.UTC().Format(time.RFC3339))
		}
	}
	fmt.Fprintf(bw, "# Size: %dx%d\n", f.Width, f.Height)
	fmt.Fprintf(bw, "# Unit: %s\n", unit)
	c := csv.NewWriter(bw)
	if err := c.Write([]string{"Y", "X", "Temperature"}); err != nil {
		return err
	}
	line := make([]string, 3)
	for y, row := range f.Temperature {
		line[0] = strconv.Itoa(y)
		for x, t := range row {
			line[1] = strconv.Itoa(x)
			line[2] = strconv.FormatFloat(t, 'f', 2, 64)
			if err := c.Write(line); err != nil {
				return err
			}
		}
	}
	c.Flush()
	if err := c.Error(); err != nil {
		return err
	}
	fmt.Fprintf(bw, "# Statistics: Min=%.2f, Max=%.2f, Avg=%.2f\n", f.Stats.Min, f.Stats.Max, f.Stats.Avg)
	return bw.Flush()
}
