// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import "fmt"

// Calibration converts a raw sensor count into a temperature in °C.
//
// Emissivity, reflected temperature, humidity and distance are not part of the
// conversion; they travel separately as Metadata.
type Calibration interface {
	Temperature(raw uint16) float64
}

// DefaultScale is the °C per raw count observed on the camera family.
const DefaultScale = 0.04

// Default is LinearScale{DefaultScale}.
var Default Calibration = LinearScale{Factor: DefaultScale}

// LinearScale is temperature = raw * Factor, without offset.
type LinearScale struct {
	Factor float64
}

// Temperature implements Calibration.
func (l LinearScale) Temperature(raw uint16) float64 {
	return float64(raw) * l.Factor
}

func (l LinearScale) String() string {
	return fmt.Sprintf("linear(%g°C/count)", l.Factor)
}
