// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package thermal

import (
	"encoding/json"
	"time"

	"periph.io/x/periph/conn/physic"
)

// Metadata is the measurement context recorded with a frame.
//
// None of it is used by Calibration; it is carried as is to the summary and
// the exports.
type Metadata struct {
	Device        string
	Serial        uint32
	CapturedAt    time.Time
	Emissivity    float64                 // [0, 1]
	ReflectedTemp physic.Temperature      //
	Humidity      physic.RelativeHumidity //
	Distance      physic.Distance         // Distance to the target.
}

// DefaultMetadata returns the values used by the camera software when the
// operator didn't set any.
func DefaultMetadata() Metadata {
	return Metadata{
		Device:        "Unknown",
		Emissivity:    0.95,
		ReflectedTemp: physic.ZeroCelsius + 20*physic.Celsius,
		Humidity:      50 * physic.PercentRH,
		Distance:      physic.Metre,
	}
}

type metadataJSON struct {
	Device          string    `json:"device"`
	Serial          uint32    `json:"serial"`
	CapturedAt      time.Time `json:"captured_at"`
	Emissivity      float64   `json:"emissivity"`
	ReflectedTempC  float64   `json:"reflected_temp"`
	HumidityPercent float64   `json:"humidity"`
	DistanceM       float64   `json:"distance"`
}

// MarshalJSON encodes the physical values as plain numbers in °C, % and m.
func (m Metadata) MarshalJSON() ([]byte, error) {
	return json.Marshal(&metadataJSON{
		Device:          m.Device,
		Serial:          m.Serial,
		CapturedAt:      m.CapturedAt,
		Emissivity:      m.Emissivity,
		ReflectedTempC:  ToCelsius(m.ReflectedTemp),
		HumidityPercent: float64(m.Humidity) / float64(physic.PercentRH),
		DistanceM:       float64(m.Distance) / float64(physic.Metre),
	})
}

// UnmarshalJSON is the reverse of MarshalJSON.
func (m *Metadata) UnmarshalJSON(b []byte) error {
	j := metadataJSON{}
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	m.Device = j.Device
	m.Serial = j.Serial
	m.CapturedAt = j.CapturedAt
	m.Emissivity = j.Emissivity
	m.ReflectedTemp = FromCelsius(j.ReflectedTempC)
	m.Humidity = physic.RelativeHumidity(j.HumidityPercent * float64(physic.PercentRH))
	m.Distance = physic.Distance(j.DistanceM * float64(physic.Metre))
	return nil
}

// ToCelsius converts t to °C.
func ToCelsius(t physic.Temperature) float64 {
	return float64(t-physic.ZeroCelsius) / float64(physic.Celsius)
}

// FromCelsius converts c in °C to a physic.Temperature.
func FromCelsius(c float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(c*float64(physic.Celsius))
}
