// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maruel/go-bmt/bmt"
	"github.com/maruel/go-bmt/bmttest"
	"github.com/maruel/go-bmt/render"
	"github.com/maruel/go-bmt/store"
)

func writeInput(t *testing.T, data []byte) string {
	p := filepath.Join(t.TempDir(), "IR_0001.bmt")
	if err := ioutil.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestExtract(t *testing.T) {
	in := writeInput(t, bmttest.Container(bmttest.Fill16(10, 10, 30000), bmttest.Solid24(10, 10, bmttest.Red)))
	out := t.TempDir()
	db := filepath.Join(t.TempDir(), "bmt.db")
	o := &options{
		palettes: []string{"iron", "rainbow", "nope"},
		outDir:   out,
		format:   render.PNG,
		csv:      true,
		json:     true,
		scale:    0.04,
		device:   "bench",
		db:       db,
	}
	stderr := bytes.Buffer{}
	files, err := extract(in, o, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"IR_0001_thermal_iron.png",
		"IR_0001_thermal_rainbow.png",
		"IR_0001_temperature.csv",
		"IR_0001_visual.png",
		"IR_0001_output.json",
	}
	if len(files) != len(want) {
		t.Fatal(files)
	}
	for i, f := range files {
		if f != filepath.Join(out, want[i]) {
			t.Fatalf("%s != %s", f, want[i])
		}
	}
	if !strings.Contains(stderr.String(), `unknown palette "nope"`) {
		t.Fatal(stderr.String())
	}

	f, err := os.Open(files[3])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, g, b, _ := img.At(9, 9).RGBA(); r != 0xFFFF || g != 0 || b != 0 {
		t.Fatal(r, g, b)
	}

	data, err := ioutil.ReadFile(files[4])
	if err != nil {
		t.Fatal(err)
	}
	sum := bmt.Summary{}
	if err := json.Unmarshal(data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Thermal.Stats.Min != 1200 || sum.Thermal.Stats.Avg != 1200 || sum.Metadata.Device != "bench" {
		t.Fatalf("%+v", sum)
	}

	csv, err := ioutil.ReadFile(files[2])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(csv), "9,9,1200.00\n") {
		t.Fatal(string(csv))
	}

	s, err := store.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Latest(context.Background(), sum.Identity); err != nil {
		t.Fatal(err)
	}
}

func TestExtract_partial(t *testing.T) {
	bad := bmttest.SetBitCount(bmttest.Fill16(2, 2, 1), 1)
	in := writeInput(t, bmttest.Container(bad, bmttest.Solid24(2, 2, bmttest.Red)))
	stderr := bytes.Buffer{}
	files, err := extract(in, &options{palettes: []string{"iron"}, outDir: t.TempDir(), scale: 0.04}, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || !strings.HasSuffix(files[0], "_visual.png") {
		t.Fatal(files)
	}
	if !strings.Contains(stderr.String(), "unsupported bit depth 1") {
		t.Fatal(stderr.String())
	}
}

func TestExtract_fail(t *testing.T) {
	in := writeInput(t, []byte("nothing to see"))
	out := t.TempDir()
	files, err := extract(in, &options{palettes: []string{"iron"}, outDir: out, scale: 0.04}, ioutil.Discard)
	var s *bmt.SignatureNotFoundError
	if !errors.As(err, &s) || len(files) != 0 {
		t.Fatal(files, err)
	}
	entries, err := ioutil.ReadDir(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatal("no artifact must be written")
	}
}
