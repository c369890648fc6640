// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bmt extracts the thermal and visual images of a BMT file.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/maruel/go-bmt/bmt"
	"github.com/maruel/go-bmt/render"
	"github.com/maruel/go-bmt/rendercache"
	"github.com/maruel/go-bmt/store"
	"github.com/maruel/go-bmt/thermal"
)

type options struct {
	palettes []string
	outDir   string
	format   render.Format
	csv      bool
	json     bool
	scale    float64
	device   string
	db       string
}

// extract writes the artifacts of the file path and returns their paths.
//
// Warnings, like an unknown palette or a channel that failed to decode, are
// written to stderr.
func extract(path string, o *options, stderr io.Writer) ([]string, error) {
	src, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta := thermal.DefaultMetadata()
	if o.device != "" {
		meta.Device = o.device
	}
	if fi, err := os.Stat(path); err == nil {
		meta.CapturedAt = fi.ModTime().UTC()
	}
	c := rendercache.New(&rendercache.Options{
		Extract: &bmt.Options{Calibration: thermal.LinearScale{Factor: o.scale}, Metadata: &meta},
		Format:  o.format,
	})
	r, err := c.Put(src)
	if err != nil {
		return nil, err
	}
	log.Printf("%s: %s; thermal %s, visual %s", path, r.Container.Method, r.Container.Thermal, r.Container.Visual)
	for _, s := range r.Container.Skipped {
		log.Printf("skipped: %s", s.Err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dir := o.outDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var out []string
	write := func(name string, data []byte) error {
		p := filepath.Join(dir, base+"_"+name)
		if err := ioutil.WriteFile(p, data, 0o644); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	}

	if r.HasThermal() {
		done := map[string]bool{}
		for _, name := range o.palettes {
			img, err := c.GetOrRender(r.Container.Identity, name)
			if err != nil {
				return out, err
			}
			if img.Warning != nil {
				fmt.Fprintf(stderr, "warning: %s\n", img.Warning)
			}
			if done[img.Palette] {
				continue
			}
			done[img.Palette] = true
			if err := write("thermal_"+img.Palette+o.format.Ext(), img.Data); err != nil {
				return out, err
			}
		}
		if o.csv {
			buf := strings.Builder{}
			if err := r.Thermal.WriteCSV(&buf, &r.Metadata); err != nil {
				return out, err
			}
			if err := write("temperature.csv", []byte(buf.String())); err != nil {
				return out, err
			}
		}
	} else {
		fmt.Fprintf(stderr, "warning: %s\n", r.ThermalErr)
	}

	if r.HasVisual() {
		img, err := render.Visual(r.Visual, o.format)
		if err != nil {
			return out, err
		}
		if err := write("visual"+o.format.Ext(), img.Data); err != nil {
			return out, err
		}
	} else {
		fmt.Fprintf(stderr, "warning: %s\n", r.VisualErr)
	}

	sum := r.Summary()
	if o.json {
		data, err := json.MarshalIndent(sum, "", "  ")
		if err != nil {
			return out, err
		}
		if err := write("output.json", append(data, '\n')); err != nil {
			return out, err
		}
	}
	if o.db != "" {
		s, err := store.Open(o.db)
		if err != nil {
			return out, err
		}
		defer s.Close()
		id, err := s.Save(context.Background(), sum)
		if err != nil {
			return out, err
		}
		log.Printf("saved run %s", id)
	}
	return out, nil
}

func mainImpl() error {
	palettes := flag.String("palette", "iron", "comma separated palettes to render")
	outDir := flag.String("out", "", "output directory; defaults to the directory of the input")
	format := flag.String("format", "png", "image format: png or bmp")
	csv := flag.Bool("csv", false, "export the temperature matrix as CSV")
	js := flag.Bool("json", false, "write a JSON summary")
	scale := flag.Float64("scale", thermal.DefaultScale, "°C per raw count")
	device := flag.String("device", "", "device name recorded in the exports")
	db := flag.String("db", "", "SQLite database to record the extraction in")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if flag.NArg() != 1 {
		return errors.New("supply path to the .bmt file to extract")
	}
	f, err := render.ParseFormat(*format)
	if err != nil {
		return err
	}
	if *scale <= 0 {
		return fmt.Errorf("invalid -scale %g", *scale)
	}
	o := &options{
		palettes: strings.Split(*palettes, ","),
		outDir:   *outDir,
		format:   f,
		csv:      *csv,
		json:     *js,
		scale:    *scale,
		device:   *device,
		db:       *db,
	}
	files, err := extract(flag.Arg(0), o, os.Stderr)
	for _, p := range files {
		fmt.Printf("%s\n", p)
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nbmt: %s.\n", err)
		os.Exit(1)
	}
}
