// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bmt", "bmtd.yaml")
	c := loadConfig(p)
	if *c != defaultConfig() {
		t.Fatalf("%+v", c)
	}
	// The defaults were written.
	data, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "port: 8010\n") {
		t.Fatal(string(data))
	}

	if err := ioutil.WriteFile(p, []byte("port: 9000\npalette: lava\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c = loadConfig(p)
	if c.Port != 9000 || c.Palette != "lava" || c.Format != "png" {
		t.Fatalf("%+v", c)
	}
	// Normalized: the missing fields were added.
	if data, err = ioutil.ReadFile(p); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "format: png\n") || !strings.Contains(string(data), "port: 9000\n") {
		t.Fatal(string(data))
	}

	if err := ioutil.WriteFile(p, []byte("port: [\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if c = loadConfig(p); *c != defaultConfig() {
		t.Fatalf("%+v", c)
	}
}

func TestApplyEnv(t *testing.T) {
	for _, k := range []string{"BMTD_PORT", "BMTD_DB", "BMTD_WATCH"} {
		if _, ok := os.LookupEnv(k); ok {
			t.Skipf("%s is set", k)
		}
		k := k
		t.Cleanup(func() { os.Unsetenv(k) })
	}
	env := filepath.Join(t.TempDir(), ".env")
	if err := ioutil.WriteFile(env, []byte("BMTD_PORT=9123\nBMTD_WATCH=/srv/inbox\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c := defaultConfig()
	if err := c.applyEnv(env); err != nil {
		t.Fatal(err)
	}
	if c.Port != 9123 || c.Watch != "/srv/inbox" || c.DB != "" {
		t.Fatalf("%+v", c)
	}

	// The process environment wins over the file.
	os.Setenv("BMTD_DB", "/var/lib/bmt.db")
	os.Setenv("BMTD_PORT", "nope")
	c = defaultConfig()
	if err := c.applyEnv(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected BMTD_PORT error")
	}
	os.Setenv("BMTD_PORT", "8000")
	if err := c.applyEnv(env); err != nil {
		t.Fatal(err)
	}
	if c.Port != 8000 || c.DB != "/var/lib/bmt.db" {
		t.Fatalf("%+v", c)
	}
}
