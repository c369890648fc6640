// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/maruel/go-bmt/palette"
	"github.com/maruel/go-bmt/thermal"
	"gopkg.in/yaml.v3"
)

// Config is the content of ~/.config/bmt/bmtd.yaml.
type Config struct {
	Port       int     `yaml:"port"`
	DB         string  `yaml:"db"`          // SQLite database; empty disables history.
	Watch      string  `yaml:"watch"`       // Inbox directory; empty disables watching.
	Palette    string  `yaml:"palette"`     // Palette pushed on /stream.
	Format     string  `yaml:"format"`      // png or bmp.
	Scale      float64 `yaml:"scale"`       // °C per raw count.
	Device     string  `yaml:"device"`      // Recorded in the metadata.
	MaxEntries int     `yaml:"max_entries"` // Cache bound; 0 is unbounded.
	MaxUpload  int64   `yaml:"max_upload"`  // Bytes.
}

func defaultConfig() Config {
	return Config{
		Port:       8010,
		Palette:    palette.Default,
		Format:     "png",
		Scale:      thermal.DefaultScale,
		Device:     "Unknown",
		MaxEntries: 256,
		MaxUpload:  64 << 20,
	}
}

func configPath() string {
	usr, err := user.Current()
	if err != nil {
		return filepath.Join(".config", "bmt", "bmtd.yaml")
	}
	return filepath.Join(usr.HomeDir, ".config", "bmt", "bmtd.yaml")
}

// loadConfig loads path or creates it with the defaults if none exists.
//
// The file is rewritten in normalized form when it differs. An invalid file is
// logged and the defaults are used.
func loadConfig(path string) *Config {
	c := defaultConfig()
	srcData, err := ioutil.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(srcData, &c); err != nil {
			log.Printf("%s is invalid yaml: %s", path, err)
			c = defaultConfig()
		}
	}
	data, err := yaml.Marshal(&c)
	if err != nil {
		panic(err)
	}
	if !bytes.Equal(srcData, data) {
		if err := writeConfigFile(path, data); err != nil {
			log.Printf("%s", err)
		}
	}
	return &c
}

func writeConfigFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := ioutil.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides the config with BMTD_PORT, BMTD_DB and BMTD_WATCH.
//
// Variables found in envFile are loaded first, without overriding the ones
// already set. A missing envFile is ignored.
func (c *Config) applyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", envFile, err)
		}
	}
	if v := os.Getenv("BMTD_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BMTD_PORT: %w", err)
		}
		c.Port = p
	}
	if v, ok := os.LookupEnv("BMTD_DB"); ok {
		c.DB = v
	}
	if v, ok := os.LookupEnv("BMTD_WATCH"); ok {
		c.Watch = v
	}
	return nil
}
