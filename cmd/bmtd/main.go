// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// bmtd serves the images extracted from BMT files over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/maruel/go-bmt/bmt"
	"github.com/maruel/go-bmt/render"
	"github.com/maruel/go-bmt/rendercache"
	"github.com/maruel/go-bmt/store"
	"github.com/maruel/go-bmt/thermal"
	"github.com/maruel/interrupt"
	"gopkg.in/yaml.v3"
)

func mainImpl() error {
	config := flag.String("config", configPath(), "path to the YAML config file")
	envFile := flag.String("env", ".env", "file with BMTD_* environment overrides")
	port := flag.Int("port", 0, "http port to listen on; overrides the config")
	watch := flag.String("watch", "", "directory to ingest .bmt files from; overrides the config")
	writeConfig := flag.Bool("writeConfig", false, "write the default config file and exit")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)

	if len(flag.Args()) != 0 {
		return fmt.Errorf("unexpected argument: %s", flag.Args())
	}
	if *writeConfig {
		c := defaultConfig()
		data, err := yaml.Marshal(&c)
		if err != nil {
			return err
		}
		return writeConfigFile(*config, data)
	}

	interrupt.HandleCtrlC()

	c := loadConfig(*config)
	if err := c.applyEnv(*envFile); err != nil {
		return err
	}
	if *port != 0 {
		c.Port = *port
	}
	if *watch != "" {
		c.Watch = *watch
	}
	if c.Scale <= 0 {
		return fmt.Errorf("invalid scale %g", c.Scale)
	}
	f, err := render.ParseFormat(c.Format)
	if err != nil {
		return err
	}

	var st *store.Store
	if c.DB != "" {
		if st, err = store.Open(c.DB); err != nil {
			return err
		}
		defer st.Close()
	}
	meta := thermal.DefaultMetadata()
	meta.Device = c.Device
	cache := rendercache.New(&rendercache.Options{
		Extract:    &bmt.Options{Calibration: thermal.LinearScale{Factor: c.Scale}, Metadata: &meta},
		Format:     f,
		MaxEntries: c.MaxEntries,
	})
	s, err := newWebServer(c, cache, st)
	if err != nil {
		return err
	}
	defer s.Close()

	errs := make(chan error, 2)
	if c.Watch != "" {
		if err := startInbox(c.Watch, s, interrupt.Channel, errs); err != nil {
			return err
		}
		fmt.Printf("Watching %s\n", c.Watch)
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", c.Port), Handler: s}
	fmt.Printf("Listening on %d\n", c.Port)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	select {
	case <-interrupt.Channel:
	case err = <-errs:
	}
	s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err2 := srv.Shutdown(ctx); err == nil {
		err = err2
	}
	return err
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "\nbmtd: %s.\n", err)
		os.Exit(1)
	}
}
