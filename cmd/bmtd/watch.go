// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"io/ioutil"
	"log"
	"path/filepath"
	"strings"

	"github.com/maruel/go-bmt/bmt"
	fsnotify "gopkg.in/fsnotify.v1"
)

// inbox ingests the .bmt files dropped in a directory.
type inbox struct {
	dir     string
	watcher *fsnotify.Watcher
	seen    map[string]string // path -> identity of the last ingested content.
}

func newInbox(dir string) (*inbox, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err = watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	return &inbox{dir: dir, watcher: watcher, seen: map[string]string{}}, nil
}

// startInbox ingests the .bmt files of dir into s in the background until done
// fires. The outcome of the watch is sent to errs.
func startInbox(dir string, s *WebServer, done <-chan bool, errs chan<- error) error {
	in, err := newInbox(dir)
	if err != nil {
		return err
	}
	go func() {
		errs <- in.run(s, done)
	}()
	return nil
}

// run ingests the files already present, then every file created or modified
// until done fires.
func (i *inbox) run(s *WebServer, done <-chan bool) error {
	defer i.watcher.Close()
	if entries, err := ioutil.ReadDir(i.dir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				i.ingest(s, filepath.Join(i.dir, e.Name()))
			}
		}
	}
	for {
		select {
		case <-done:
			return nil
		case err := <-i.watcher.Errors:
			return err
		case e, ok := <-i.watcher.Events:
			if !ok {
				return nil
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				i.ingest(s, e.Name)
			}
		}
	}
}

func (i *inbox) ingest(s *WebServer, path string) {
	if !strings.EqualFold(filepath.Ext(path), ".bmt") {
		return
	}
	buf, err := ioutil.ReadFile(path)
	if err != nil {
		log.Printf("inbox: %s", err)
		return
	}
	id := bmt.Identity(buf)
	if i.seen[path] == id {
		return
	}
	if _, err := s.ingest(context.Background(), buf); err != nil {
		// Likely still being written; the next event retries.
		log.Printf("inbox: %s: %s", path, err)
		return
	}
	i.seen[path] = id
	log.Printf("inbox: %s: %s", path, id)
}
