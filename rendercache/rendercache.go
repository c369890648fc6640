// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rendercache memoizes extractions and renderings by content
// identity.
//
// A Cache is an explicit value; create one per server or tool and share it.
// It is safe for concurrent use.
package rendercache

import (
	"errors"
	"sync/atomic"

	"github.com/maruel/go-bmt/bmt"
	"github.com/maruel/go-bmt/palette"
	"github.com/maruel/go-bmt/render"
)

// ErrUnknownSource is returned when an identity was never registered with
// Put, or was evicted.
var ErrUnknownSource = errors.New("rendercache: unknown source")

// Options configures a Cache. The zero value is valid.
type Options struct {
	Extract    *bmt.Options  // Passed to bmt.Extract.
	Format     render.Format // Encoding of renderings.
	MaxEntries int           // Bound for each of sources and renderings; 0 is unbounded.
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Sources  int   `json:"sources"`
	Rendered int   `json:"rendered"`
}

type key struct {
	identity string
	palette  string // Resolved palette name.
}

// Cache holds extraction results and their renderings.
type Cache struct {
	opts    Options
	sources group[string, *bmt.Result]
	renders group[key, *render.Image]
	hits    int64
	misses  int64
}

// New returns an empty Cache.
func New(opts *Options) *Cache {
	c := &Cache{}
	if opts != nil {
		c.opts = *opts
	}
	c.sources.max = c.opts.MaxEntries
	c.renders.max = c.opts.MaxEntries
	return c
}

// Put extracts buf once and keeps the result under its identity.
//
// buf must not be modified afterward.
func (c *Cache) Put(buf []byte) (*bmt.Result, error) {
	r, _, err := c.sources.do(bmt.Identity(buf), func() (*bmt.Result, error) {
		return bmt.Extract(buf, c.opts.Extract)
	})
	return r, err
}

// Result returns the extraction registered under identity.
func (c *Cache) Result(identity string) (*bmt.Result, error) {
	r, ok, err := c.sources.get(identity)
	if !ok {
		return nil, ErrUnknownSource
	}
	return r, err
}

// GetOrRender returns the rendering of the thermal channel of identity with
// the palette name.
//
// Requests for an unknown palette share the rendering of the default palette;
// the returned Image then describes the fallback.
func (c *Cache) GetOrRender(identity, name string) (*render.Image, error) {
	p, known := palette.Lookup(name)
	img, shared, err := c.renders.do(key{identity, p.Name}, func() (*render.Image, error) {
		r, err := c.Result(identity)
		if err != nil {
			return nil, err
		}
		if !r.HasThermal() {
			return nil, r.ThermalErr
		}
		return render.Render(r.Thermal, p.Name, c.opts.Format)
	})
	if shared {
		atomic.AddInt64(&c.hits, 1)
	} else {
		atomic.AddInt64(&c.misses, 1)
	}
	if err != nil {
		return nil, err
	}
	if img.Requested == name {
		return img, nil
	}
	// The cached value is shared; describe this request on a copy.
	out := *img
	out.Requested = name
	out.Fallback = !known
	out.Warning = nil
	if out.Fallback {
		out.Warning = &render.UnknownPaletteWarning{Requested: name, Used: p.Name}
	}
	return &out, nil
}

// Render is Put followed by GetOrRender.
func (c *Cache) Render(buf []byte, name string) (*render.Image, error) {
	if _, err := c.Put(buf); err != nil {
		return nil, err
	}
	return c.GetOrRender(bmt.Identity(buf), name)
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     atomic.LoadInt64(&c.hits),
		Misses:   atomic.LoadInt64(&c.misses),
		Sources:  c.sources.len(),
		Rendered: c.renders.len(),
	}
}
