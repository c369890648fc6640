// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rendercache

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/maruel/go-bmt/bmt"
	"github.com/maruel/go-bmt/bmttest"
)

func container(v uint16) []byte {
	return bmttest.Container(bmttest.Ramp16(6, 4, v), bmttest.Solid24(6, 4, bmttest.Red))
}

func TestCache_concurrent(t *testing.T) {
	c := New(nil)
	r, err := c.Put(container(1000))
	if err != nil {
		t.Fatal(err)
	}
	id := r.Container.Identity
	const n = 32
	out := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			img, err := c.GetOrRender(id, "iron")
			if err == nil {
				out[i] = img.Data
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()
	for i := range out {
		if errs[i] != nil {
			t.Fatal(errs[i])
		}
		if !bytes.Equal(out[i], out[0]) {
			t.Fatal(i)
		}
	}
	if s := c.Stats(); s.Misses != 1 || s.Hits != n-1 || s.Rendered != 1 || s.Sources != 1 {
		t.Fatalf("%+v", s)
	}
}

func TestCache_fallback(t *testing.T) {
	c := New(nil)
	r, err := c.Put(container(1000))
	if err != nil {
		t.Fatal(err)
	}
	id := r.Container.Identity
	a, err := c.GetOrRender(id, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Fallback || a.Palette != "iron" || a.Requested != "nope" || a.Warning == nil {
		t.Fatalf("%+v", a)
	}
	b, err := c.GetOrRender(id, "iron")
	if err != nil {
		t.Fatal(err)
	}
	if b.Fallback || b.Warning != nil || b.Requested != "iron" {
		t.Fatalf("%+v", b)
	}
	d, err := c.GetOrRender(id, "IRON")
	if err != nil {
		t.Fatal(err)
	}
	if d.Fallback || d.Requested != "IRON" {
		t.Fatalf("%+v", d)
	}
	if s := c.Stats(); s.Rendered != 1 || s.Misses != 1 || s.Hits != 2 {
		t.Fatalf("%+v", s)
	}
	// The shared value must not have been modified.
	if e, _ := c.GetOrRender(id, "iron"); e.Fallback || e.Requested != "iron" {
		t.Fatalf("%+v", e)
	}
}

func TestCache_identity(t *testing.T) {
	c := New(nil)
	a, err := c.Render(container(1000), "hot")
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Render(container(2000), "hot")
	if err != nil {
		t.Fatal(err)
	}
	if s := c.Stats(); s.Sources != 2 || s.Rendered != 2 || s.Misses != 2 {
		t.Fatalf("%+v", s)
	}
	if len(a.Data) == 0 || len(b.Data) == 0 {
		t.Fatal("empty rendering")
	}
	if _, err := c.Render(container(1000), "hot"); err != nil {
		t.Fatal(err)
	}
	if s := c.Stats(); s.Sources != 2 || s.Hits != 1 {
		t.Fatalf("%+v", s)
	}
}

func TestCache_unknown(t *testing.T) {
	c := New(nil)
	if _, err := c.GetOrRender("deadbeef", "iron"); err != ErrUnknownSource {
		t.Fatal(err)
	}
	if _, err := c.Result("deadbeef"); err != ErrUnknownSource {
		t.Fatal(err)
	}
	if s := c.Stats(); s.Rendered != 0 {
		t.Fatalf("%+v", s)
	}
}

func TestCache_errorsNotCached(t *testing.T) {
	c := New(nil)
	buf := []byte("not a container")
	for i := 0; i < 2; i++ {
		_, err := c.Put(buf)
		var s *bmt.SignatureNotFoundError
		if !errors.As(err, &s) {
			t.Fatal(err)
		}
	}
	if s := c.Stats(); s.Sources != 0 {
		t.Fatalf("%+v", s)
	}
	if _, err := c.Result(bmt.Identity(buf)); err != ErrUnknownSource {
		t.Fatal(err)
	}
}

func TestCache_noThermal(t *testing.T) {
	c := New(nil)
	bad := bmttest.SetBitCount(bmttest.Fill16(2, 2, 1), 1)
	r, err := c.Put(bmttest.Container(bad, bmttest.Solid24(2, 2, bmttest.Red)))
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.GetOrRender(r.Container.Identity, "iron")
	var ce *bmt.ChannelError
	if !errors.As(err, &ce) || ce.Channel != bmt.Thermal {
		t.Fatal(err)
	}
}

func TestCache_maxEntries(t *testing.T) {
	c := New(&Options{MaxEntries: 1})
	a, err := c.Put(container(1000))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Put(container(2000)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Result(a.Container.Identity); err != ErrUnknownSource {
		t.Fatal(err)
	}
	if s := c.Stats(); s.Sources != 1 {
		t.Fatalf("%+v", s)
	}
}
