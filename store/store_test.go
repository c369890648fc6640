// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/maruel/go-bmt/bmt"
	"github.com/maruel/go-bmt/bmttest"
)

func open(t *testing.T) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "sub", "bmt.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Error(err)
		}
	})
	return s
}

func summary(t *testing.T, v uint16) *bmt.Summary {
	r, err := bmt.Extract(bmttest.Container(bmttest.Fill16(4, 4, v), bmttest.Solid24(4, 4, bmttest.Red)), nil)
	if err != nil {
		t.Fatal(err)
	}
	return r.Summary()
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := open(t)
	a := summary(t, 30000)
	b := summary(t, 25000)
	idA, err := s.Save(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(ctx, b); err != nil {
		t.Fatal(err)
	}
	idA2, err := s.Save(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if idA == idA2 {
		t.Fatal("run IDs must be unique")
	}

	r, err := s.Latest(ctx, a.Identity)
	if err != nil {
		t.Fatal(err)
	}
	if r.RunID != idA2 || r.Summary.Identity != a.Identity {
		t.Fatalf("%+v", r)
	}
	if r.Summary.Thermal.Stats.Max != 1200 || r.Summary.Metadata.Device != "Unknown" {
		t.Fatalf("%+v", r.Summary)
	}

	l, err := s.List(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(l) != 3 || l[0].RunID != idA2 || l[2].RunID != idA {
		t.Fatalf("%+v", l)
	}
	if l, err = s.List(ctx, 1); err != nil || len(l) != 1 {
		t.Fatal(l, err)
	}
}

func TestStore_notFound(t *testing.T) {
	s := open(t)
	if _, err := s.Latest(context.Background(), "nope"); err != ErrNotFound {
		t.Fatal(err)
	}
}

func TestStore_noThermal(t *testing.T) {
	bad := bmttest.SetBitCount(bmttest.Fill16(2, 2, 1), 1)
	r, err := bmt.Extract(bmttest.Container(bad, bmttest.Solid24(2, 2, bmttest.Red)), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := open(t)
	ctx := context.Background()
	if _, err := s.Save(ctx, r.Summary()); err != nil {
		t.Fatal(err)
	}
	got, err := s.Latest(ctx, r.Container.Identity)
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary.Thermal != nil || len(got.Summary.Errors) != 1 {
		t.Fatalf("%+v", got.Summary)
	}
}
