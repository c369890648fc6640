// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rendercache

import "sync"

type call[V any] struct {
	done chan struct{}
	v    V
	err  error
}

// group memoizes values by key. Concurrent callers for the same key share a
// single computation. Failed computations are forgotten.
//
// When max is non-zero, the oldest completed values are evicted first.
type group[K comparable, V any] struct {
	max int

	mu    sync.Mutex
	m     map[K]*call[V]
	order []K
}

// do returns the value for k, calling fn when it is not known yet. shared is
// true when the value came from another call.
func (g *group[K, V]) do(k K, fn func() (V, error)) (v V, shared bool, err error) {
	g.mu.Lock()
	if c, ok := g.m[k]; ok {
		g.mu.Unlock()
		<-c.done
		return c.v, true, c.err
	}
	if g.m == nil {
		g.m = map[K]*call[V]{}
	}
	c := &call[V]{done: make(chan struct{})}
	g.m[k] = c
	g.mu.Unlock()

	c.v, c.err = fn()

	g.mu.Lock()
	if c.err != nil {
		delete(g.m, k)
	} else {
		g.order = append(g.order, k)
		for g.max > 0 && len(g.order) > g.max {
			delete(g.m, g.order[0])
			g.order = g.order[1:]
		}
	}
	g.mu.Unlock()
	close(c.done)
	return c.v, false, c.err
}

// get returns the value for k without computing it. It waits for a pending
// computation.
func (g *group[K, V]) get(k K) (v V, ok bool, err error) {
	g.mu.Lock()
	c, ok := g.m[k]
	g.mu.Unlock()
	if !ok {
		return v, false, nil
	}
	<-c.done
	return c.v, true, c.err
}

// len returns the number of completed values.
func (g *group[K, V]) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.order)
}
