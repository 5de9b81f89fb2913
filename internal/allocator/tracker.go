//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 Tencent.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

package allocator

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// NewTracker wraps a with Malloc/Free accounting.
func NewTracker(a Allocator) *Tracker {
	return &Tracker{a: a, live: make(map[*byte]int)}
}

// Tracker is an Allocator which remembers every outstanding allocation.
// It is used to verify that queues return all chunk data they own.
type Tracker struct {
	a Allocator

	mu   sync.Mutex
	live map[*byte]int

	mallocs atomic.Int64
	frees   atomic.Int64
	bytes   atomic.Int64
}

// Malloc implements Allocator.
func (t *Tracker) Malloc(size int) ([]byte, interface{}) {
	bts, release := t.a.Malloc(size)
	t.mu.Lock()
	t.live[&bts[0]] = size
	t.mu.Unlock()
	t.mallocs.Inc()
	t.bytes.Add(int64(size))
	return bts, release
}

// Free implements Allocator. Freeing bytes unknown to the tracker panics.
func (t *Tracker) Free(release interface{}) {
	bts := release.([]byte)
	t.mu.Lock()
	size, ok := t.live[&bts[0]]
	if !ok {
		t.mu.Unlock()
		panic(fmt.Sprintf("allocator: free unknown bytes %p", &bts[0]))
	}
	delete(t.live, &bts[0])
	t.mu.Unlock()
	t.frees.Inc()
	t.bytes.Sub(int64(size))
	t.a.Free(release)
}

// Mallocs returns how many times Malloc was called.
func (t *Tracker) Mallocs() int64 { return t.mallocs.Load() }

// Frees returns how many times Free was called.
func (t *Tracker) Frees() int64 { return t.frees.Load() }

// Outstanding returns the number of allocations not yet freed.
func (t *Tracker) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// OutstandingBytes returns the requested size sum of allocations not yet freed.
func (t *Tracker) OutstandingBytes() int64 { return t.bytes.Load() }
