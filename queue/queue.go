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

// Package queue implements a FIFO byte queue made of owned chunks.
//
// Every Append copies its input into a new chunk at the tail. Read drains the
// head chunk only and never crosses into the next one, so a reader observes the
// writer's block boundaries. A Queue is not safe for concurrent use.
package queue

import (
	"sync"

	"trpc.group/trpc-go/memq/errs"
	"trpc.group/trpc-go/memq/internal/allocator"
)

// ErrEmpty is returned by Read when no chunk is queued.
// It means "nothing right now", more data may be appended later.
var ErrEmpty = errs.NewFrameError(errs.RetEmpty, "queue empty")

// Allocator is the interface to Malloc or Free chunk data.
type Allocator = allocator.Allocator

// Option sets an optional parameter of Queue.
type Option func(*Queue)

// WithAllocator sets the allocator chunk data is taken from and returned to.
func WithAllocator(a Allocator) Option {
	return func(q *Queue) {
		q.a = a
	}
}

// Stats are the lifetime chunk counters of a Queue.
type Stats struct {
	Appended uint64 // chunks created by Append.
	Retired  uint64 // chunks fully consumed by Read.
	Released uint64 // chunks dropped by Release.
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{a: allocator.Default()}
	for _, o := range opts {
		o(q)
	}
	return q
}

// Queue is an ordered chain of chunks forming one logical byte stream.
type Queue struct {
	a     Allocator
	head  *chunk
	stats Stats
}

// Append copies p into a new chunk at the tail and returns len(p).
// An empty p still queues a zero-length chunk, which keeps EOF false until a
// Read retires it. Allocation failure panics.
func (q *Queue) Append(p []byte) int {
	c := newChunk()
	if len(p) > 0 {
		bts, release := q.a.Malloc(len(p))
		c.data = bts[:copy(bts, p)]
		c.release = release
	}
	q.stats.Appended++
	if q.head == nil {
		q.head = c
		return len(p)
	}
	tail := q.head
	for tail.next != nil {
		tail = tail.next
	}
	tail.next = c
	return len(p)
}

// Write implements io.Writer on top of Append. It never fails.
func (q *Queue) Write(p []byte) (int, error) {
	return q.Append(p), nil
}

// Read copies up to len(p) unread bytes of the head chunk into p.
// The head is retired once fully consumed. ErrEmpty is returned when no chunk is
// queued, which is different from a successful zero-byte read of an empty p.
func (q *Queue) Read(p []byte) (int, error) {
	h := q.head
	if h == nil {
		return 0, ErrEmpty
	}
	n := copy(p, h.data[h.consumed:])
	h.consumed += n
	if h.consumed == len(h.data) {
		q.retireHead()
		q.stats.Retired++
	}
	return n, nil
}

// Drain reads across chunk boundaries until p is full or the queue is empty.
// ErrEmpty is returned only if the queue held nothing at all.
func (q *Queue) Drain(p []byte) (int, error) {
	if q.head == nil {
		return 0, ErrEmpty
	}
	var copied int
	for q.head != nil && copied < len(p) {
		n, _ := q.Read(p[copied:])
		copied += n
	}
	return copied, nil
}

// EOF reports whether the queue currently holds no chunk.
// It is not sticky, a later Append makes it false again.
func (q *Queue) EOF() bool {
	return q.head == nil
}

// Pending returns the unread byte count of the head chunk only.
// Chunks queued behind the head are not counted, use Len for the total.
func (q *Queue) Pending() int {
	if q.head == nil {
		return 0
	}
	return len(q.head.data) - q.head.consumed
}

// Len returns the unread byte count of the whole queue.
func (q *Queue) Len() int {
	var l int
	for c := q.head; c != nil; c = c.next {
		l += len(c.data) - c.consumed
	}
	return l
}

// Chunks returns the number of queued chunks.
func (q *Queue) Chunks() int {
	var n int
	for c := q.head; c != nil; c = c.next {
		n++
	}
	return n
}

// Stats returns the lifetime chunk counters.
func (q *Queue) Stats() Stats {
	return q.stats
}

// Release frees every queued chunk and empties the queue.
// It is a no-op on an empty queue.
func (q *Queue) Release() {
	for q.head != nil {
		q.retireHead()
		q.stats.Released++
	}
}

func (q *Queue) retireHead() {
	h := q.head
	q.head = h.next
	if h.release != nil {
		q.a.Free(h.release)
	}
	h.data = nil
	h.release = nil
	h.consumed = 0
	h.next = nil
	chunkPool.Put(h)
}

// chunk is one owned block of bytes plus its read cursor.
type chunk struct {
	data     []byte
	consumed int
	release  interface{}
	next     *chunk
}

var chunkPool = sync.Pool{New: func() interface{} { return &chunk{} }}

func newChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.data = nil
	c.release = nil
	c.consumed = 0
	c.next = nil
	return c
}
