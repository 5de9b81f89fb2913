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

package bio

import (
	"errors"
	"io"

	"trpc.group/trpc-go/memq/internal/allocator"
	"trpc.group/trpc-go/memq/log"
	"trpc.group/trpc-go/memq/metrics"
	"trpc.group/trpc-go/memq/queue"
)

// Metric names reported by the memq and mem methods.
const (
	MetricBytesWritten   = "memq.bytes.written"
	MetricBytesRead      = "memq.bytes.read"
	MetricChunksAppended = "memq.chunks.appended"
	MetricChunksRetired  = "memq.chunks.retired"
	MetricChunksReleased = "memq.chunks.released"
	MetricEmptyReads     = "memq.reads.empty"
	MetricChunksDepth    = "memq.chunks.depth" // gauge, chunks queued by the last reporting BIO.
)

// Options are the construction parameters of the memq and mem methods.
type Options struct {
	CloseFlag   int64               // NoClose or CloseOnFree.
	EmptyReturn int64               // see CtrlSetEmptyReturn.
	Allocator   allocator.Allocator // chunk data allocator.
	Logger      log.Logger          // nil means the default logger at use time.
}

// Option modifies the Options.
type Option func(*Options)

// WithCloseFlag sets the close flag, NoClose or CloseOnFree.
func WithCloseFlag(flag int64) Option {
	return func(o *Options) {
		o.CloseFlag = flag
	}
}

// WithEmptyReturn sets the empty read behavior, see CtrlSetEmptyReturn.
func WithEmptyReturn(v int64) Option {
	return func(o *Options) {
		o.EmptyReturn = v
	}
}

// WithAllocator sets the allocator chunk data comes from.
func WithAllocator(a allocator.Allocator) Option {
	return func(o *Options) {
		o.Allocator = a
	}
}

// WithLogger sets the logger of the method.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

var defaultOptions = Options{
	CloseFlag:   CloseOnFree,
	EmptyReturn: -1,
}

// SetDefaultOptions replaces the options new methods start from.
// It is meant to be called during setup and is not concurrency safe.
func SetDefaultOptions(o Options) {
	defaultOptions = o
}

// DefaultOptions returns the options new methods start from.
func DefaultOptions() Options {
	return defaultOptions
}

// NewMemQ creates a BIO over a memq method.
func NewMemQ(opts ...Option) *BIO {
	return New(NewMemQMethod(opts...))
}

// NewMem creates a BIO over a mem method.
func NewMem(opts ...Option) *BIO {
	return New(NewMemMethod(opts...))
}

// NewMemQMethod creates a memq method: every Write queues one block and every
// Read returns bytes of the oldest block only.
func NewMemQMethod(opts ...Option) *MemQ {
	return newMemQ(false, opts...)
}

// NewMemMethod creates a mem method: a memq whose reads coalesce across blocks
// and whose pending count covers every queued byte.
func NewMemMethod(opts ...Option) *MemQ {
	return newMemQ(true, opts...)
}

func newMemQ(coalesce bool, opts ...Option) *MemQ {
	o := defaultOptions
	for _, opt := range opts {
		opt(&o)
	}
	var qopts []queue.Option
	if o.Allocator != nil {
		qopts = append(qopts, queue.WithAllocator(o.Allocator))
	}
	m := &MemQ{
		q:           queue.New(qopts...),
		coalesce:    coalesce,
		shutdown:    o.CloseFlag != NoClose,
		emptyReturn: o.EmptyReturn,
		logger:      o.Logger,
	}
	m.log().Debugf("bio: %s created, close flag %d, empty return %d",
		m.Name(), o.CloseFlag, o.EmptyReturn)
	return m
}

// MemQ is the in-memory queue method behind the memq and mem BIOs.
type MemQ struct {
	q           *queue.Queue
	coalesce    bool
	shutdown    bool
	emptyReturn int64
	logger      log.Logger
	reported    queue.Stats
}

var _ Method = (*MemQ)(nil)

// Queue returns the underlying queue, nil once destroyed.
// An owner which sets NoClose takes the queue over with it before Free.
func (m *MemQ) Queue() *queue.Queue {
	return m.q
}

// Type implements Method.
func (m *MemQ) Type() Type {
	if m.coalesce {
		return TypeMem
	}
	return TypeMemQ
}

// Name implements Method.
func (m *MemQ) Name() string {
	if m.coalesce {
		return "memory buffer"
	}
	return "memory queue"
}

// Write implements Method. It always accepts all of p.
func (m *MemQ) Write(p []byte) (int, error) {
	if m.q == nil {
		return 0, ErrNilHandle
	}
	n := m.q.Append(p)
	metrics.IncrCounter(MetricBytesWritten, float64(n))
	m.reportStats()
	return n, nil
}

// Read implements Method.
func (m *MemQ) Read(p []byte) (int, error) {
	if m.q == nil {
		return 0, ErrNilHandle
	}
	var (
		n   int
		err error
	)
	if m.coalesce {
		n, err = m.q.Drain(p)
	} else {
		n, err = m.q.Read(p)
	}
	if errors.Is(err, queue.ErrEmpty) {
		metrics.Counter(MetricEmptyReads).Incr()
		if m.emptyReturn == 0 {
			return 0, io.EOF
		}
		return 0, ErrEmpty
	}
	metrics.IncrCounter(MetricBytesRead, float64(n))
	m.reportStats()
	return n, err
}

// Ctrl implements Method.
func (m *MemQ) Ctrl(cmd Ctrl, num int64) (int64, error) {
	switch cmd {
	case CtrlEOF:
		if m.q == nil {
			return -1, ErrNilHandle
		}
		if m.q.EOF() {
			return 1, nil
		}
		return 0, nil
	case CtrlGetClose:
		if m.shutdown {
			return CloseOnFree, nil
		}
		return NoClose, nil
	case CtrlSetClose:
		m.shutdown = num != NoClose
		return 1, nil
	case CtrlWPending:
		return 0, nil
	case CtrlPending:
		if m.q == nil {
			return 0, nil
		}
		if m.coalesce {
			return int64(m.q.Len()), nil
		}
		return int64(m.q.Pending()), nil
	case CtrlSetEmptyReturn:
		m.emptyReturn = num
		return 1, nil
	case CtrlGetEmptyReturn:
		return m.emptyReturn, nil
	case CtrlDup, CtrlFlush:
		return 1, nil
	case CtrlPush, CtrlPop:
		return 0, nil
	default:
		m.log().Warnf("bio: %s does not support ctrl %d", m.Name(), cmd)
		return 0, nil
	}
}

// Destroy implements Method. The queued chunks are released only when the
// close flag is set, with NoClose they are left to whoever took the queue.
func (m *MemQ) Destroy() error {
	if m.q == nil {
		return nil
	}
	if m.shutdown {
		m.q.Release()
		m.reportStats()
	}
	m.log().Debugf("bio: %s destroyed, released %t", m.Name(), m.shutdown)
	m.q = nil
	return nil
}

func (m *MemQ) reportStats() {
	s := m.q.Stats()
	if d := s.Appended - m.reported.Appended; d > 0 {
		metrics.IncrCounter(MetricChunksAppended, float64(d))
	}
	if d := s.Retired - m.reported.Retired; d > 0 {
		metrics.IncrCounter(MetricChunksRetired, float64(d))
	}
	if d := s.Released - m.reported.Released; d > 0 {
		metrics.IncrCounter(MetricChunksReleased, float64(d))
	}
	m.reported = s
	metrics.SetGauge(MetricChunksDepth, float64(m.q.Chunks()))
}

func (m *MemQ) log() log.Logger {
	if m.logger != nil {
		return m.logger
	}
	return log.GetDefaultLogger()
}
