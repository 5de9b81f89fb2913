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

// Package bio is a generic byte-stream I/O abstraction.
//
// A BIO is a handle over a Method, the concrete stream implementation. Callers
// use Write, Read and Ctrl on the handle without knowing how the bytes are kept.
// The package ships two in-memory methods: memq, a FIFO of the written blocks
// whose reads never cross a block boundary, and mem, the same queue with reads
// that coalesce across blocks.
package bio

import (
	"errors"

	"github.com/hashicorp/go-multierror"
)

// Type identifies a Method kind.
type Type int

// Type flags and kinds.
const (
	TypeDescriptor Type = 0x0100 // the method wraps a descriptor.
	TypeFilter     Type = 0x0200 // the method transforms another BIO.
	TypeSourceSink Type = 0x0400 // the method is an end of a chain.

	TypeNone Type = 0
	TypeMem  Type = 1 | TypeSourceSink
	TypeMemQ Type = 2 | TypeSourceSink
)

//go:generate mockgen -source=bio.go -destination=mockbio/method_mock.go -package=mockbio

// Method is the capability set a stream implementation provides to a BIO.
// Implementations need not be safe for concurrent use.
type Method interface {
	// Type returns the kind of the method.
	Type() Type
	// Name returns a human readable name.
	Name() string
	// Write consumes p and returns the number of bytes accepted.
	Write(p []byte) (int, error)
	// Read fills p and returns the number of bytes delivered.
	Read(p []byte) (int, error)
	// Ctrl executes a control command.
	Ctrl(cmd Ctrl, num int64) (int64, error)
	// Destroy tears the method down. It is called once by BIO.Free.
	Destroy() error
}

// Flags are the retry flags of a BIO.
type Flags int

// Retry flags.
const (
	FlagRead        Flags = 0x01
	FlagWrite       Flags = 0x02
	FlagIOSpecial   Flags = 0x04
	FlagRWS               = FlagRead | FlagWrite | FlagIOSpecial
	FlagShouldRetry Flags = 0x08
)

// New creates a BIO over m.
func New(m Method) *BIO {
	return &BIO{method: m}
}

// BIO is a handle over a Method. A nil *BIO is a valid receiver for every
// method and reports ErrNilHandle.
type BIO struct {
	method Method
	flags  Flags
	next   *BIO
	prev   *BIO
	freed  bool
}

// Method returns the method of b, or nil.
func (b *BIO) Method() Method {
	if b == nil {
		return nil
	}
	return b.method
}

// Type returns the method type of b.
func (b *BIO) Type() Type {
	if b == nil || b.method == nil {
		return TypeNone
	}
	return b.method.Type()
}

// Write writes p through the method.
func (b *BIO) Write(p []byte) (int, error) {
	if b == nil || b.method == nil {
		return 0, ErrNilHandle
	}
	b.ClearRetryFlags()
	return b.method.Write(p)
}

// Read reads into p through the method.
// ErrEmpty means no data is queued right now, the BIO is then flagged to retry the read.
func (b *BIO) Read(p []byte) (int, error) {
	if b == nil || b.method == nil {
		return 0, ErrNilHandle
	}
	b.ClearRetryFlags()
	n, err := b.method.Read(p)
	if errors.Is(err, ErrEmpty) {
		b.SetRetryFlags(FlagRead | FlagShouldRetry)
	}
	return n, err
}

// Ctrl executes a control command. A nil handle reports -1 and ErrNilHandle.
func (b *BIO) Ctrl(cmd Ctrl, num int64) (int64, error) {
	if b == nil || b.method == nil {
		return -1, ErrNilHandle
	}
	return b.method.Ctrl(cmd, num)
}

// Free destroys the method of b. Freeing twice is a no-op.
// b is unlinked from its chain first.
func (b *BIO) Free() error {
	if b == nil || b.method == nil {
		return ErrNilHandle
	}
	if b.freed {
		return nil
	}
	Pop(b)
	b.freed = true
	return b.method.Destroy()
}

// SetRetryFlags sets f on b.
func (b *BIO) SetRetryFlags(f Flags) {
	if b != nil {
		b.flags |= f
	}
}

// ClearRetryFlags clears all retry flags of b.
func (b *BIO) ClearRetryFlags() {
	if b != nil {
		b.flags &^= FlagRWS | FlagShouldRetry
	}
}

// RetryFlags returns the retry flags of b.
func (b *BIO) RetryFlags() Flags {
	if b == nil {
		return 0
	}
	return b.flags & (FlagRWS | FlagShouldRetry)
}

// ShouldRetry reports whether the last operation asked to be retried.
func (b *BIO) ShouldRetry() bool {
	return b.RetryFlags()&FlagShouldRetry != 0
}

// ShouldRead reports whether the retry is for a read.
func (b *BIO) ShouldRead() bool {
	return b.RetryFlags()&FlagRead != 0
}

// Next returns the next BIO of the chain.
func (b *BIO) Next() *BIO {
	if b == nil {
		return nil
	}
	return b.next
}

// Push appends next to the end of b's chain and returns b.
// Every BIO of the chain is told through CtrlPush.
// A next which is already linked after another BIO is cut from that chain first.
// Push leaves the chains unchanged if linking next would form a cycle.
func Push(b, next *BIO) *BIO {
	if b == nil {
		return next
	}
	if next != nil {
		if inChain(next, b) || inChain(b, next) {
			return b
		}
		if next.prev != nil {
			_, _ = next.Ctrl(CtrlPop, 0)
			next.prev.next = nil
			next.prev = nil
		}
	}
	last := b
	for last.next != nil {
		last = last.next
	}
	last.next = next
	if next != nil {
		next.prev = last
	}
	for cur := b; cur != nil; cur = cur.next {
		_, _ = cur.Ctrl(CtrlPush, 0)
	}
	return b
}

func inChain(head, b *BIO) bool {
	for cur := head; cur != nil; cur = cur.next {
		if cur == b {
			return true
		}
	}
	return false
}

// Pop removes b from its chain and returns the BIO which followed it.
func Pop(b *BIO) *BIO {
	if b == nil {
		return nil
	}
	next := b.next
	if b.prev != nil || next != nil {
		_, _ = b.Ctrl(CtrlPop, 0)
	}
	if b.prev != nil {
		b.prev.next = next
	}
	if next != nil {
		next.prev = b.prev
	}
	b.next, b.prev = nil, nil
	return next
}

// FreeAll frees b and every BIO chained after it.
// All BIOs are freed even when some fail, the errors are combined.
func FreeAll(b *BIO) error {
	var result *multierror.Error
	for b != nil {
		next := b.next
		if err := b.Free(); err != nil {
			result = multierror.Append(result, err)
		}
		b = next
	}
	return result.ErrorOrNil()
}
