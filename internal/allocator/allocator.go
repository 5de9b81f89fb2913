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

// Package allocator implements byte slice pooling for queue chunks.
package allocator

import (
	"fmt"
	"sync"
)

const maxPowerToRoundUpInt = 63

var defaultAllocator = NewClassAllocator()

// Allocator is the interface to Malloc or Free bytes.
type Allocator interface {
	// Malloc mallocs a []byte with specific size.
	// The second return value is what Free expects, which avoids an extra heap allocation
	// when the slice header escapes. See https://github.com/golang/go/issues/8618.
	Malloc(int) ([]byte, interface{})
	// Free frees the allocated bytes. It accepts the second return value of Malloc.
	Free(interface{})
}

// Default returns the process wide ClassAllocator.
func Default() Allocator {
	return defaultAllocator
}

// Malloc gets a []byte from the default pool. The second return param is used to Free.
func Malloc(size int) ([]byte, interface{}) {
	return defaultAllocator.Malloc(size)
}

// Free releases the bytes to the default pool.
func Free(bts interface{}) {
	defaultAllocator.Free(bts)
}

// NewClassAllocator creates a new ClassAllocator.
func NewClassAllocator() *ClassAllocator {
	var pools [maxPowerToRoundUpInt]*sync.Pool
	for i := range pools {
		size := 1 << i
		pools[i] = &sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		}
	}
	return &ClassAllocator{pools: pools}
}

// ClassAllocator is a bytes pool. The capacity of every slice it hands out is 1 << n.
type ClassAllocator struct {
	pools [maxPowerToRoundUpInt]*sync.Pool
}

// Malloc gets a []byte of len size from the pool.
// A non-positive or oversized request is a programming error and panics,
// there is no way to hand back a partial chunk.
func (a *ClassAllocator) Malloc(size int) ([]byte, interface{}) {
	if size <= 0 {
		panic(fmt.Sprintf("allocator: invalid alloc size %d", size))
	}
	power := powerToRoundUp(size)
	if power >= maxPowerToRoundUpInt {
		panic(fmt.Sprintf("allocator: alloc size %d out of range", size))
	}
	v := a.pools[power].Get()
	return v.([]byte)[:size], v
}

// Free releases the bytes to pool.
func (a *ClassAllocator) Free(bts interface{}) {
	b, _ := bts.([]byte)
	c := cap(b)
	if c == 0 {
		panic("allocator: free an empty bytes")
	}
	power := powerToRoundUp(c)
	if 1<<power != c {
		panic(fmt.Sprintf("allocator: cap %d of bts must be power of two", c))
	}
	a.pools[power].Put(b[:c])
}

func powerToRoundUp(n int) int {
	powerOfTwo, power := 1, 0
	for ; n-powerOfTwo > 0; power++ {
		powerOfTwo <<= 1
	}
	return power
}
