// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License that can be found in the LICENSE file.

package allocator_test

import (
	"testing"

	. "trpc.group/trpc-go/memq/internal/allocator"

	"github.com/stretchr/testify/require"
)

func TestDefaultAllocator(t *testing.T) {
	bs, free := Malloc(10)
	require.Equal(t, 10, len(bs))
	Free(free)
	require.NotNil(t, Default())
}

func TestClassAllocator(t *testing.T) {
	a := NewClassAllocator()
	bs, free := a.Malloc(10)
	require.Equal(t, 10, len(bs))
	require.Equal(t, 16, cap(bs))
	a.Free(free)
}

func TestClassAllocator_InvalidMalloc(t *testing.T) {
	a := NewClassAllocator()
	t.Run("negative size", func(t *testing.T) {
		require.Panics(t, func() { a.Malloc(-1) })
	})
	t.Run("zero size", func(t *testing.T) {
		require.Panics(t, func() { a.Malloc(0) })
	})
}

func TestClassAllocator_InvalidFree(t *testing.T) {
	a := NewClassAllocator()
	t.Run("free empty slice", func(t *testing.T) {
		require.Panics(t, func() { a.Free(nil) })
	})
	t.Run("invalid slice size", func(t *testing.T) {
		require.Panics(t, func() { a.Free(make([]byte, 9)) })
	})
}

func TestTracker(t *testing.T) {
	tr := NewTracker(NewClassAllocator())
	_, r1 := tr.Malloc(3)
	_, r2 := tr.Malloc(100)
	require.EqualValues(t, 2, tr.Mallocs())
	require.Equal(t, 2, tr.Outstanding())
	require.EqualValues(t, 103, tr.OutstandingBytes())

	tr.Free(r1)
	require.Equal(t, 1, tr.Outstanding())
	require.EqualValues(t, 100, tr.OutstandingBytes())

	tr.Free(r2)
	require.EqualValues(t, 2, tr.Frees())
	require.Zero(t, tr.Outstanding())
	require.Zero(t, tr.OutstandingBytes())
}

func TestTracker_FreeUnknown(t *testing.T) {
	tr := NewTracker(NewClassAllocator())
	require.Panics(t, func() { tr.Free(make([]byte, 8)) })
}
