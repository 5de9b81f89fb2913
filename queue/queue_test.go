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

package queue_test

import (
	stdbytes "bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"trpc.group/trpc-go/memq/errs"
	"trpc.group/trpc-go/memq/internal/allocator"
	. "trpc.group/trpc-go/memq/queue"
)

func BenchmarkQueue(b *testing.B) {
	block := make([]byte, 1<<10)
	out := make([]byte, 1<<10)
	b.Run("append_read", func(b *testing.B) {
		b.ReportAllocs()
		q := New()
		for i := 0; i < b.N; i++ {
			q.Append(block)
			q.Read(out)
		}
	})
	b.Run("std_buffer", func(b *testing.B) {
		b.ReportAllocs()
		var buf stdbytes.Buffer
		for i := 0; i < b.N; i++ {
			buf.Write(block)
			buf.Read(out)
		}
	})
}

func fill(v byte, n int) []byte {
	return stdbytes.Repeat([]byte{v}, n)
}

func TestQueue_Scenario(t *testing.T) {
	tr := allocator.NewTracker(allocator.NewClassAllocator())
	q := New(WithAllocator(tr))
	buf := make([]byte, 100)

	n, err := q.Read(buf)
	require.ErrorIs(t, err, ErrEmpty)
	require.Equal(t, 0, n)
	require.True(t, q.EOF())

	require.Equal(t, 50, q.Append(fill(0x01, 50)))
	require.False(t, q.EOF())
	require.Equal(t, 30, q.Append(fill(0x02, 30)))

	n, err = q.Read(buf)
	require.Nil(t, err)
	require.Equal(t, 50, n)
	require.Equal(t, fill(0x01, 50), buf[:n])

	n, err = q.Read(buf)
	require.Nil(t, err)
	require.Equal(t, 30, n)
	require.Equal(t, fill(0x02, 30), buf[:n])

	_, err = q.Read(buf)
	require.ErrorIs(t, err, ErrEmpty)
	require.True(t, q.EOF())

	q.Append(fill(0x03, 90))
	require.False(t, q.EOF())
	n, err = q.Read(buf)
	require.Nil(t, err)
	require.Equal(t, 90, n)
	require.Equal(t, fill(0x03, 90), buf[:n])

	require.EqualValues(t, 3, tr.Mallocs())
	require.Zero(t, tr.Outstanding())
}

func TestQueue_NoCoalescing(t *testing.T) {
	q := New()
	q.Append([]byte("abc"))
	q.Append([]byte("defg"))

	buf := make([]byte, 10)
	n, err := q.Read(buf)
	require.Nil(t, err)
	require.Equal(t, "abc", string(buf[:n]))

	n, err = q.Read(buf[:2])
	require.Nil(t, err)
	require.Equal(t, "de", string(buf[:n]))

	n, err = q.Read(buf)
	require.Nil(t, err)
	require.Equal(t, "fg", string(buf[:n]))
}

func TestQueue_PendingHeadOnly(t *testing.T) {
	q := New()
	require.Equal(t, 0, q.Pending())

	q.Append(fill(0x01, 50))
	q.Append(fill(0x02, 30))
	require.Equal(t, 50, q.Pending())
	require.Equal(t, 80, q.Len())
	require.Equal(t, 2, q.Chunks())

	buf := make([]byte, 20)
	_, err := q.Read(buf)
	require.Nil(t, err)
	require.Equal(t, 30, q.Pending())
	require.Equal(t, 60, q.Len())

	_, _ = q.Read(buf)
	_, _ = q.Read(buf)
	require.Equal(t, 30, q.Pending(), "the second chunk is the head now")
	require.Equal(t, 1, q.Chunks())
}

func TestQueue_ZeroLengthAppend(t *testing.T) {
	tr := allocator.NewTracker(allocator.NewClassAllocator())
	q := New(WithAllocator(tr))

	require.Equal(t, 0, q.Append(nil))
	require.False(t, q.EOF(), "a zero-length chunk is still a chunk")
	require.Equal(t, 0, q.Pending())
	require.Zero(t, tr.Mallocs())

	n, err := q.Read(make([]byte, 8))
	require.Nil(t, err)
	require.Equal(t, 0, n)
	require.True(t, q.EOF())
	require.EqualValues(t, 1, q.Stats().Retired)
}

func TestQueue_ZeroCapacityRead(t *testing.T) {
	q := New()
	q.Append([]byte("xy"))

	n, err := q.Read(nil)
	require.Nil(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, 2, q.Pending())
	require.False(t, q.EOF())
}

func TestQueue_Release(t *testing.T) {
	tr := allocator.NewTracker(allocator.NewClassAllocator())
	q := New(WithAllocator(tr))

	q.Release()
	require.True(t, q.EOF())

	q.Append([]byte("1"))
	q.Append([]byte("22"))
	q.Append(nil)
	q.Append([]byte("333"))
	_, err := q.Read(make([]byte, 1))
	require.Nil(t, err)
	require.Equal(t, 2, tr.Outstanding())

	q.Release()
	require.True(t, q.EOF())
	require.Zero(t, tr.Outstanding())
	require.EqualValues(t, tr.Mallocs(), tr.Frees())
	require.Equal(t, Stats{Appended: 4, Retired: 1, Released: 3}, q.Stats())

	q.Release()
	require.EqualValues(t, tr.Mallocs(), tr.Frees())
}

func TestQueue_Write(t *testing.T) {
	q := New()
	n, err := q.Write([]byte("hello"))
	require.Nil(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, 5, q.Pending())
}

func TestQueue_Drain(t *testing.T) {
	q := New()
	_, err := q.Drain(make([]byte, 4))
	require.ErrorIs(t, err, ErrEmpty)

	q.Append(fill(0x01, 50))
	q.Append(nil)
	q.Append(fill(0x02, 30))
	buf := make([]byte, 100)
	n, err := q.Drain(buf)
	require.Nil(t, err)
	require.Equal(t, 80, n)
	require.Equal(t, append(fill(0x01, 50), fill(0x02, 30)...), buf[:n])
	require.True(t, q.EOF())
}

func TestQueue_ErrEmptyCode(t *testing.T) {
	_, err := New().Read(make([]byte, 1))
	require.Equal(t, errs.RetEmpty, errs.Code(err))
}

func TestQueue_FIFOProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tr := allocator.NewTracker(allocator.NewClassAllocator())
		q := New(WithAllocator(tr))
		blocks := rapid.SliceOf(rapid.SliceOfN(rapid.Byte(), 0, 64)).Draw(rt, "blocks")

		var want []byte
		for _, b := range blocks {
			q.Append(b)
			want = append(want, b...)
		}

		var got []byte
		for {
			capacity := rapid.IntRange(1, 80).Draw(rt, "capacity")
			buf := make([]byte, capacity)
			n, err := q.Read(buf)
			if err != nil {
				require.ErrorIs(rt, err, ErrEmpty)
				break
			}
			got = append(got, buf[:n]...)
		}
		require.True(rt, stdbytes.Equal(want, got))
		require.True(rt, q.EOF())
		require.Zero(rt, tr.Outstanding())
	})
}

func TestQueue_ReadNeverSpansChunks(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		q := New()
		blocks := rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 1, 32), 1, 8).Draw(rt, "blocks")
		for _, b := range blocks {
			q.Append(b)
		}
		for _, b := range blocks {
			require.Equal(rt, len(b), q.Pending())
			buf := make([]byte, 64)
			n, err := q.Read(buf)
			require.NoError(rt, err)
			require.Equal(rt, b, buf[:n])
		}
		require.True(rt, q.EOF())
	})
}
