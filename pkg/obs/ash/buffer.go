// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package ash

import (
	"github.com/cockroachdb/ash/pkg/util/iterutil"
	"github.com/cockroachdb/ash/pkg/util/syncutil"
	"github.com/cockroachdb/errors"
)

// Buffer is the fixed-capacity ring of samples shared by the collector, the
// storage-node sample feed and readers. It is allocated once and never
// resized.
//
// A nil *Buffer is valid and stands for a disabled buffer: every operation
// on it returns ErrNotInitialized.
type Buffer struct {
	mu struct {
		syncutil.RWMutex
		// index is the slot that the next write overwrites.
		index   int
		samples []Sample
	}
}

// CapacityForSize returns the number of samples that fit in sizeKB KiB.
func CapacityForSize(sizeKB int64) int {
	return int(sizeKB * 1024 / RecordSize)
}

// NewBuffer allocates a buffer holding as many samples as fit in sizeKB KiB.
// It is an error for the size to be too small to hold a single sample.
func NewBuffer(sizeKB int64) (*Buffer, error) {
	n := CapacityForSize(sizeKB)
	if n <= 0 {
		return nil, errors.Newf(
			"active session history buffer of %d KiB cannot hold a single %d byte sample",
			sizeKB, RecordSize)
	}
	return newBufferWithCapacity(n), nil
}

func newBufferWithCapacity(n int) *Buffer {
	b := &Buffer{}
	b.mu.samples = make([]Sample, n)
	return b
}

// Capacity returns the number of slots in the buffer.
func (b *Buffer) Capacity() int {
	if b == nil {
		return 0
	}
	return len(b.mu.samples)
}

// nextWriteSlot returns the slot at the cursor and advances the cursor,
// wrapping around at the end of the buffer.
func (b *Buffer) nextWriteSlot() int {
	b.mu.AssertHeld()
	idx := b.mu.index
	if b.mu.index++; b.mu.index == len(b.mu.samples) {
		b.mu.index = 0
	}
	return idx
}

// Writer returns a handle for one write pass over the buffer. The handle
// takes the exclusive lock lazily and must be released, typically with a
// defer right after creation, so that the lock is dropped on every exit
// path.
func (b *Buffer) Writer() (*BufferWriter, error) {
	if b == nil {
		return nil, ErrNotInitialized
	}
	return &BufferWriter{b: b}, nil
}

// BufferWriter is a scoped exclusive acquisition of a Buffer. It is not
// safe for concurrent use.
type BufferWriter struct {
	b      *Buffer
	locked bool
}

// Acquire takes the exclusive buffer lock. It is a no-op if the lock is
// already held by this writer.
func (w *BufferWriter) Acquire() {
	if w.locked {
		return
	}
	w.b.mu.Lock()
	w.locked = true
}

// Locked returns whether the writer holds the buffer lock.
func (w *BufferWriter) Locked() bool {
	return w.locked
}

// Write copies s into the next slot. The lock must be held.
func (w *BufferWriter) Write(s Sample) {
	if !w.locked {
		panic(errors.AssertionFailedf("active session history buffer written without holding the lock"))
	}
	w.b.mu.samples[w.b.nextWriteSlot()] = s
}

// Release drops the lock if held. It is safe to call more than once.
func (w *BufferWriter) Release() {
	if !w.locked {
		return
	}
	w.locked = false
	w.b.mu.Unlock()
}

// Scan calls fn with every written sample, oldest first, while holding the
// shared lock. Until the buffer wraps around for the first time, slots are
// filled in order from the first one and the scan stops at the first slot
// that was never written. Once it has wrapped, the slot under the cursor is
// the oldest and the scan starts there. Returning iterutil.StopIteration()
// from fn ends the scan early without error.
func (b *Buffer) Scan(fn func(s *Sample) error) error {
	if b == nil {
		return ErrNotInitialized
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := len(b.mu.samples)
	start := 0
	if !b.mu.samples[b.mu.index].Empty() {
		start = b.mu.index
	}
	for i := 0; i < n; i++ {
		s := &b.mu.samples[(start+i)%n]
		if s.Empty() {
			break
		}
		if err := fn(s); err != nil {
			return iterutil.Map(err)
		}
	}
	return nil
}
