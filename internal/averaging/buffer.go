// Package averaging smooths raw sensor values with a fixed-size moving average.
package averaging

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the number of values averaged by a sensor component
const DefaultCapacity = 10

// ErrInvalidCapacity indicates a buffer was requested with fewer than one slot
var ErrInvalidCapacity = errors.New("buffer capacity must be at least 1")

type slot struct {
	value  float64
	filled bool
}

// Buffer is a circular buffer of the most recent values.
// It is not safe for concurrent use.
type Buffer struct {
	slots []slot
	next  int
}

// New creates a buffer holding up to capacity values, all slots empty
func New(capacity int) (*Buffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	return &Buffer{slots: make([]slot, capacity)}, nil
}

// Insert overwrites the oldest slot with value
func (b *Buffer) Insert(value float64) {
	b.slots[b.next] = slot{value: value, filled: true}
	b.next = (b.next + 1) % len(b.slots)
}

// Average returns the arithmetic mean of the filled slots.
// An empty buffer averages to 0.
func (b *Buffer) Average() float64 {
	var sum float64
	count := 0
	for _, s := range b.slots {
		if s.filled {
			sum += s.value
			count++
		}
	}
	if count == 0 {
		return sum
	}
	return sum / float64(count)
}

// Len returns the number of filled slots
func (b *Buffer) Len() int {
	n := 0
	for _, s := range b.slots {
		if s.filled {
			n++
		}
	}
	return n
}

// Cap returns the buffer capacity
func (b *Buffer) Cap() int {
	return len(b.slots)
}
