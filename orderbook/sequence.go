package orderbook

import (
	"math"

	"lightning-cross/domain"
)

// Sequence hands out process-lifetime unique ids: 1, 2, 3, ...
// It is not safe for concurrent use; the book's owner serializes access.
// Ids are never reused: once the space is exhausted every call fails.
type Sequence struct {
	last  uint64
	limit uint64
}

// NewSequence creates a sequence covering the full uint64 range
func NewSequence() *Sequence {
	return &Sequence{limit: math.MaxUint64}
}

// NewSequenceWithLimit creates a sequence that issues ids up to limit inclusive
func NewSequenceWithLimit(limit uint64) *Sequence {
	return &Sequence{limit: limit}
}

// Next returns the next id, or ErrCapacityExceeded on wraparound
func (s *Sequence) Next() (uint64, error) {
	if s.last >= s.limit {
		return 0, domain.ErrCapacityExceeded
	}
	s.last++
	return s.last, nil
}

// Last returns the most recently issued id, 0 if none
func (s *Sequence) Last() uint64 {
	return s.last
}
