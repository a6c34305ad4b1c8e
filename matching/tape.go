package matching

import (
	"sync"

	"github.com/emirpasic/gods/v2/queues/circularbuffer"

	"lightning-cross/domain"
)

// DefaultTapeSize is how many recent trades the tape keeps
const DefaultTapeSize = 1000

// Tape keeps the most recent trades in a fixed-size ring, oldest evicted first
type Tape struct {
	mu    sync.RWMutex
	ring  *circularbuffer.Queue[domain.Trade]
	total uint64
}

// NewTape creates a tape holding up to size trades
func NewTape(size int) *Tape {
	if size < 1 {
		size = 1
	}
	return &Tape{
		ring: circularbuffer.New[domain.Trade](size),
	}
}

// Append records trades in execution order
func (t *Tape) Append(trades ...domain.Trade) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, trade := range trades {
		if t.ring.Full() {
			t.ring.Dequeue()
		}
		t.ring.Enqueue(trade)
		t.total++
	}
}

// Recent returns up to n of the latest trades, oldest first
func (t *Tape) Recent(n int) []domain.Trade {
	t.mu.RLock()
	defer t.mu.RUnlock()

	all := t.ring.Values()
	if n <= 0 || n > len(all) {
		n = len(all)
	}
	out := make([]domain.Trade, n)
	copy(out, all[len(all)-n:])
	return out
}

// Len returns the number of trades currently held
func (t *Tape) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ring.Size()
}

// Total returns the number of trades ever appended
func (t *Tape) Total() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}
