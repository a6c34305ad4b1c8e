package orderbook

import "lightning-cross/domain"

// ladder is the ordered set of price levels for one side.
// Asks iterate ascending and bids descending, so best() is always the
// first level in iteration order for both sides.
//
// Implementations must never hold an empty level: the matcher calls
// remove as soon as a level drains.
type ladder interface {
	// insert appends the order to the tail of its price level, creating the level if needed
	insert(order *Order)

	// best returns the best price level, nil when the ladder is empty
	best() *priceLevel

	// level returns the level at an exact price, nil if none
	level(price domain.Price) *priceLevel

	// remove drops an empty level from the ladder
	remove(level *priceLevel)

	// walk visits levels best first until fn returns false
	walk(fn func(level *priceLevel) bool)

	// empty reports whether there are no resting orders
	empty() bool

	// size returns the number of price levels
	size() int
}

// LadderType selects the ladder implementation
type LadderType int

const (
	// TreeLadder keeps levels in a red-black tree.
	// Best price O(log n), insert of a new level O(log n), removal O(log n).
	TreeLadder LadderType = iota

	// ListLadder keeps levels in a hash map plus a sorted doubly linked list.
	// Best price O(1), removal O(1), insert of a new level O(n) worst case.
	// Suits books where most activity sits near the touch.
	ListLadder
)

// ParseLadderType maps a config token to a LadderType
func ParseLadderType(s string) (LadderType, bool) {
	switch s {
	case "tree", "":
		return TreeLadder, true
	case "list":
		return ListLadder, true
	default:
		return TreeLadder, false
	}
}

func (t LadderType) String() string {
	if t == ListLadder {
		return "list"
	}
	return "tree"
}

// newLadder creates a ladder; descending is true for bids
func newLadder(t LadderType, descending bool) ladder {
	switch t {
	case ListLadder:
		return newListLadder(descending)
	case TreeLadder:
		fallthrough
	default:
		return newTreeLadder(descending)
	}
}

// depth collects up to maxLevels level summaries, best first
func depth(l ladder, maxLevels int) []PriceLevel {
	if maxLevels <= 0 || l.empty() {
		return nil
	}
	out := make([]PriceLevel, 0, min(maxLevels, l.size()))
	l.walk(func(level *priceLevel) bool {
		out = append(out, level.summary())
		return len(out) < maxLevels
	})
	return out
}
