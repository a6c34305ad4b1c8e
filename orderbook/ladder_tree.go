package orderbook

import (
	"cmp"

	"lightning-cross/domain"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"
)

// treeLadder is an ordered map of price -> level backed by a red-black tree.
// The comparator is inverted for bids so Left() is the best level on both sides.
type treeLadder struct {
	levels *rbt.Tree[domain.Price, *priceLevel]
}

var _ ladder = (*treeLadder)(nil)

func newTreeLadder(descending bool) *treeLadder {
	comparator := func(a, b domain.Price) int {
		return cmp.Compare(a, b)
	}
	if descending {
		comparator = func(a, b domain.Price) int {
			return cmp.Compare(b, a)
		}
	}
	return &treeLadder{
		levels: rbt.NewWith[domain.Price, *priceLevel](comparator),
	}
}

func (t *treeLadder) insert(order *Order) {
	level, found := t.levels.Get(order.price)
	if !found {
		level = newPriceLevel(order.price)
		t.levels.Put(order.price, level)
	}
	level.push(order)
}

func (t *treeLadder) best() *priceLevel {
	node := t.levels.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

func (t *treeLadder) level(price domain.Price) *priceLevel {
	level, found := t.levels.Get(price)
	if !found {
		return nil
	}
	return level
}

func (t *treeLadder) remove(level *priceLevel) {
	t.levels.Remove(level.price)
}

func (t *treeLadder) walk(fn func(level *priceLevel) bool) {
	it := t.levels.Iterator()
	for it.Next() {
		if !fn(it.Value()) {
			return
		}
	}
}

func (t *treeLadder) empty() bool {
	return t.levels.Empty()
}

func (t *treeLadder) size() int {
	return t.levels.Size()
}
