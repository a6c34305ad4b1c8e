package orderbook

import "lightning-cross/domain"

// listLadder keeps levels in a map keyed by price and threads them, best
// first, through the levels' own next/prev pointers. The best level is read
// without a search and an emptied level unlinks in constant time. Only a new
// price pays for a walk, and new prices usually land near the touch.
type listLadder struct {
	levels     map[domain.Price]*priceLevel
	bestLevel  *priceLevel
	descending bool // bids
}

var _ ladder = (*listLadder)(nil)

func newListLadder(descending bool) *listLadder {
	return &listLadder{
		levels:     make(map[domain.Price]*priceLevel),
		descending: descending,
	}
}

func (ll *listLadder) insert(order *Order) {
	level, exists := ll.levels[order.price]
	if !exists {
		level = newPriceLevel(order.price)
		ll.levels[order.price] = level
		ll.link(level)
	}
	level.push(order)
}

func (ll *listLadder) best() *priceLevel {
	return ll.bestLevel
}

func (ll *listLadder) level(price domain.Price) *priceLevel {
	return ll.levels[price]
}

// remove forgets an emptied level
func (ll *listLadder) remove(level *priceLevel) {
	if ll.levels[level.price] != level {
		return
	}
	delete(ll.levels, level.price)

	if level.prev != nil {
		level.prev.next = level.next
	}
	if level.next != nil {
		level.next.prev = level.prev
	}
	if ll.bestLevel == level {
		ll.bestLevel = level.next
	}
	level.next, level.prev = nil, nil
}

func (ll *listLadder) walk(fn func(level *priceLevel) bool) {
	for current := ll.bestLevel; current != nil; current = current.next {
		if !fn(current) {
			return
		}
	}
}

func (ll *listLadder) empty() bool {
	return ll.bestLevel == nil
}

func (ll *listLadder) size() int {
	return len(ll.levels)
}

// link threads a new level in behind every level that outranks it
func (ll *listLadder) link(level *priceLevel) {
	var prev *priceLevel
	next := ll.bestLevel
	for next != nil && !ll.ahead(level.price, next.price) {
		prev, next = next, next.next
	}

	level.prev, level.next = prev, next
	if next != nil {
		next.prev = level
	}
	if prev == nil {
		ll.bestLevel = level
	} else {
		prev.next = level
	}
}

// ahead reports whether price a is matched before price b on this side
func (ll *listLadder) ahead(a, b domain.Price) bool {
	if ll.descending {
		return a > b
	}
	return a < b
}
