package orderbook

import (
	"math"

	"lightning-cross/domain"
)

// BestBid returns the highest buy price
func (ob *OrderBook) BestBid() (domain.Price, bool) {
	return bestPrice(ob.bids)
}

// BestAsk returns the lowest sell price
func (ob *OrderBook) BestAsk() (domain.Price, bool) {
	return bestPrice(ob.asks)
}

func bestPrice(l ladder) (domain.Price, bool) {
	level := l.best()
	if level == nil {
		return 0, false
	}
	return level.price, true
}

// Spread returns best ask minus best bid, false if either side is empty
func (ob *OrderBook) Spread() (domain.Price, bool) {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	if !okBid || !okAsk {
		return 0, false
	}
	return ask - bid, true
}

// Crossed reports whether best bid >= best ask.
// Between operations this is always false.
func (ob *OrderBook) Crossed() bool {
	bid, okBid := ob.BestBid()
	ask, okAsk := ob.BestAsk()
	return okBid && okAsk && bid >= ask
}

// DepthAt returns the resting quantity at one exact price on one side
func (ob *OrderBook) DepthAt(side domain.Side, price domain.Price) int64 {
	level := ob.side(side).level(price)
	if level == nil {
		return 0
	}
	return level.volume
}

// Volume returns the total resting quantity on one side,
// capped at math.MaxInt64 when the levels together exceed it
func (ob *OrderBook) Volume(side domain.Side) int64 {
	var total int64
	ob.side(side).walk(func(level *priceLevel) bool {
		if level.volume > math.MaxInt64-total {
			total = math.MaxInt64
			return false
		}
		total += level.volume
		return true
	})
	return total
}

// OrderCount returns the number of resting orders on one side
func (ob *OrderBook) OrderCount(side domain.Side) int {
	count := 0
	ob.side(side).walk(func(level *priceLevel) bool {
		count += level.len()
		return true
	})
	return count
}

// LevelCount returns the number of price levels on one side
func (ob *OrderBook) LevelCount(side domain.Side) int {
	return ob.side(side).size()
}

// Depth returns the top levels of each side, best first
func (ob *OrderBook) Depth(levels int) (bids, asks []PriceLevel) {
	return depth(ob.bids, levels), depth(ob.asks, levels)
}

// Orders returns copies of the resting orders on one side in priority order:
// best price first, then arrival order within a price.
func (ob *OrderBook) Orders(side domain.Side) []OrderView {
	var out []OrderView
	ob.side(side).walk(func(level *priceLevel) bool {
		out = append(out, level.views()...)
		return true
	})
	return out
}

// LastOrderID returns the most recently assigned order id, 0 if none
func (ob *OrderBook) LastOrderID() uint64 {
	return ob.orderIDs.Last()
}

// LastTradeSeq returns the sequence of the most recent trade, 0 if none
func (ob *OrderBook) LastTradeSeq() uint64 {
	return ob.tradeSeq
}

// Snapshot is a consistent read-only copy of the book's top of book and depth
type Snapshot struct {
	Symbol       string
	BestBid      domain.Price
	HasBid       bool
	BestAsk      domain.Price
	HasAsk       bool
	Bids         []PriceLevel
	Asks         []PriceLevel
	BidVolume    int64
	AskVolume    int64
	BidOrders    int
	AskOrders    int
	LastOrderID  uint64
	LastTradeSeq uint64
	Halted       bool
}

// Snapshot captures the book with up to levels price levels per side
func (ob *OrderBook) Snapshot(levels int) Snapshot {
	snap := Snapshot{
		Symbol:       ob.symbol,
		BidVolume:    ob.Volume(domain.SideBuy),
		AskVolume:    ob.Volume(domain.SideSell),
		BidOrders:    ob.OrderCount(domain.SideBuy),
		AskOrders:    ob.OrderCount(domain.SideSell),
		LastOrderID:  ob.LastOrderID(),
		LastTradeSeq: ob.tradeSeq,
		Halted:       ob.halted,
	}
	snap.BestBid, snap.HasBid = ob.BestBid()
	snap.BestAsk, snap.HasAsk = ob.BestAsk()
	snap.Bids, snap.Asks = ob.Depth(levels)
	return snap
}
