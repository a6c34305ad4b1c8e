package orderbook

import (
	"fmt"
	"math"

	"lightning-cross/domain"
)

// OrderBook implements a price-time priority continuous double auction
// for one instrument.
//
// Not synchronized: the owner (matching.Engine) runs every call on a single
// goroutine, so each Submit, including the match it triggers, is atomic with
// respect to every query.
type OrderBook struct {
	symbol   string
	bids     ladder // buy orders (descending price)
	asks     ladder // sell orders (ascending price)
	orderIDs *Sequence
	tradeSeq uint64 // bounded by order ids: every trade retires at least one order
	halted   bool   // set once the id space is exhausted
	pricing  ExecutionPrice
}

// ExecutionPrice decides which level's price a trade executes at.
// Both choices lie within [best ask, best bid] of the crossing pair.
type ExecutionPrice int

const (
	// PriceAtMaker executes at the price of the order that was resting first.
	// Only the newest order can cross a stable book, so this is the passive side.
	// It is the default: a sell sweeping bids at 51 then 50 prints 51 then 50.
	PriceAtMaker ExecutionPrice = iota

	// PriceAtAsk always executes at the best ask, whichever side arrived last.
	// This is the convention of the engine this book replaces (config token "ask");
	// the same sweep prints at the sell's own limit for every fill.
	PriceAtAsk
)

// ParseExecutionPrice maps a config token to an ExecutionPrice
func ParseExecutionPrice(s string) (ExecutionPrice, bool) {
	switch s {
	case "maker", "":
		return PriceAtMaker, true
	case "ask":
		return PriceAtAsk, true
	default:
		return PriceAtMaker, false
	}
}

func (p ExecutionPrice) String() string {
	if p == PriceAtAsk {
		return "ask"
	}
	return "maker"
}

// Option customizes a new OrderBook
type Option func(*OrderBook)

// WithLadderType selects the price ladder implementation for both sides
func WithLadderType(t LadderType) Option {
	return func(ob *OrderBook) {
		ob.bids = newLadder(t, true)
		ob.asks = newLadder(t, false)
	}
}

// WithExecutionPrice sets the trade pricing rule
func WithExecutionPrice(p ExecutionPrice) Option {
	return func(ob *OrderBook) {
		ob.pricing = p
	}
}

// WithSequence replaces the order id sequence
func WithSequence(seq *Sequence) Option {
	return func(ob *OrderBook) {
		ob.orderIDs = seq
	}
}

// NewOrderBook creates an empty order book
func NewOrderBook(symbol string, opts ...Option) *OrderBook {
	ob := &OrderBook{
		symbol:   symbol,
		bids:     newLadder(TreeLadder, true),
		asks:     newLadder(TreeLadder, false),
		orderIDs: NewSequence(),
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

// SubmitResult is what one submission produced
type SubmitResult struct {
	OrderID   uint64
	Trades    []domain.Trade // in execution order; empty when nothing crossed
	Remaining int64          // quantity of the new order left resting
}

// Submit validates, assigns an id, rests the order at the tail of its price
// level and runs matching to exhaustion.
//
// On ErrInvalidOrder the book is untouched and no id is consumed.
// ErrCapacityExceeded is permanent for this book.
func (ob *OrderBook) Submit(side domain.Side, price domain.Price, quantity int64) (SubmitResult, error) {
	if ob.halted {
		return SubmitResult{}, domain.ErrCapacityExceeded
	}
	if err := validate(side, price, quantity); err != nil {
		return SubmitResult{}, err
	}
	if resting := ob.DepthAt(side, price); quantity > math.MaxInt64-resting {
		return SubmitResult{}, fmt.Errorf("%w: quantity %d would overflow %d resting at %d",
			domain.ErrInvalidOrder, quantity, resting, price)
	}

	id, err := ob.orderIDs.Next()
	if err != nil {
		ob.halted = true
		return SubmitResult{}, err
	}

	order, err := NewOrder(id, side, price, quantity)
	if err != nil {
		return SubmitResult{}, err
	}
	ob.side(side).insert(order)

	trades := ob.match()

	return SubmitResult{
		OrderID:   id,
		Trades:    trades,
		Remaining: order.remaining,
	}, nil
}

// match crosses the book until it is stable.
//
// Each pass trades the head of the best ask level against the head of the
// best bid level, then retires whatever filled. Every pass removes at least
// one order, so the loop ends after at most as many passes as there are
// resting orders.
func (ob *OrderBook) match() []domain.Trade {
	var trades []domain.Trade

	for {
		askLevel := ob.asks.best()
		bidLevel := ob.bids.best()

		// One side empty: nothing can trade
		if askLevel == nil || bidLevel == nil {
			break
		}

		// Spread not crossed: market is stable
		if bidLevel.price < askLevel.price {
			break
		}

		askOrder := askLevel.head()
		bidOrder := bidLevel.head()

		quantity := min(askOrder.remaining, bidOrder.remaining)
		askLevel.fill(askOrder, quantity)
		bidLevel.fill(bidOrder, quantity)

		price := ob.executionPrice(askLevel, bidLevel, askOrder, bidOrder)
		ob.tradeSeq++
		trades = append(trades, domain.NewTrade(ob.tradeSeq, askOrder.id, bidOrder.id, price, quantity))

		if askOrder.IsFilled() {
			askLevel.pop()
		}
		if bidOrder.IsFilled() {
			bidLevel.pop()
		}

		if askLevel.empty() {
			ob.asks.remove(askLevel)
		}
		if bidLevel.empty() {
			ob.bids.remove(bidLevel)
		}
	}

	return trades
}

func (ob *OrderBook) executionPrice(askLevel, bidLevel *priceLevel, askOrder, bidOrder *Order) domain.Price {
	if ob.pricing == PriceAtMaker && bidOrder.id < askOrder.id {
		return bidLevel.price
	}
	return askLevel.price
}

func (ob *OrderBook) side(side domain.Side) ladder {
	if side == domain.SideBuy {
		return ob.bids
	}
	return ob.asks
}

// Symbol returns the instrument label
func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

// Halted reports whether the id space is exhausted
func (ob *OrderBook) Halted() bool {
	return ob.halted
}
