package orderbook

import (
	"lightning-cross/domain"

	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"
)

// priceLevel represents all resting orders at one price on one side.
// The queue gives time priority: the head has waited longest.
// A level exists in its ladder only while it holds at least one order.
type priceLevel struct {
	price  domain.Price
	orders *linkedlistqueue.Queue[*Order]
	volume int64 // sum of remaining quantity in the queue

	// Neighbour links, used only by listLadder
	next *priceLevel // next worse price
	prev *priceLevel // next better price
}

func newPriceLevel(price domain.Price) *priceLevel {
	return &priceLevel{
		price:  price,
		orders: linkedlistqueue.New[*Order](),
	}
}

// push appends an order at the tail (lowest time priority)
func (l *priceLevel) push(o *Order) {
	l.orders.Enqueue(o)
	l.volume += o.remaining
}

// head returns the order with the highest time priority, nil if empty
func (l *priceLevel) head() *Order {
	o, ok := l.orders.Peek()
	if !ok {
		return nil
	}
	return o
}

// pop removes the head order
func (l *priceLevel) pop() *Order {
	o, ok := l.orders.Dequeue()
	if !ok {
		return nil
	}
	return o
}

// fill executes quantity against an order in this level and keeps volume in step
func (l *priceLevel) fill(o *Order, quantity int64) {
	o.fill(quantity)
	l.volume -= quantity
}

func (l *priceLevel) len() int {
	return l.orders.Size()
}

func (l *priceLevel) empty() bool {
	return l.orders.Empty()
}

func (l *priceLevel) summary() PriceLevel {
	return PriceLevel{
		Price:    l.price,
		Quantity: l.volume,
		Orders:   l.orders.Size(),
	}
}

// views copies the queue in priority order
func (l *priceLevel) views() []OrderView {
	orders := l.orders.Values()
	out := make([]OrderView, len(orders))
	for i, o := range orders {
		out[i] = o.view()
	}
	return out
}

// PriceLevel is the aggregate, read-only view of one price level
type PriceLevel struct {
	Price    domain.Price
	Quantity int64
	Orders   int // number of orders at this level
}
