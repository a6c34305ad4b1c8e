package orderbook

import (
	"fmt"
	"time"

	"lightning-cross/domain"
)

// Order is one unit of resting or incoming interest.
// Identity, side and price never change after construction. Remaining
// quantity only decreases, and only through fill, which is reserved to the
// matching loop in this package.
type Order struct {
	id          uint64
	side        domain.Side
	price       domain.Price
	remaining   int64
	original    int64
	submittedAt time.Time // audit only; FIFO order comes from queue position
}

// NewOrder creates a new limit order
func NewOrder(id uint64, side domain.Side, price domain.Price, quantity int64) (*Order, error) {
	if err := validate(side, price, quantity); err != nil {
		return nil, err
	}
	return &Order{
		id:          id,
		side:        side,
		price:       price,
		remaining:   quantity,
		original:    quantity,
		submittedAt: time.Now(),
	}, nil
}

func validate(side domain.Side, price domain.Price, quantity int64) error {
	if !side.Valid() {
		return fmt.Errorf("%w: unknown side %d", domain.ErrInvalidOrder, int(side))
	}
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive, got %d", domain.ErrInvalidOrder, price)
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", domain.ErrInvalidOrder, quantity)
	}
	return nil
}

// ID returns the engine-assigned order id
func (o *Order) ID() uint64 {
	return o.id
}

func (o *Order) Side() domain.Side {
	return o.side
}

func (o *Order) Price() domain.Price {
	return o.price
}

// Remaining returns the unfilled quantity
func (o *Order) Remaining() int64 {
	return o.remaining
}

func (o *Order) Original() int64 {
	return o.original
}

func (o *Order) SubmittedAt() time.Time {
	return o.submittedAt
}

// Filled returns the executed quantity so far
func (o *Order) Filled() int64 {
	return o.original - o.remaining
}

// IsFilled returns true if the order is fully filled
func (o *Order) IsFilled() bool {
	return o.remaining == 0
}

func (o *Order) view() OrderView {
	return OrderView{
		ID:          o.id,
		Side:        o.side,
		Price:       o.price,
		Remaining:   o.remaining,
		Original:    o.original,
		SubmittedAt: o.submittedAt,
	}
}

// fill reduces the remaining quantity by an executed amount.
// quantity never exceeds remaining: the matcher trades min(ask, bid).
func (o *Order) fill(quantity int64) {
	if quantity <= 0 || quantity > o.remaining {
		panic(fmt.Sprintf("orderbook: fill %d on order %d with %d remaining", quantity, o.id, o.remaining))
	}
	o.remaining -= quantity
}

// OrderView is a read-only copy of a resting order
type OrderView struct {
	ID          uint64
	Side        domain.Side
	Price       domain.Price
	Remaining   int64
	Original    int64
	SubmittedAt time.Time
}
