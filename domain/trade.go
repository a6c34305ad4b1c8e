package domain

import (
	"strconv"
	"time"
)

// Trade is one execution pairing a resting ask and a resting bid.
// Its price comes from the book's execution price policy.
type Trade struct {
	Seq        uint64 // per-book execution sequence, starts at 1
	AskOrderID uint64
	BidOrderID uint64
	Price      Price
	Quantity   int64
	ExecutedAt time.Time

	// IsBuyerMaker is true when the bid was resting before the ask arrived.
	// Audit only; it never affects the execution price.
	IsBuyerMaker bool
}

// NewTrade builds a trade record between an ask and a bid order
func NewTrade(seq, askOrderID, bidOrderID uint64, price Price, quantity int64) Trade {
	return Trade{
		Seq:          seq,
		AskOrderID:   askOrderID,
		BidOrderID:   bidOrderID,
		Price:        price,
		Quantity:     quantity,
		ExecutedAt:   time.Now(),
		IsBuyerMaker: bidOrderID < askOrderID,
	}
}

// OrderIDFor returns the id of the order on the given side of this trade
func (t Trade) OrderIDFor(side Side) uint64 {
	if side == SideSell {
		return t.AskOrderID
	}
	return t.BidOrderID
}

// ID returns the display id of the trade ("T1", "T2", ...)
func (t Trade) ID() string {
	return "T" + strconv.FormatUint(t.Seq, 10)
}
