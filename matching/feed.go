package matching

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"lightning-cross/domain"
)

// DefaultFeedBuffer is the number of trade batches queued between the engine and the dispatcher
const DefaultFeedBuffer = 4096

// DefaultSubscriberBuffer is the number of trades a subscriber may fall behind before it loses any
const DefaultSubscriberBuffer = 4096

// TradeFeed fans trades out of the matching goroutine
// Architecture:
//   - The engine hands each submission's trades over as one batch (channel send, no I/O)
//   - A dispatcher goroutine appends to the Tape, logs, and copies to every subscriber
//   - Subscriber channels are written non-blocking: a slow subscriber loses trades,
//     it never stalls matching
type TradeFeed struct {
	in   chan []domain.Trade
	tape *Tape
	log  *zap.Logger

	mu      sync.Mutex
	subs    map[uint64]chan domain.Trade
	nextSub uint64
	closed  bool

	dropped   atomic.Uint64
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewTradeFeed creates and starts a feed. tape and logger may be nil.
func NewTradeFeed(buffer int, tape *Tape, logger *zap.Logger) *TradeFeed {
	if buffer < 1 {
		buffer = DefaultFeedBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &TradeFeed{
		in:   make(chan []domain.Trade, buffer),
		tape: tape,
		log:  logger,
		subs: make(map[uint64]chan domain.Trade),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go f.run()
	return f
}

// Subscribe registers a subscriber with its own buffer of trades
// (DefaultSubscriberBuffer when buffer < 1).
// The returned function unsubscribes and closes the channel.
func (f *TradeFeed) Subscribe(buffer int) (<-chan domain.Trade, func()) {
	if buffer < 1 {
		buffer = DefaultSubscriberBuffer
	}
	ch := make(chan domain.Trade, buffer)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		close(ch)
		return ch, func() {}
	}

	f.nextSub++
	id := f.nextSub
	f.subs[id] = ch

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
	}
}

// Tape returns the tape the feed records into, nil if none
func (f *TradeFeed) Tape() *Tape {
	return f.tape
}

// Dropped returns how many subscriber deliveries were skipped
func (f *TradeFeed) Dropped() uint64 {
	return f.dropped.Load()
}

// Close drains queued batches, closes all subscriber channels and stops the dispatcher
func (f *TradeFeed) Close() {
	f.closeOnce.Do(func() {
		close(f.stop)
	})
	<-f.done
}

// publish is called from the matching goroutine
func (f *TradeFeed) publish(batch []domain.Trade) {
	select {
	case f.in <- batch:
	case <-f.stop:
	}
}

func (f *TradeFeed) run() {
	defer close(f.done)

	for {
		select {
		case batch := <-f.in:
			f.dispatch(batch)
		case <-f.stop:
			for {
				select {
				case batch := <-f.in:
					f.dispatch(batch)
				default:
					f.closeSubscribers()
					return
				}
			}
		}
	}
}

func (f *TradeFeed) dispatch(batch []domain.Trade) {
	if f.tape != nil {
		f.tape.Append(batch...)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, trade := range batch {
		f.log.Debug("trade executed",
			zap.String("trade_id", trade.ID()),
			zap.Int64("price", int64(trade.Price)),
			zap.Int64("quantity", trade.Quantity),
			zap.Uint64("ask_order_id", trade.AskOrderID),
			zap.Uint64("bid_order_id", trade.BidOrderID),
		)
		for id, ch := range f.subs {
			select {
			case ch <- trade:
			default:
				f.dropped.Add(1)
				f.log.Warn("trade feed subscriber lagging, trade dropped",
					zap.Uint64("subscriber", id),
					zap.String("trade_id", trade.ID()),
				)
			}
		}
	}
}

func (f *TradeFeed) closeSubscribers() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}
