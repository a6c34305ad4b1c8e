package matching

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"sync"

	"go.uber.org/zap"

	"lightning-cross/domain"
	"lightning-cross/orderbook"
)

// ErrEngineStopped is returned to callers once the engine has shut down
var ErrEngineStopped = errors.New("matching engine stopped")

// DefaultQueueSize bounds the number of commands waiting for the matching goroutine
const DefaultQueueSize = 1024

// command runs on the matching goroutine with exclusive access to the book
type command func(ob *orderbook.OrderBook)

// MatchingEngine serializes every access to one OrderBook
// Architecture:
//   - Runs the book in a dedicated goroutine with runtime.LockOSThread() to reduce context switches
//   - Submissions and queries are commands on a buffered channel, executed one at a time to completion
//   - A submission's validation, insertion and matching never interleave with another command,
//     so no caller ever observes a crossed or half-matched book
//   - Trades leave through the TradeFeed; no I/O happens on the matching goroutine
type MatchingEngine struct {
	book     *orderbook.OrderBook
	commands chan command
	feed     *TradeFeed
	log      *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	stopChan  chan struct{} // closed by Stop
	done      chan struct{} // closed when the matching goroutine exits
}

// Option customizes a MatchingEngine
type Option func(*engineOptions)

type engineOptions struct {
	queueSize   int
	feed        *TradeFeed
	logger      *zap.Logger
	bookOptions []orderbook.Option
}

// WithQueueSize sets the command buffer size
func WithQueueSize(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithTradeFeed publishes every trade to feed
func WithTradeFeed(feed *TradeFeed) Option {
	return func(o *engineOptions) {
		o.feed = feed
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBookOptions passes options through to the OrderBook
func WithBookOptions(opts ...orderbook.Option) Option {
	return func(o *engineOptions) {
		o.bookOptions = append(o.bookOptions, opts...)
	}
}

// NewMatchingEngine creates a matching engine for one instrument.
// Call Start before submitting.
func NewMatchingEngine(symbol string, opts ...Option) *MatchingEngine {
	o := engineOptions{
		queueSize: DefaultQueueSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &MatchingEngine{
		book:     orderbook.NewOrderBook(symbol, o.bookOptions...),
		commands: make(chan command, o.queueSize),
		feed:     o.feed,
		log:      o.logger.With(zap.String("symbol", symbol)),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start starts the matching loop in a dedicated goroutine
func (me *MatchingEngine) Start() {
	me.startOnce.Do(func() {
		go me.run()
	})
}

func (me *MatchingEngine) run() {
	// Lock this goroutine to an OS thread to reduce context switches
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(me.done)

	me.log.Info("matching engine started", zap.Int("queue_size", cap(me.commands)))

	for {
		select {
		case cmd := <-me.commands:
			cmd(me.book)
		case <-me.stopChan:
			me.log.Info("matching engine stopped",
				zap.Uint64("last_order_id", me.book.LastOrderID()),
				zap.Uint64("last_trade_seq", me.book.LastTradeSeq()),
			)
			return
		}
	}
}

// Stop stops the matching engine and waits for the loop to exit.
// Callers still waiting get ErrEngineStopped. Safe to call more than once.
func (me *MatchingEngine) Stop() {
	me.stopOnce.Do(func() {
		close(me.stopChan)
	})
	// Never started: nothing to wait for, and Start becomes a no-op
	me.startOnce.Do(func() {
		close(me.done)
	})
	<-me.done
}

// Done is closed once the matching loop has exited
func (me *MatchingEngine) Done() <-chan struct{} {
	return me.done
}

// Symbol returns the instrument this engine matches
func (me *MatchingEngine) Symbol() string {
	return me.book.Symbol()
}

// Feed returns the trade feed, nil if none was configured
func (me *MatchingEngine) Feed() *TradeFeed {
	return me.feed
}

// Submit places a limit order and runs matching to exhaustion.
// Once the command is accepted it runs to completion even if ctx ends first.
func (me *MatchingEngine) Submit(ctx context.Context, side domain.Side, price domain.Price, quantity int64) (orderbook.SubmitResult, error) {
	type reply struct {
		result orderbook.SubmitResult
		err    error
	}

	r, err := call(ctx, me, func(ob *orderbook.OrderBook) reply {
		wasHalted := ob.Halted()
		result, err := ob.Submit(side, price, quantity)
		if err != nil {
			if !wasHalted && ob.Halted() {
				me.log.Error("order id space exhausted, engine no longer accepts orders", zap.Error(err))
			}
			return reply{err: err}
		}
		me.publish(result.Trades)
		return reply{result: result}
	})
	if err != nil {
		return orderbook.SubmitResult{}, err
	}
	return r.result, r.err
}

// Snapshot returns a consistent view of the book with up to levels price levels per side
func (me *MatchingEngine) Snapshot(ctx context.Context, levels int) (orderbook.Snapshot, error) {
	return call(ctx, me, func(ob *orderbook.OrderBook) orderbook.Snapshot {
		return ob.Snapshot(levels)
	})
}

// Orders returns the resting orders on one side in priority order
func (me *MatchingEngine) Orders(ctx context.Context, side domain.Side) ([]orderbook.OrderView, error) {
	return call(ctx, me, func(ob *orderbook.OrderBook) []orderbook.OrderView {
		return ob.Orders(side)
	})
}

// DepthAt returns the resting quantity at one price
func (me *MatchingEngine) DepthAt(ctx context.Context, side domain.Side, price domain.Price) (int64, error) {
	return call(ctx, me, func(ob *orderbook.OrderBook) int64 {
		return ob.DepthAt(side, price)
	})
}

// View runs fn inside the critical section. fn must only read the book
// and must not keep the pointer after it returns.
func (me *MatchingEngine) View(ctx context.Context, fn func(ob *orderbook.OrderBook)) error {
	_, err := call(ctx, me, func(ob *orderbook.OrderBook) struct{} {
		fn(ob)
		return struct{}{}
	})
	return err
}

// publish hands a copy of the trades to the feed; callers keep the original slice
func (me *MatchingEngine) publish(trades []domain.Trade) {
	if me.feed == nil || len(trades) == 0 {
		return
	}
	me.feed.publish(slices.Clone(trades))
}

// call runs fn on the matching goroutine and waits for its result
func call[T any](ctx context.Context, me *MatchingEngine, fn func(ob *orderbook.OrderBook) T) (T, error) {
	var zero T
	out := make(chan T, 1)
	cmd := func(ob *orderbook.OrderBook) {
		out <- fn(ob)
	}

	select {
	case <-me.stopChan:
		return zero, ErrEngineStopped
	default:
	}

	select {
	case me.commands <- cmd:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-me.stopChan:
		return zero, ErrEngineStopped
	}

	select {
	case v := <-out:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-me.done:
		// The loop may have answered right before exiting
		select {
		case v := <-out:
			return v, nil
		default:
			return zero, ErrEngineStopped
		}
	}
}
