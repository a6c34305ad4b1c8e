package orderbook

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"lightning-cross/domain"
)

var ladderTypes = []LadderType{TreeLadder, ListLadder}

func mustSubmit(t *testing.T, ob *OrderBook, side domain.Side, price domain.Price, qty int64) SubmitResult {
	t.Helper()
	res, err := ob.Submit(side, price, qty)
	if err != nil {
		t.Fatalf("submit %v %d %d: %v", side, price, qty, err)
	}
	return res
}

func assertTrade(t *testing.T, trade domain.Trade, price domain.Price, qty int64, askID, bidID uint64) {
	t.Helper()
	if trade.Price != price || trade.Quantity != qty {
		t.Errorf("expected trade %d @ %d, got %d @ %d", qty, price, trade.Quantity, trade.Price)
	}
	if trade.AskOrderID != askID || trade.BidOrderID != bidID {
		t.Errorf("expected ask %d / bid %d, got ask %d / bid %d", askID, bidID, trade.AskOrderID, trade.BidOrderID)
	}
}

// TestScenarioA sell 100x5 then buy 101x3
func TestScenarioA(t *testing.T) {
	for _, lt := range ladderTypes {
		t.Run(lt.String(), func(t *testing.T) {
			ob := NewOrderBook("TEST", WithLadderType(lt))

			sell := mustSubmit(t, ob, domain.SideSell, 100, 5)
			buy := mustSubmit(t, ob, domain.SideBuy, 101, 3)

			if len(sell.Trades) != 0 {
				t.Fatalf("expected no trades on first order, got %d", len(sell.Trades))
			}
			if len(buy.Trades) != 1 {
				t.Fatalf("expected 1 trade, got %d", len(buy.Trades))
			}
			assertTrade(t, buy.Trades[0], 100, 3, sell.OrderID, buy.OrderID)

			if got := ob.DepthAt(domain.SideSell, 100); got != 2 {
				t.Errorf("expected resting ask 100 qty 2, got %d", got)
			}
			if _, ok := ob.BestBid(); ok {
				t.Error("expected no resting bid")
			}
			if buy.Remaining != 0 {
				t.Errorf("expected buy fully filled, remaining %d", buy.Remaining)
			}
		})
	}
}

// TestScenarioB two bids then a sell sweeping both levels
func TestScenarioB(t *testing.T) {
	for _, lt := range ladderTypes {
		t.Run(lt.String(), func(t *testing.T) {
			ob := NewOrderBook("TEST", WithLadderType(lt))

			bid50 := mustSubmit(t, ob, domain.SideBuy, 50, 10)
			bid51 := mustSubmit(t, ob, domain.SideBuy, 51, 5)
			sell := mustSubmit(t, ob, domain.SideSell, 49, 12)

			if len(sell.Trades) != 2 {
				t.Fatalf("expected 2 trades, got %d", len(sell.Trades))
			}
			assertTrade(t, sell.Trades[0], 51, 5, sell.OrderID, bid51.OrderID)
			assertTrade(t, sell.Trades[1], 50, 7, sell.OrderID, bid50.OrderID)
			if sell.Trades[0].Seq >= sell.Trades[1].Seq {
				t.Errorf("trade sequence not increasing: %d then %d", sell.Trades[0].Seq, sell.Trades[1].Seq)
			}

			if got := ob.DepthAt(domain.SideBuy, 50); got != 3 {
				t.Errorf("expected resting bid 50 qty 3, got %d", got)
			}
			if ob.LevelCount(domain.SideBuy) != 1 {
				t.Errorf("expected bid 51 level pruned, %d levels remain", ob.LevelCount(domain.SideBuy))
			}
			if _, ok := ob.BestAsk(); ok {
				t.Error("expected no resting ask")
			}
		})
	}
}

// TestScenarioC two sellers at one price fill in arrival order
func TestScenarioC(t *testing.T) {
	for _, lt := range ladderTypes {
		t.Run(lt.String(), func(t *testing.T) {
			ob := NewOrderBook("TEST", WithLadderType(lt))

			first := mustSubmit(t, ob, domain.SideSell, 100, 5)
			second := mustSubmit(t, ob, domain.SideSell, 100, 5)
			buy := mustSubmit(t, ob, domain.SideBuy, 100, 7)

			if len(buy.Trades) != 2 {
				t.Fatalf("expected 2 trades, got %d", len(buy.Trades))
			}
			assertTrade(t, buy.Trades[0], 100, 5, first.OrderID, buy.OrderID)
			assertTrade(t, buy.Trades[1], 100, 2, second.OrderID, buy.OrderID)

			asks := ob.Orders(domain.SideSell)
			if len(asks) != 1 {
				t.Fatalf("expected 1 resting ask, got %d", len(asks))
			}
			if asks[0].ID != second.OrderID || asks[0].Remaining != 3 {
				t.Errorf("expected second seller with 3 left, got id %d qty %d", asks[0].ID, asks[0].Remaining)
			}
			if ob.OrderCount(domain.SideBuy) != 0 {
				t.Error("expected no bid to remain")
			}
		})
	}
}

// TestAskPriceRule executes every trade at the best ask when configured
func TestAskPriceRule(t *testing.T) {
	ob := NewOrderBook("TEST", WithExecutionPrice(PriceAtAsk))

	mustSubmit(t, ob, domain.SideBuy, 50, 10)
	mustSubmit(t, ob, domain.SideBuy, 51, 5)
	sell := mustSubmit(t, ob, domain.SideSell, 49, 12)

	if len(sell.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(sell.Trades))
	}
	for i, trade := range sell.Trades {
		if trade.Price != 49 {
			t.Errorf("trade %d: expected price 49, got %d", i, trade.Price)
		}
	}
	if sell.Trades[0].Quantity != 5 || sell.Trades[1].Quantity != 7 {
		t.Errorf("expected quantities 5 then 7, got %d then %d", sell.Trades[0].Quantity, sell.Trades[1].Quantity)
	}
}

// TestPricePriority a crossing bid takes the cheapest ask first regardless of arrival
func TestPricePriority(t *testing.T) {
	ob := NewOrderBook("TEST")

	s102 := mustSubmit(t, ob, domain.SideSell, 102, 1)
	s100 := mustSubmit(t, ob, domain.SideSell, 100, 1)
	s101 := mustSubmit(t, ob, domain.SideSell, 101, 1)

	if ask, _ := ob.BestAsk(); ask != 100 {
		t.Errorf("expected best ask 100, got %d", ask)
	}

	buy := mustSubmit(t, ob, domain.SideBuy, 102, 3)
	if len(buy.Trades) != 3 {
		t.Fatalf("expected 3 trades, got %d", len(buy.Trades))
	}
	wantIDs := []uint64{s100.OrderID, s101.OrderID, s102.OrderID}
	wantPrices := []domain.Price{100, 101, 102}
	for i, trade := range buy.Trades {
		if trade.AskOrderID != wantIDs[i] || trade.Price != wantPrices[i] {
			t.Errorf("trade %d: expected ask %d @ %d, got ask %d @ %d",
				i, wantIDs[i], wantPrices[i], trade.AskOrderID, trade.Price)
		}
	}
}

// TestFIFOOrder orders at one price queue in arrival order
func TestFIFOOrder(t *testing.T) {
	ob := NewOrderBook("TEST")

	ids := make([]uint64, 3)
	for i := range ids {
		ids[i] = mustSubmit(t, ob, domain.SideBuy, 500, 10).OrderID
	}

	orders := ob.Orders(domain.SideBuy)
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}
	for i, o := range orders {
		if o.ID != ids[i] {
			t.Errorf("position %d: expected order %d, got %d", i, ids[i], o.ID)
		}
	}

	// O1 must be exhausted before O2 sees any fill
	sell := mustSubmit(t, ob, domain.SideSell, 500, 4)
	if len(sell.Trades) != 1 || sell.Trades[0].BidOrderID != ids[0] {
		t.Fatalf("expected single fill against first bid, got %+v", sell.Trades)
	}
	sell = mustSubmit(t, ob, domain.SideSell, 500, 8)
	if len(sell.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(sell.Trades))
	}
	if sell.Trades[0].BidOrderID != ids[0] || sell.Trades[0].Quantity != 6 {
		t.Errorf("expected 6 against first bid, got %d against %d", sell.Trades[0].Quantity, sell.Trades[0].BidOrderID)
	}
	if sell.Trades[1].BidOrderID != ids[1] || sell.Trades[1].Quantity != 2 {
		t.Errorf("expected 2 against second bid, got %d against %d", sell.Trades[1].Quantity, sell.Trades[1].BidOrderID)
	}
}

// TestPartialFillKeepsPriority a partially filled head stays at the head
func TestPartialFillKeepsPriority(t *testing.T) {
	ob := NewOrderBook("TEST")

	first := mustSubmit(t, ob, domain.SideSell, 100, 10)
	mustSubmit(t, ob, domain.SideSell, 100, 10)
	mustSubmit(t, ob, domain.SideBuy, 100, 3)

	orders := ob.Orders(domain.SideSell)
	if orders[0].ID != first.OrderID || orders[0].Remaining != 7 || orders[0].Original != 10 {
		t.Errorf("expected first order at head with 7/10, got %+v", orders[0])
	}

	buy := mustSubmit(t, ob, domain.SideBuy, 100, 1)
	if buy.Trades[0].AskOrderID != first.OrderID {
		t.Errorf("expected partially filled order to keep priority, traded against %d", buy.Trades[0].AskOrderID)
	}
}

// TestNonCrossingOrderProducesNoTrades resting quantities stay untouched
func TestNonCrossingOrderProducesNoTrades(t *testing.T) {
	ob := NewOrderBook("TEST")

	mustSubmit(t, ob, domain.SideSell, 105, 4)
	mustSubmit(t, ob, domain.SideSell, 110, 6)
	mustSubmit(t, ob, domain.SideBuy, 90, 2)
	before := ob.Snapshot(10)

	res := mustSubmit(t, ob, domain.SideBuy, 104, 9)
	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades, got %d", len(res.Trades))
	}
	if res.Remaining != 9 {
		t.Errorf("expected all 9 resting, got %d", res.Remaining)
	}

	after := ob.Snapshot(10)
	if after.AskVolume != before.AskVolume {
		t.Errorf("ask volume changed: %d -> %d", before.AskVolume, after.AskVolume)
	}
	if after.BestBid != 104 || after.BidVolume != before.BidVolume+9 {
		t.Errorf("expected new best bid 104 and bid volume %d, got %d / %d", before.BidVolume+9, after.BestBid, after.BidVolume)
	}
	if spread, ok := ob.Spread(); !ok || spread != 1 {
		t.Errorf("expected spread 1, got %d (ok=%v)", spread, ok)
	}
}

// TestInvalidOrder rejects before any mutation and consumes no id
func TestInvalidOrder(t *testing.T) {
	ob := NewOrderBook("TEST")
	mustSubmit(t, ob, domain.SideSell, 100, 5)

	cases := []struct {
		name  string
		side  domain.Side
		price domain.Price
		qty   int64
	}{
		{"zero price", domain.SideBuy, 0, 5},
		{"negative price", domain.SideBuy, -1, 5},
		{"zero quantity", domain.SideBuy, 100, 0},
		{"negative quantity", domain.SideBuy, 100, -3},
		{"unknown side", domain.Side(7), 100, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ob.Submit(tc.side, tc.price, tc.qty)
			if !errors.Is(err, domain.ErrInvalidOrder) {
				t.Fatalf("expected ErrInvalidOrder, got %v", err)
			}
		})
	}

	if ob.LastOrderID() != 1 {
		t.Errorf("expected rejected orders to consume no id, last id %d", ob.LastOrderID())
	}
	if ob.DepthAt(domain.SideSell, 100) != 5 || ob.OrderCount(domain.SideBuy) != 0 {
		t.Error("expected book unchanged after rejections")
	}
	if next := mustSubmit(t, ob, domain.SideBuy, 90, 1); next.OrderID != 2 {
		t.Errorf("expected next id 2, got %d", next.OrderID)
	}
}

// TestNewOrderValidation the constructor enforces the same rules as Submit
func TestNewOrderValidation(t *testing.T) {
	if _, err := NewOrder(1, domain.SideBuy, 0, 1); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Errorf("expected ErrInvalidOrder for zero price, got %v", err)
	}
	o, err := NewOrder(1, domain.SideSell, 100, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Remaining() != 4 || o.Filled() != 0 || o.IsFilled() {
		t.Errorf("unexpected fresh order state: remaining %d filled %d", o.Remaining(), o.Filled())
	}
}

// TestLevelVolumeOverflowRejected resting quantity at one price stays representable
func TestLevelVolumeOverflowRejected(t *testing.T) {
	for _, lt := range ladderTypes {
		t.Run(lt.String(), func(t *testing.T) {
			ob := NewOrderBook("TEST", WithLadderType(lt))
			mustSubmit(t, ob, domain.SideBuy, 100, math.MaxInt64)

			if _, err := ob.Submit(domain.SideBuy, 100, math.MaxInt64); !errors.Is(err, domain.ErrInvalidOrder) {
				t.Fatalf("expected ErrInvalidOrder, got %v", err)
			}
			if _, err := ob.Submit(domain.SideBuy, 100, 1); !errors.Is(err, domain.ErrInvalidOrder) {
				t.Fatalf("expected ErrInvalidOrder for one more lot, got %v", err)
			}
			if ob.LastOrderID() != 1 {
				t.Errorf("expected rejected orders to consume no id, last id %d", ob.LastOrderID())
			}
			if got := ob.DepthAt(domain.SideBuy, 100); got != math.MaxInt64 {
				t.Errorf("expected depth %d, got %d", int64(math.MaxInt64), got)
			}

			// Another price is a separate level; the side total saturates
			mustSubmit(t, ob, domain.SideBuy, 99, math.MaxInt64)
			if got := ob.Volume(domain.SideBuy); got != math.MaxInt64 {
				t.Errorf("expected saturated volume %d, got %d", int64(math.MaxInt64), got)
			}

			// A crossing sell drains the level and the price accepts orders again
			res := mustSubmit(t, ob, domain.SideSell, 100, math.MaxInt64)
			if len(res.Trades) != 1 || ob.DepthAt(domain.SideBuy, 100) != 0 {
				t.Fatalf("expected level at 100 filled, trades %d depth %d", len(res.Trades), ob.DepthAt(domain.SideBuy, 100))
			}
			mustSubmit(t, ob, domain.SideBuy, 100, 1)
		})
	}
}

// TestCapacityExceeded id wraparound halts the book for good
func TestCapacityExceeded(t *testing.T) {
	seq := &Sequence{last: math.MaxUint64 - 1, limit: math.MaxUint64}
	ob := NewOrderBook("TEST", WithSequence(seq))

	res := mustSubmit(t, ob, domain.SideSell, 100, 1)
	if res.OrderID != math.MaxUint64 {
		t.Fatalf("expected last id %d, got %d", uint64(math.MaxUint64), res.OrderID)
	}

	for i := 0; i < 2; i++ {
		if _, err := ob.Submit(domain.SideBuy, 100, 1); !errors.Is(err, domain.ErrCapacityExceeded) {
			t.Fatalf("attempt %d: expected ErrCapacityExceeded, got %v", i, err)
		}
	}
	if !ob.Halted() {
		t.Error("expected book halted")
	}
	if ob.DepthAt(domain.SideSell, 100) != 1 {
		t.Error("expected resting ask untouched by failed submissions")
	}
}

// TestGetDepth depth is ordered best first on both sides
func TestGetDepth(t *testing.T) {
	for _, lt := range ladderTypes {
		t.Run(lt.String(), func(t *testing.T) {
			ob := NewOrderBook("TEST", WithLadderType(lt))

			// Out of order on purpose
			for _, p := range []domain.Price{49000, 50000, 48000} {
				mustSubmit(t, ob, domain.SideBuy, p, 100)
			}
			for _, p := range []domain.Price{51000, 50100, 52000} {
				mustSubmit(t, ob, domain.SideSell, p, 100)
			}
			mustSubmit(t, ob, domain.SideSell, 50100, 50)

			bids, asks := ob.Depth(2)
			if len(bids) != 2 || len(asks) != 2 {
				t.Fatalf("expected 2 levels per side, got %d/%d", len(bids), len(asks))
			}
			if bids[0].Price != 50000 || bids[1].Price != 49000 {
				t.Errorf("unexpected bid order: %+v", bids)
			}
			if asks[0].Price != 50100 || asks[1].Price != 51000 {
				t.Errorf("unexpected ask order: %+v", asks)
			}
			if asks[0].Quantity != 150 || asks[0].Orders != 2 {
				t.Errorf("expected ask level 50100 with 150 over 2 orders, got %+v", asks[0])
			}

			snap := ob.Snapshot(10)
			if len(snap.Bids) != 3 || len(snap.Asks) != 3 {
				t.Errorf("expected full depth 3/3, got %d/%d", len(snap.Bids), len(snap.Asks))
			}
			if snap.BidVolume != 300 || snap.AskVolume != 350 || snap.AskOrders != 4 {
				t.Errorf("unexpected volumes: %+v", snap)
			}
		})
	}
}

type submission struct {
	side  domain.Side
	price domain.Price
	qty   int64
}

func randomFlow(seed int64, n int) []submission {
	rng := rand.New(rand.NewSource(seed))
	out := make([]submission, n)
	for i := range out {
		side := domain.SideBuy
		price := domain.Price(95 + rng.Intn(8))
		if rng.Intn(2) == 0 {
			side = domain.SideSell
			price = domain.Price(98 + rng.Intn(8))
		}
		out[i] = submission{side: side, price: price, qty: int64(1 + rng.Intn(10))}
	}
	return out
}

// TestRandomFlowInvariants no-cross after every submit and exact conservation
func TestRandomFlowInvariants(t *testing.T) {
	for _, lt := range ladderTypes {
		t.Run(lt.String(), func(t *testing.T) {
			ob := NewOrderBook("TEST", WithLadderType(lt))

			original := make(map[uint64]int64)
			filled := make(map[uint64]int64)
			var bidFilled, askFilled, traded int64

			for i, s := range randomFlow(42, 5000) {
				res := mustSubmit(t, ob, s.side, s.price, s.qty)
				original[res.OrderID] = s.qty

				if ob.Crossed() {
					t.Fatalf("book crossed after submission %d", i)
				}
				for _, trade := range res.Trades {
					if trade.Quantity <= 0 {
						t.Fatalf("non-positive trade quantity %d", trade.Quantity)
					}
					filled[trade.AskOrderID] += trade.Quantity
					filled[trade.BidOrderID] += trade.Quantity
					askFilled += trade.Quantity
					bidFilled += trade.Quantity
					traded += trade.Quantity
				}
			}

			if askFilled != traded || bidFilled != traded {
				t.Fatalf("per-side fills %d/%d differ from traded %d", askFilled, bidFilled, traded)
			}

			resting := make(map[uint64]OrderView)
			for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
				for _, o := range ob.Orders(side) {
					if _, dup := resting[o.ID]; dup {
						t.Fatalf("order %d resting twice", o.ID)
					}
					if o.Remaining <= 0 {
						t.Fatalf("order %d resting with quantity %d", o.ID, o.Remaining)
					}
					resting[o.ID] = o
				}
			}

			for id, qty := range original {
				o, ok := resting[id]
				switch {
				case ok && o.Remaining+filled[id] != qty:
					t.Errorf("order %d: remaining %d + filled %d != original %d", id, o.Remaining, filled[id], qty)
				case !ok && filled[id] != qty:
					t.Errorf("order %d gone with filled %d of %d", id, filled[id], qty)
				}
			}
		})
	}
}

// TestLadderImplementationsAgree both ladders produce identical executions
func TestLadderImplementationsAgree(t *testing.T) {
	tree := NewOrderBook("TEST", WithLadderType(TreeLadder))
	list := NewOrderBook("TEST", WithLadderType(ListLadder))

	for i, s := range randomFlow(7, 3000) {
		a := mustSubmit(t, tree, s.side, s.price, s.qty)
		b := mustSubmit(t, list, s.side, s.price, s.qty)
		if a.OrderID != b.OrderID || a.Remaining != b.Remaining || len(a.Trades) != len(b.Trades) {
			t.Fatalf("submission %d diverged: %+v vs %+v", i, a, b)
		}
		for j := range a.Trades {
			x, y := a.Trades[j], b.Trades[j]
			if x.Seq != y.Seq || x.AskOrderID != y.AskOrderID || x.BidOrderID != y.BidOrderID ||
				x.Price != y.Price || x.Quantity != y.Quantity {
				t.Fatalf("submission %d trade %d diverged: %+v vs %+v", i, j, x, y)
			}
		}
	}
}
