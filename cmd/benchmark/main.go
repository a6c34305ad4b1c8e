package main

import (
	"context"
	"flag"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"lightning-cross/domain"
	"lightning-cross/matching"
	"lightning-cross/orderbook"
)

func main() {
	duration := flag.Duration("duration", 5*time.Second, "test duration")
	ladder := flag.String("ladder", "tree", "price ladder: tree or list")
	flag.Parse()

	ladderType, ok := orderbook.ParseLadderType(*ladder)
	if !ok {
		fmt.Printf("unknown ladder %q\n", *ladder)
		return
	}

	fmt.Println("=== Matching engine throughput ===")

	feed := matching.NewTradeFeed(0, matching.NewTape(matching.DefaultTapeSize), nil)
	defer feed.Close()

	engine := matching.NewMatchingEngine("BENCH",
		matching.WithTradeFeed(feed),
		matching.WithBookOptions(orderbook.WithLadderType(ladderType)),
	)
	engine.Start()
	defer engine.Stop()

	numCPU := runtime.NumCPU()
	numWorkers := numCPU - 2 // one for the matching goroutine, one for runtime/GC
	if numWorkers < 1 {
		numWorkers = 1
	}

	var (
		orderCount atomic.Int64
		tradeCount atomic.Int64
		rejects    atomic.Int64
	)

	fmt.Printf("CPUs:      %d\n", numCPU)
	fmt.Printf("Producers: %d (NumCPU - 2)\n", numWorkers)
	fmt.Printf("Ladder:    %s\n", ladderType)
	fmt.Printf("Duration:  %v\n\n", *duration)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()
	startTime := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; ctx.Err() == nil; i++ {
				// Alternate sides over an overlapping price band so orders cross
				side := domain.SideBuy
				if i%2 == 1 {
					side = domain.SideSell
				}
				price := domain.Price(50000 + i%200)

				res, err := engine.Submit(ctx, side, price, 1)
				if err != nil {
					if ctx.Err() == nil {
						rejects.Add(1)
					}
					continue
				}
				orderCount.Add(1)
				tradeCount.Add(int64(len(res.Trades)))
			}
		}()
	}

	ticker := time.NewTicker(time.Second)
	go func() {
		for range ticker.C {
			elapsed := time.Since(startTime)
			orders := orderCount.Load()
			trades := tradeCount.Load()
			fmt.Printf("[%.0fs] orders: %d (%.0f/s) | trades: %d (%.0f/s)\n",
				elapsed.Seconds(), orders, float64(orders)/elapsed.Seconds(),
				trades, float64(trades)/elapsed.Seconds())
		}
	}()

	wg.Wait()
	ticker.Stop()

	elapsed := time.Since(startTime)
	totalOrders := orderCount.Load()
	totalTrades := tradeCount.Load()
	if totalOrders == 0 {
		fmt.Println("no orders processed")
		return
	}

	qps := float64(totalOrders) / elapsed.Seconds()
	tps := float64(totalTrades) / elapsed.Seconds()
	avgLatency := elapsed.Seconds() * 1e6 / float64(totalOrders)
	matchRate := float64(totalTrades) / float64(totalOrders) * 100

	fmt.Println("\n=== Results ===")
	fmt.Printf("Elapsed:      %v\n", elapsed)
	fmt.Printf("Orders:       %d\n", totalOrders)
	fmt.Printf("Trades:       %d\n", totalTrades)
	fmt.Printf("Rejected:     %d\n", rejects.Load())
	fmt.Printf("Order rate:   %.0f orders/sec\n", qps)
	fmt.Printf("Trade rate:   %.0f trades/sec\n", tps)
	fmt.Printf("Avg latency:  %.2f μs/order\n", avgLatency)
	fmt.Printf("Match rate:   %.2f%%\n", matchRate)

	switch {
	case qps >= 1000000:
		fmt.Println("Rating: >1M orders/sec")
	case qps >= 500000:
		fmt.Println("Rating: 500k-1M orders/sec")
	case qps >= 100000:
		fmt.Println("Rating: 100k-500k orders/sec")
	case qps >= 10000:
		fmt.Println("Rating: 10k-100k orders/sec")
	default:
		fmt.Println("Rating: <10k orders/sec")
	}

	snap, err := engine.Snapshot(context.Background(), 5)
	if err != nil {
		fmt.Printf("snapshot: %v\n", err)
		return
	}

	fmt.Println("\n=== Book ===")
	if snap.HasBid {
		fmt.Printf("Best bid:     %d\n", snap.BestBid)
	}
	if snap.HasAsk {
		fmt.Printf("Best ask:     %d\n", snap.BestAsk)
	}
	fmt.Printf("Tape total:   %d (dropped by subscribers: %d)\n", feed.Tape().Total(), feed.Dropped())

	fmt.Println("\nBid depth (top 5):")
	for i, level := range snap.Bids {
		fmt.Printf("  %d. price: %d, quantity: %d, orders: %d\n",
			i+1, level.Price, level.Quantity, level.Orders)
	}

	fmt.Println("\nAsk depth (top 5):")
	for i, level := range snap.Asks {
		fmt.Printf("  %d. price: %d, quantity: %d, orders: %d\n",
			i+1, level.Price, level.Quantity, level.Orders)
	}
}
