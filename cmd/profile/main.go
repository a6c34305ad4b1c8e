package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
	"sync/atomic"
	"time"

	"lightning-cross/domain"
	"lightning-cross/matching"
)

func main() {
	cpuFile, err := os.Create("cpu.prof")
	if err != nil {
		panic(err)
	}
	defer cpuFile.Close()

	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		panic(err)
	}
	defer pprof.StopCPUProfile()

	fmt.Println("=== Profiling ===")
	fmt.Println("Writing CPU profile: cpu.prof")

	engine := matching.NewMatchingEngine("PROFILE")
	engine.Start()
	defer engine.Stop()

	duration := 10 * time.Second
	numWorkers := runtime.NumCPU() - 2
	if numWorkers < 1 {
		numWorkers = 1
	}

	var (
		orderCount atomic.Int64
		tradeCount atomic.Int64
	)

	fmt.Printf("Producers: %d\n", numWorkers)
	fmt.Printf("Duration:  %v\n\n", duration)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()
	startTime := time.Now()

	// Random sizes across a band around 100.00 keep several levels deep on
	// each side and exercise partial fills
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			for ctx.Err() == nil {
				side := domain.SideBuy
				if rng.IntN(2) == 1 {
					side = domain.SideSell
				}
				price := domain.Price(9900 + rng.IntN(200))
				qty := int64(1 + rng.IntN(10))

				res, err := engine.Submit(ctx, side, price, qty)
				if err != nil {
					continue
				}
				orderCount.Add(1)
				tradeCount.Add(int64(len(res.Trades)))
			}
		}(uint64(w + 1))
	}
	wg.Wait()

	elapsed := time.Since(startTime)
	totalOrders := orderCount.Load()
	totalTrades := tradeCount.Load()

	fmt.Println("\n=== Results ===")
	fmt.Printf("Orders: %d\n", totalOrders)
	fmt.Printf("Trades: %d\n", totalTrades)
	fmt.Printf("Order QPS: %.0f orders/sec\n", float64(totalOrders)/elapsed.Seconds())
	fmt.Printf("Trade TPS: %.0f trades/sec\n", float64(totalTrades)/elapsed.Seconds())

	fmt.Println("\nInspect the profile with:")
	fmt.Println("  go tool pprof -http=:6060 cpu.prof")
	fmt.Println("  or: go tool pprof cpu.prof, then top10 / list <func>")
}
