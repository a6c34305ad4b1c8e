package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net"
	"os"
	"time"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "gateway address")
	count := flag.Int("n", 20, "number of random orders")
	interval := flag.Duration("interval", 100*time.Millisecond, "pause between random orders")
	flag.Parse()

	// A resting seller, then a buyer that crosses it
	if err := sendOrder(*addr, "S", 100, 10); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	time.Sleep(time.Second)
	if err := sendOrder(*addr, "B", 100, 5); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	for i := 0; i < *count; i++ {
		side := "S"
		// Buyers bid 100-110, sellers offer 90-100, so most orders cross
		price := 90 + rand.Intn(11)
		if rand.Intn(2) == 0 {
			side = "B"
			price = 100 + rand.Intn(11)
		}
		qty := 1 + rand.Intn(10)

		if err := sendOrder(*addr, side, price, qty); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		time.Sleep(*interval)
	}
}

// sendOrder opens a connection, sends one order and prints the reply
func sendOrder(addr, side string, price, qty int) error {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	msg := fmt.Sprintf("%s %d %d", side, price, qty)
	fmt.Printf("Sending: %s\n", msg)
	if _, err := conn.Write([]byte(msg)); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return err
	}
	reply, err := io.ReadAll(io.LimitReader(conn, 1024))
	if err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	fmt.Printf("Server replied: %s", reply)
	return nil
}
