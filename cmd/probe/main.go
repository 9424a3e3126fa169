// Command probe is a one-shot diagnostic client for the market data
// simulator. It connects over TCP, reads the feed for a fixed duration, and
// prints a summary of what it saw. Exits non-zero if the feed misbehaves.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/feedforge/marketsim/pkg/models"
)

type feedMessage struct {
	Type             string        `json:"type"`
	Message          string        `json:"message"`
	Instruments      []string      `json:"instruments"`
	UpdateIntervalMS float64       `json:"update_interval_ms"`
	Timestamp        string        `json:"timestamp"`
	Data             []models.Tick `json:"data"`
}

func main() {
	addr := flag.String("addr", "localhost:9999", "simulator address")
	duration := flag.Duration("duration", 5*time.Second, "how long to read the feed")
	sample := flag.Int("sample", 3, "ticks to print per update")
	flag.Parse()

	if err := run(*addr, *duration, *sample); err != nil {
		fmt.Fprintf(os.Stderr, "probe failed: %v\n", err)
		os.Exit(1)
	}
}

func run(addr string, duration time.Duration, sample int) error {
	fmt.Printf("Connecting to market data simulator at %s...\n", addr)

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(duration))

	fmt.Println("Connected.")

	var welcomes, updates int
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		var msg feedMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			fmt.Fprintf(os.Stderr, "skipping unparseable line: %v\n", err)
			continue
		}

		switch msg.Type {
		case models.TypeWelcome:
			welcomes++
			fmt.Println(strings.Repeat("=", 70))
			fmt.Printf("WELCOME: %s\n", msg.Message)
			fmt.Printf("  Instruments: %s\n", strings.Join(msg.Instruments, ", "))
			fmt.Printf("  Update interval: %.0f ms\n", msg.UpdateIntervalMS)
			fmt.Println(strings.Repeat("=", 70))

		case models.TypeMarketData:
			updates++
			fmt.Printf("Update #%d  %s  (%d instruments)\n", updates, msg.Timestamp, len(msg.Data))
			for i, tick := range msg.Data {
				if i >= sample {
					break
				}
				fmt.Printf("  %10s | bid %12.2f | ask %12.2f | last %12.2f\n",
					tick.Symbol, tick.Bid, tick.Ask, tick.Last)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
			return fmt.Errorf("read: %w", err)
		}
	}

	fmt.Printf("\nDone after %s: %d welcome, %d market data messages\n", duration, welcomes, updates)

	if welcomes != 1 {
		return fmt.Errorf("expected exactly 1 welcome message, got %d", welcomes)
	}
	if updates == 0 {
		return fmt.Errorf("no market data received")
	}
	return nil
}
