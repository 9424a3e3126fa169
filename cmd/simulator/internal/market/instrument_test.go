package market_test

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/feedforge/marketsim/cmd/simulator/internal/market"
	"github.com/feedforge/marketsim/cmd/simulator/internal/testutils"
)

func TestGenerateTick_PriceFloor(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(0, 0))
	// Strongly negative shock on every step crashes the price immediately.
	rnd := &testutils.MockRand{ValInt: 0, ValNorm: -10}
	inst := market.NewInstrument("TSLA", 700.0, 5.0, clock.Now())

	for i := 0; i < 200; i++ {
		clock.Advance(time.Second)
		tick := inst.GenerateTick(clock, rnd)

		if inst.Price() <= 0 {
			t.Fatalf("price went non-positive after %d ticks: %f", i+1, inst.Price())
		}
		if tick.Last < 0.01 {
			t.Fatalf("emitted last below floor: %f", tick.Last)
		}
	}
}

func TestGenerateTick_SpreadSymmetry(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(0, 0))
	rnd := &testutils.MockRand{ValInt: 0, ValNorm: 0}
	inst := market.NewInstrument("AAPL", 150.0, 0.025, clock.Now())

	for i := 0; i < 20; i++ {
		clock.Advance(time.Second)
		tick := inst.GenerateTick(clock, rnd)

		if !(tick.Bid < tick.Last && tick.Last < tick.Ask) {
			t.Fatalf("expected bid < last < ask, got %f / %f / %f", tick.Bid, tick.Last, tick.Ask)
		}
		diff := tick.Bid + tick.Ask - 2*tick.Last
		if diff < -0.021 || diff > 0.021 {
			t.Fatalf("spread not symmetric around last: bid=%f ask=%f last=%f", tick.Bid, tick.Ask, tick.Last)
		}
	}
}

func TestGenerateTick_VolumeRanges(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(0, 0))
	rnd := market.RealRand{Rand: rand.New(rand.NewSource(42))}
	inst := market.NewInstrument("SPY", 450.0, 0.015, clock.Now())

	for i := 0; i < 300; i++ {
		clock.Advance(100 * time.Millisecond)
		tick := inst.GenerateTick(clock, rnd)

		if tick.BidVolume < 100 || tick.BidVolume > 10000 {
			t.Fatalf("bid_volume out of range: %d", tick.BidVolume)
		}
		if tick.AskVolume < 100 || tick.AskVolume > 10000 {
			t.Fatalf("ask_volume out of range: %d", tick.AskVolume)
		}
		if tick.Volume < 1000 || tick.Volume > 100000 {
			t.Fatalf("volume out of range: %d", tick.Volume)
		}
	}
}

func TestGenerateTick_HighLowBand(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(0, 0))
	rnd := &testutils.MockRand{ValNorm: 0}
	inst := market.NewInstrument("GOOGL", 2800.0, 0.03, clock.Now())

	clock.Advance(time.Second)
	tick := inst.GenerateTick(clock, rnd)

	if tick.High <= tick.Last || tick.Low >= tick.Last {
		t.Errorf("expected low < last < high, got %f / %f / %f", tick.Low, tick.Last, tick.High)
	}
}

func TestGenerateTick_TimestampFormat(t *testing.T) {
	clock := testutils.NewMockClock(time.Date(2024, 3, 15, 9, 30, 0, 123*int(time.Millisecond), time.UTC))
	rnd := &testutils.MockRand{ValNorm: 0}
	inst := market.NewInstrument("MSFT", 300.0, 0.022, clock.Now())

	tick := inst.GenerateTick(clock, rnd)

	if !strings.HasSuffix(tick.Timestamp, "Z") {
		t.Errorf("timestamp missing Z suffix: %s", tick.Timestamp)
	}
	if _, err := time.Parse("2006-01-02T15:04:05.000Z", tick.Timestamp); err != nil {
		t.Errorf("timestamp not parseable: %v", err)
	}
	if tick.Timestamp != "2024-03-15T09:30:00.123Z" {
		t.Errorf("unexpected timestamp: %s", tick.Timestamp)
	}
}

func TestGenerateTick_MutatesPriceState(t *testing.T) {
	clock := testutils.NewMockClock(time.Unix(0, 0))
	rnd := &testutils.MockRand{ValNorm: 1}
	inst := market.NewInstrument("NVDA", 500.0, 0.045, clock.Now())

	clock.Advance(time.Second)
	inst.GenerateTick(clock, rnd)

	if inst.Price() == 500.0 {
		t.Error("expected price to move after a tick with a non-zero shock")
	}
	if inst.Price() <= 500.0 {
		t.Errorf("positive shock should raise the price, got %f", inst.Price())
	}
}
