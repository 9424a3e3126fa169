package market

import (
	"math"
	"time"

	"github.com/feedforge/marketsim/pkg/models"
)

const (
	// drift is the small constant upward bias applied to every GBM step.
	drift = 0.0001

	// priceFloor keeps simulated prices strictly positive regardless of shocks.
	priceFloor = 0.01

	minQuoteVolume = 100
	maxQuoteVolume = 10000
	minTradeVolume = 1000
	maxTradeVolume = 100000
)

// Instrument owns the simulated price state for one symbol.
type Instrument struct {
	Symbol     string
	Volatility float64

	price      float64
	spread     float64 // fixed at 0.1% of the initial price
	lastUpdate time.Time
}

func NewInstrument(symbol string, initialPrice, volatility float64, now time.Time) *Instrument {
	return &Instrument{
		Symbol:     symbol,
		Volatility: volatility,
		price:      initialPrice,
		spread:     initialPrice * 0.001,
		lastUpdate: now,
	}
}

// Price returns the current simulated price.
func (i *Instrument) Price() float64 { return i.price }

// GenerateTick advances the price one Geometric Brownian Motion step and
// returns the resulting snapshot. Not safe for concurrent use; the broadcast
// loop is the single writer of instrument state.
func (i *Instrument) GenerateTick(clock Clock, rnd Rand) models.Tick {
	now := clock.Now()
	dt := now.Sub(i.lastUpdate).Seconds()
	i.lastUpdate = now

	shock := rnd.NormFloat64()
	i.price += i.price * (drift*dt + i.Volatility*shock*math.Sqrt(dt))
	if i.price < priceFloor {
		i.price = priceFloor
	}

	return models.Tick{
		Symbol:    i.Symbol,
		Timestamp: FormatTimestamp(now),
		Bid:       round2(i.price - i.spread/2),
		Ask:       round2(i.price + i.spread/2),
		Last:      round2(i.price),
		BidVolume: randomIn(rnd, minQuoteVolume, maxQuoteVolume),
		AskVolume: randomIn(rnd, minQuoteVolume, maxQuoteVolume),
		// Cosmetic band, not a tracked session range.
		High:   round2(i.price * 1.05),
		Low:    round2(i.price * 0.95),
		Volume: randomIn(rnd, minTradeVolume, maxTradeVolume),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func randomIn(rnd Rand, lo, hi int) int { return lo + rnd.Intn(hi-lo+1) }

// FormatTimestamp renders t as ISO-8601 UTC with millisecond precision and a
// Z suffix, matching the wire format consumers parse.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
