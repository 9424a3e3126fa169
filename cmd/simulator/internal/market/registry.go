package market

import (
	"time"

	"github.com/feedforge/marketsim/pkg/models"
)

// CatalogEntry describes one instrument to simulate.
type CatalogEntry struct {
	Symbol       string
	InitialPrice float64
	Volatility   float64
}

// DefaultCatalog returns the fixed set of simulated instruments:
// US tech stocks, index ETFs, forex pairs, and crypto.
func DefaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{"AAPL", 150.0, 0.025},
		{"GOOGL", 2800.0, 0.03},
		{"MSFT", 300.0, 0.022},
		{"TSLA", 700.0, 0.05},
		{"AMZN", 3300.0, 0.028},
		{"NVDA", 500.0, 0.045},
		{"META", 350.0, 0.035},
		{"SPY", 450.0, 0.015},
		{"QQQ", 380.0, 0.018},
		{"EUR/USD", 1.18, 0.008},
		{"GBP/USD", 1.38, 0.01},
		{"USD/JPY", 110.0, 0.012},
		{"BTC/USD", 45000.0, 0.08},
		{"ETH/USD", 3000.0, 0.1},
		{"SOL/USD", 150.0, 0.12},
	}
}

// Registry holds all simulated instruments. The catalog is built once at
// startup and iterated in insertion order on every cycle; there is no
// add/remove after construction.
type Registry struct {
	instruments []*Instrument
	bySymbol    map[string]*Instrument
	clock       Clock
	rnd         Rand
}

func NewRegistry(catalog []CatalogEntry, clock Clock, rnd Rand) *Registry {
	r := &Registry{
		instruments: make([]*Instrument, 0, len(catalog)),
		bySymbol:    make(map[string]*Instrument, len(catalog)),
		clock:       clock,
		rnd:         rnd,
	}
	now := clock.Now()
	for _, e := range catalog {
		inst := NewInstrument(e.Symbol, e.InitialPrice, e.Volatility, now)
		r.instruments = append(r.instruments, inst)
		r.bySymbol[e.Symbol] = inst
	}
	return r
}

// Symbols returns the catalog symbols in fixed iteration order.
func (r *Registry) Symbols() []string {
	symbols := make([]string, len(r.instruments))
	for i, inst := range r.instruments {
		symbols[i] = inst.Symbol
	}
	return symbols
}

// Lookup returns the instrument for symbol, or nil if it is not in the catalog.
func (r *Registry) Lookup(symbol string) *Instrument {
	return r.bySymbol[symbol]
}

// Len returns the number of simulated instruments.
func (r *Registry) Len() int { return len(r.instruments) }

// Now exposes the registry's clock so callers stamp batches consistently
// with tick timestamps.
func (r *Registry) Now() time.Time { return r.clock.Now() }

// GenerateBatch produces one tick per instrument in catalog order.
func (r *Registry) GenerateBatch() []models.Tick {
	batch := make([]models.Tick, 0, len(r.instruments))
	for _, inst := range r.instruments {
		batch = append(batch, inst.GenerateTick(r.clock, r.rnd))
	}
	return batch
}
