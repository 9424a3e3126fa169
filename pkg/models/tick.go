package models

// Message type discriminators used on the wire.
const (
	TypeWelcome    = "welcome"
	TypeMarketData = "market_data"
)

// Tick represents a single market-data snapshot for one instrument.
// All prices are rounded to 2 decimals before emission.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Timestamp string  `json:"timestamp"` // ISO-8601 UTC with Z suffix
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Last      float64 `json:"last"`
	BidVolume int     `json:"bid_volume"`
	AskVolume int     `json:"ask_volume"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Volume    int     `json:"volume"`
}

// BatchMessage carries one broadcast cycle's ticks for all instruments.
type BatchMessage struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Data      []Tick `json:"data"`
}

// WelcomeMessage is sent exactly once per connection, immediately after accept.
type WelcomeMessage struct {
	Type             string   `json:"type"`
	Message          string   `json:"message"`
	Instruments      []string `json:"instruments"`
	UpdateIntervalMS float64  `json:"update_interval_ms"`
}
