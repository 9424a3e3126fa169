package publish_test

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/feedforge/marketsim/cmd/simulator/internal/publish"
	"github.com/feedforge/marketsim/cmd/simulator/internal/testutils"
	"github.com/feedforge/marketsim/pkg/models"
)

func sampleBatch() []models.Tick {
	return []models.Tick{
		{Symbol: "AAPL", Timestamp: "2024-03-15T09:30:00.000Z", Bid: 149.94, Ask: 150.09, Last: 150.02, BidVolume: 500, AskVolume: 700, High: 157.52, Low: 142.52, Volume: 42000},
		{Symbol: "BTC/USD", Timestamp: "2024-03-15T09:30:00.000Z", Bid: 44977.5, Ask: 45022.5, Last: 45000.0, BidVolume: 120, AskVolume: 340, High: 47250.0, Low: 42750.0, Volume: 9100},
	}
}

func TestKafkaPublisher_OneMessagePerTick(t *testing.T) {
	writer := &testutils.MockKafkaWriter{}
	pub := publish.NewKafkaPublisher(zap.NewNop(), writer)

	if err := pub.Publish(context.Background(), sampleBatch()); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	writer.Mu.Lock()
	defer writer.Mu.Unlock()

	if len(writer.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(writer.Messages))
	}
	if string(writer.Messages[0].Key) != "AAPL" {
		t.Errorf("expected key AAPL, got %s", writer.Messages[0].Key)
	}
	if string(writer.Messages[1].Key) != "BTC/USD" {
		t.Errorf("expected key BTC/USD, got %s", writer.Messages[1].Key)
	}

	var tick models.Tick
	if err := json.Unmarshal(writer.Messages[0].Value, &tick); err != nil {
		t.Fatalf("message value not valid JSON: %v", err)
	}
	if tick.Symbol != "AAPL" || tick.Last != 150.02 {
		t.Errorf("unexpected tick payload: %+v", tick)
	}
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	writer := &testutils.MockKafkaWriter{ShouldFail: true}
	pub := publish.NewKafkaPublisher(zap.NewNop(), writer)

	if err := pub.Publish(context.Background(), sampleBatch()); err == nil {
		t.Fatal("expected write error to propagate to the caller")
	}
}
