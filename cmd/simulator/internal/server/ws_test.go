package server_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket" // Gorilla for the test CLIENT

	"github.com/feedforge/marketsim/pkg/models"
)

func connectWS(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(serverURL, "http")
	wsConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect to websocket: %v", err)
	}
	t.Cleanup(func() { wsConn.Close() })
	return wsConn
}

func readWSMessage(t *testing.T, wsConn *websocket.Conn) feedMessage {
	t.Helper()
	_, raw, err := wsConn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read websocket message: %v", err)
	}
	var msg feedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("invalid JSON frame: %v", err)
	}
	return msg
}

func TestWebSocket_WelcomeThenMarketData(t *testing.T) {
	srv := startTestServer(t, 20*time.Millisecond)
	httpSrv := httptest.NewServer(srv.WSHandler())
	defer httpSrv.Close()

	wsConn := connectWS(t, httpSrv.URL)
	wsConn.SetReadDeadline(time.Now().Add(3 * time.Second))

	welcome := readWSMessage(t, wsConn)
	if welcome.Type != models.TypeWelcome {
		t.Fatalf("first frame should be welcome, got %s", welcome.Type)
	}
	if len(welcome.Instruments) != 15 {
		t.Fatalf("expected 15 instruments, got %d", len(welcome.Instruments))
	}

	batch := readWSMessage(t, wsConn)
	if batch.Type != models.TypeMarketData {
		t.Fatalf("second frame should be market_data, got %s", batch.Type)
	}
	if len(batch.Data) != 15 {
		t.Fatalf("expected 15 ticks per batch, got %d", len(batch.Data))
	}
}

func TestWebSocket_CloseEvictsClient(t *testing.T) {
	srv := startTestServer(t, 20*time.Millisecond)
	httpSrv := httptest.NewServer(srv.WSHandler())
	defer httpSrv.Close()

	wsConn := connectWS(t, httpSrv.URL)
	wsConn.SetReadDeadline(time.Now().Add(3 * time.Second))
	readWSMessage(t, wsConn) // welcome

	wsConn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	wsConn.Close()

	deadline := time.Now().Add(3 * time.Second)
	for srv.ClientCount() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("websocket client never evicted, count=%d", srv.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
