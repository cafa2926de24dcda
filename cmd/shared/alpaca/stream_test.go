package alpaca

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaanureyen/emabot/cmd/shared"
	"github.com/kaanureyen/emabot/cmd/shared/dispatch"
)

const tradesFrame = `[
	{"T":"t","S":"AAPL","i":52983525029461,"x":"V","p":126.55,"s":1,"t":"2021-02-22T15:51:44.208Z","c":["@","I"],"z":"C"},
	{"T":"q","S":"AAPL","bx":"V","bp":126.5,"bs":2,"ax":"V","ap":126.6,"as":1,"t":"2021-02-22T15:51:44.210Z"},
	{"T":"t","S":"MSFT","i":52983525029462,"x":"V","p":240.1,"s":5,"t":"2021-02-22T15:51:44.300Z","c":["@"],"z":"C"}
]`

type collectingIngester struct {
	mu     sync.Mutex
	events []shared.TradeEvent
}

func (c *collectingIngester) OnTrade(_ context.Context, ev shared.TradeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collectingIngester) Events() []shared.TradeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]shared.TradeEvent(nil), c.events...)
}

func newFakeAlpaca(t *testing.T, script func(conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		script(conn)
	}))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	assert.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func serverHandshake(t *testing.T, conn *websocket.Conn) {
	send(t, conn, `[{"T":"success","msg":"connected"}]`)

	var auth authRequest
	if assert.NoError(t, conn.ReadJSON(&auth)) {
		assert.Equal(t, authRequest{Action: "auth", Key: "key", Secret: "secret"}, auth)
	}
	send(t, conn, `[{"T":"success","msg":"authenticated"}]`)

	var sub subscribeRequest
	if assert.NoError(t, conn.ReadJSON(&sub)) {
		assert.Equal(t, "subscribe", sub.Action)
		assert.Equal(t, []string{"AAPL", "MSFT"}, sub.Trades)
	}
	send(t, conn, `[{"T":"subscription","trades":["AAPL","MSFT"],"quotes":[],"bars":[]}]`)
}

func serverClose(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_, _, _ = conn.ReadMessage()
}

func TestStream_HandshakeAndStreaming(t *testing.T) {
	_, url := newFakeAlpaca(t, func(conn *websocket.Conn) {
		serverHandshake(t, conn)
		send(t, conn, tradesFrame)
		serverClose(conn)
	})

	ingester := &collectingIngester{}
	session := dispatch.NewSession(ingester, nil)
	stream := NewStream(url, "key", "secret", []string{"AAPL", "MSFT"})

	err := stream.Run(context.Background(), session)
	require.NoError(t, err)
	assert.True(t, session.Streamed())
	assert.Equal(t, dispatch.Closed, session.State())

	events := ingester.Events()
	require.Len(t, events, 3, "every element of the frame is processed")
	assert.Equal(t, shared.TradeEvent{
		Kind:      "t",
		Symbol:    "AAPL",
		Price:     126.55,
		Size:      1,
		Timestamp: time.Date(2021, 2, 22, 15, 51, 44, 208000000, time.UTC),
	}, events[0])
	assert.False(t, events[1].IsTrade())
	assert.Equal(t, "MSFT", events[2].Symbol)
	assert.Equal(t, 240.1, events[2].Price)
	assert.Equal(t, float64(5), events[2].Size)
}

func TestStream_TradesBeforeSubscriptionAreDropped(t *testing.T) {
	_, url := newFakeAlpaca(t, func(conn *websocket.Conn) {
		send(t, conn, `[{"T":"success","msg":"connected"}]`)
		var auth authRequest
		_ = conn.ReadJSON(&auth)
		send(t, conn, tradesFrame)
		serverClose(conn)
	})

	ingester := &collectingIngester{}
	session := dispatch.NewSession(ingester, nil)
	err := NewStream(url, "key", "secret", []string{"AAPL"}).Run(context.Background(), session)

	require.NoError(t, err)
	assert.False(t, session.Streamed())
	assert.Empty(t, ingester.Events())
}

func TestStream_AuthError(t *testing.T) {
	_, url := newFakeAlpaca(t, func(conn *websocket.Conn) {
		send(t, conn, `[{"T":"success","msg":"connected"}]`)
		var auth authRequest
		_ = conn.ReadJSON(&auth)
		send(t, conn, `[{"T":"error","code":402,"msg":"auth failed"}]`)
		_, _, _ = conn.ReadMessage()
	})

	session := dispatch.NewSession(&collectingIngester{}, nil)
	err := NewStream(url, "key", "wrong", []string{"AAPL"}).Run(context.Background(), session)

	assert.EqualError(t, err, "alpaca stream error 402: auth failed")
	assert.Equal(t, dispatch.Errored, session.State())
	assert.Equal(t, err, session.Err())
}

func TestStream_DropAfterStreamingIsAnError(t *testing.T) {
	_, url := newFakeAlpaca(t, func(conn *websocket.Conn) {
		serverHandshake(t, conn)
		// returning closes the tcp connection without a close frame
	})

	session := dispatch.NewSession(&collectingIngester{}, nil)
	err := NewStream(url, "key", "secret", []string{"AAPL", "MSFT"}).Run(context.Background(), session)

	assert.Error(t, err)
	assert.Equal(t, dispatch.Errored, session.State())
}

func TestStream_CancelClosesSession(t *testing.T) {
	released := make(chan struct{})
	_, url := newFakeAlpaca(t, func(conn *websocket.Conn) {
		serverHandshake(t, conn)
		_, _, _ = conn.ReadMessage()
		close(released)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session := dispatch.NewSession(&collectingIngester{}, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- NewStream(url, "key", "secret", []string{"AAPL", "MSFT"}).Run(ctx, session)
	}()

	assert.Eventually(t, func() bool {
		return session.State() == dispatch.Streaming
	}, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancel")
	}
	assert.Equal(t, dispatch.Closed, session.State())
	<-released
}

func TestStream_DialFailure(t *testing.T) {
	session := dispatch.NewSession(&collectingIngester{}, nil)
	err := NewStream("ws://127.0.0.1:1", "key", "secret", nil).Run(context.Background(), session)

	assert.Error(t, err)
	assert.Equal(t, dispatch.Errored, session.State())
}

func TestDecodeFrame(t *testing.T) {
	msgs, bad, err := decodeFrame([]byte(`{"T":"success","msg":"connected"}`))
	require.NoError(t, err)
	assert.Empty(t, bad)
	require.Len(t, msgs, 1)
	assert.Equal(t, "connected", msgs[0].Msg)

	msgs, bad, err = decodeFrame([]byte(`[{"T":"t","S":"AAPL","p":"oops"},{"T":"t","S":"MSFT","p":1.5,"s":2}]`))
	require.NoError(t, err)
	assert.Len(t, bad, 1)
	require.Len(t, msgs, 1)
	assert.Equal(t, "MSFT", msgs[0].Symbol)

	_, _, err = decodeFrame([]byte(`not json`))
	assert.Error(t, err)
}
