package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"llm-tick-trader/internal/types"
	"llm-tick-trader/internal/wire"
)

type echoHandler struct{}

func (echoHandler) Handle(ctx context.Context, req wire.Request) wire.Response {
	return wire.Response{
		RequestID:  req.RequestID,
		Cmd:        types.CmdAdjust,
		Instrument: req.Instrument,
		TargetPos:  0.5,
	}
}

func testRequest(id string) wire.Request {
	return wire.Request{
		RequestID:  id,
		AccountID:  "acct-1",
		ModelID:    "model-a",
		Instrument: "BTCUSDT",
		Price:      65000,
		Features:   []float64{0.1},
	}
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestClientServerRoundTrip(t *testing.T) {
	srv := NewServer(":0", echoHandler{})
	ts := httptest.NewServer(srv.srv.Handler)
	defer ts.Close()

	c := NewClient(wsURL(ts))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Request(ctx, testRequest("req-1"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.RequestID != "req-1" || resp.TargetPos != 0.5 {
		t.Fatalf("got %+v", resp)
	}

	// Connection is reused across round trips.
	resp, err = c.Request(ctx, testRequest("req-2"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.RequestID != "req-2" {
		t.Fatalf("got %+v", resp)
	}
}

// rawWS runs a handler on a raw websocket connection, bypassing Server, so
// tests can inject protocol violations.
func rawWS(t *testing.T, fn func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	upg := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upg.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		fn(conn)
	}))
}

func TestClientDropsStaleResponses(t *testing.T) {
	ts := rawWS(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		req, _ := wire.DecodeRequest(msg)

		// A leftover from an earlier, timed-out round trip arrives first.
		stale, _ := wire.EncodeResponse(wire.Response{RequestID: "previous-tick", TargetPos: -1})
		conn.WriteMessage(websocket.BinaryMessage, stale)

		fresh, _ := wire.EncodeResponse(wire.Response{RequestID: req.RequestID, Cmd: types.CmdHold})
		conn.WriteMessage(websocket.BinaryMessage, fresh)
	})
	defer ts.Close()

	c := NewClient(wsURL(ts))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Request(ctx, testRequest("req-7"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.RequestID != "req-7" || resp.Cmd != types.CmdHold {
		t.Fatalf("stale response leaked through: %+v", resp)
	}
}

func TestClientTimesOutOnSilentServer(t *testing.T) {
	block := make(chan struct{})
	ts := rawWS(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
		<-block
	})
	defer ts.Close()
	defer close(block)

	c := NewClient(wsURL(ts))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.Request(ctx, testRequest("req-9"))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestClientReconnectsAfterTimeout(t *testing.T) {
	var first atomic.Bool
	first.Store(true)
	ts := rawWS(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			req, _ := wire.DecodeRequest(msg)
			if first.Swap(false) {
				// Stay silent: the client must abandon this connection.
				continue
			}
			b, _ := wire.EncodeResponse(wire.Response{RequestID: req.RequestID, Cmd: types.CmdHold})
			conn.WriteMessage(websocket.BinaryMessage, b)
		}
	})
	defer ts.Close()

	c := NewClient(wsURL(ts))
	defer c.Close()

	tctx, tcancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	_, err := c.Request(tctx, testRequest("req-10"))
	tcancel()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.Request(ctx, testRequest("req-11"))
	if err != nil {
		t.Fatal(err)
	}
	if resp.RequestID != "req-11" {
		t.Fatalf("got %+v", resp)
	}
}

func TestServerAnswersUndecodableFrame(t *testing.T) {
	srv := NewServer(":0", echoHandler{})
	ts := httptest.NewServer(srv.srv.Handler)
	defer ts.Close()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.Dial(wsURL(ts), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte("not msgpack at all")); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	resp, err := wire.DecodeResponse(msg)
	if err != nil {
		t.Fatal(err)
	}
	if resp.ErrorKind != wire.ErrKindInvalidInput {
		t.Fatalf("error kind = %q, want %q", resp.ErrorKind, wire.ErrKindInvalidInput)
	}
}
