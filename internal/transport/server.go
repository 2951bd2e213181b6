// Package transport implements the point-to-point request/response channel
// between the tick scheduler (client) and a decision worker endpoint (server).
// Frames are msgpack-encoded; every request is answered by exactly one
// response carrying the same request id.
package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"llm-tick-trader/internal/logger"
	"llm-tick-trader/internal/wire"
)

// Handler answers one decoded request. Implementations must not panic; a
// failure is reported through the response's ErrorKind.
type Handler interface {
	Handle(ctx context.Context, req wire.Request) wire.Response
}

// Server binds one worker endpoint to a TCP address and serves the
// request/response protocol over websocket connections.
type Server struct {
	handler Handler
	srv     *http.Server
	upg     websocket.Upgrader
}

func NewServer(addr string, h Handler) *Server {
	s := &Server{
		handler: h,
		upg: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Point-to-point channel, not a browser surface.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveWS)
	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upg.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorWithErr(r.Context(), "Websocket upgrade failed", err, "remote", r.RemoteAddr)
		return
	}
	logger.Info(r.Context(), "Producer connected", "remote", r.RemoteAddr)
	go s.serveConn(conn)
}

// serveConn processes requests sequentially: the channel carries at most one
// outstanding request, so there is nothing to parallelize per connection.
func (s *Server) serveConn(conn *websocket.Conn) {
	defer conn.Close()
	ctx := context.Background()
	var writeMu sync.Mutex

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Info(ctx, "Producer disconnected", "reason", err.Error())
			return
		}

		req, err := wire.DecodeRequest(msg)
		if err != nil {
			logger.ErrorWithErr(ctx, "Undecodable request frame", err)
			writeResponse(conn, &writeMu, wire.Failure("", wire.ErrKindInvalidInput))
			continue
		}

		resp := s.handler.Handle(ctx, req)
		if err := writeResponse(conn, &writeMu, resp); err != nil {
			logger.ErrorWithErr(ctx, "Failed to write response", err, "request_id", req.RequestID)
			return
		}
	}
}

func writeResponse(conn *websocket.Conn, mu *sync.Mutex, resp wire.Response) error {
	b, err := wire.EncodeResponse(resp)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.BinaryMessage, b)
}
