package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/conduit-lang/drest/internal/web/query"
	"github.com/conduit-lang/drest/internal/web/response"
)

// session is one live connection. The read loop owns reads; the write pump
// owns every write, pings included.
type session struct {
	id       string
	conn     *websocket.Conn
	resource string
	handler  *Handler
	send     chan Reply
	ctx      context.Context
	cancel   context.CancelCauseFunc
	logger   *zap.Logger
}

func newSession(id string, conn *websocket.Conn, resource string, h *Handler) *session {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &session{
		id:       id,
		conn:     conn,
		resource: resource,
		handler:  h,
		send:     make(chan Reply, 8),
		ctx:      ctx,
		cancel:   cancel,
		logger:   h.logger.With(zap.String("session_id", id)),
	}
}

// run blocks until both loops have stopped and the connection is closed
func (s *session) run() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writePump()
	}()

	s.readLoop()
	s.cancel(nil)
	<-done
}

func (s *session) pongWait() time.Duration {
	return s.handler.config.PingInterval * 10 / 9
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(s.handler.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.pongWait()))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.pongWait()))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) &&
				s.ctx.Err() == nil {
				s.logger.Debug("live session read failed", zap.Error(err))
			}
			return
		}

		reply := s.handle(data)
		select {
		case s.send <- reply:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *session) handle(data []byte) Reply {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorReply("", http.StatusBadRequest, &response.ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request: " + err.Error(),
		})
	}

	params, err := query.ParseFilters(req.Query)
	if err != nil {
		return errorReply(req.ID, http.StatusBadRequest, &response.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
	}

	tree, hit, err := s.handler.trees.Encode(s.ctx, s.resource, params)
	if err != nil {
		status, body := response.FilterError(err)
		return errorReply(req.ID, status, body)
	}
	return Reply{ID: req.ID, Type: ReplyTree, Tree: tree, Cached: hit}
}

func (s *session) writePump() {
	ticker := time.NewTicker(s.handler.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.ctx.Done():
			code, text := websocket.CloseNormalClosure, ""
			if errors.Is(context.Cause(s.ctx), errShutdown) {
				code, text = websocket.CloseGoingAway, errShutdown.Error()
			}
			s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text),
				time.Now().Add(s.handler.config.WriteTimeout))
			return

		case reply := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.handler.config.WriteTimeout))
			if err := s.conn.WriteJSON(reply); err != nil {
				s.logger.Debug("live session write failed", zap.Error(err))
				s.cancel(err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.handler.config.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.cancel(err)
				return
			}
		}
	}
}
