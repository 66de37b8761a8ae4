package realtime

import (
	"context"
	"errors"
	"sync"

	"github.com/harborchat/harbor/internal/chat/broker"
	"github.com/harborchat/harbor/internal/chat/domain"
	"github.com/harborchat/harbor/internal/chat/service"
	"github.com/harborchat/harbor/pkg/jwtx"
	"github.com/harborchat/harbor/pkg/slogx"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Client frame types.
const (
	frameJoin    = "join"
	frameLeave   = "leave"
	framePublish = "publish"
)

// Server frame types.
const (
	frameMessage = "message"
	frameJoined  = "joined"
	frameLeft    = "left"
	frameError   = "error"
)

type clientFrame struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
	Body string `json:"body,omitempty"`
}

type serverFrame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message *domain.Message `json:"message,omitempty"`
}

// session is the state of one live WebSocket connection. The identity
// resolved at the handshake is fixed for the session's lifetime.
type session struct {
	conn     *websocket.Conn
	claims   jwtx.Claims
	messages *service.MessageService

	// wmu serializes writes; the read loop and the room pump both reply.
	wmu sync.Mutex

	room string
	sub  broker.Subscription
	stop context.CancelFunc
}

func newSession(conn *websocket.Conn, claims jwtx.Claims, messages *service.MessageService) *session {
	return &session{
		conn:     conn,
		claims:   claims,
		messages: messages,
	}
}

func (s *session) run(ctx context.Context) {
	defer s.conn.CloseNow()
	defer s.leave()

	l := slogx.FromContext(ctx)

	for {
		var frame clientFrame
		if err := wsjson.Read(ctx, s.conn, &frame); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			if errors.Is(err, context.Canceled) {
				return
			}
			l.Debug("websocket read ended", "user_id", s.claims.Subject, "error", err)
			return
		}

		switch frame.Type {
		case frameJoin:
			s.handleJoin(ctx, frame.Room)
		case frameLeave:
			s.leave()
			s.write(ctx, serverFrame{Type: frameLeft})
		case framePublish:
			s.handlePublish(ctx, frame.Body)
		default:
			s.write(ctx, serverFrame{Type: frameError, Error: "unknown_frame"})
		}
	}
}

func (s *session) handleJoin(ctx context.Context, room string) {
	s.leave()

	sub, err := s.messages.Listen(ctx, room)
	if err != nil {
		s.write(ctx, serverFrame{Type: frameError, Error: errorCode(err)})
		return
	}

	pumpCtx, cancel := context.WithCancel(ctx)
	s.room = room
	s.sub = sub
	s.stop = cancel

	go s.pump(pumpCtx, sub)
	s.write(ctx, serverFrame{Type: frameJoined, Room: room})
}

func (s *session) handlePublish(ctx context.Context, body string) {
	if s.room == "" {
		s.write(ctx, serverFrame{Type: frameError, Error: "not_in_room"})
		return
	}

	_, err := s.messages.Send(ctx, s.room, s.claims.Subject, s.claims.DisplayName, body)
	if err != nil {
		s.write(ctx, serverFrame{Type: frameError, Error: errorCode(err)})
	}
}

// pump forwards room messages to the socket until the subscription closes
// or the session context ends.
func (s *session) pump(ctx context.Context, sub broker.Subscription) {
	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			s.write(ctx, serverFrame{Type: frameMessage, Room: msg.Room, Message: &msg})
		case <-ctx.Done():
			return
		}
	}
}

func (s *session) leave() {
	if s.sub == nil {
		return
	}
	s.stop()
	_ = s.sub.Close()
	s.room = ""
	s.sub = nil
	s.stop = nil
}

func (s *session) write(ctx context.Context, frame serverFrame) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = wsjson.Write(ctx, s.conn, frame)
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidRoom):
		return "invalid_room"
	case errors.Is(err, service.ErrEmptyMessage):
		return "empty_message"
	case errors.Is(err, service.ErrMessageTooLong):
		return "message_too_long"
	default:
		return "server_error"
	}
}
