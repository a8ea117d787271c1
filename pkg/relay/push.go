package relay

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventHandler receives push-channel events, including EventResync for
// lines that failed to parse.
type EventHandler func(Event)

// PushStream subscribes to the relay's push channel. Each websocket text
// message is one line-oriented event; anything unparseable is surfaced as
// EventResync so the consumer can refetch instead of guessing.
type PushStream struct {
	url     string
	handler EventHandler
	logger  *slog.Logger

	conn   *websocket.Conn
	done   chan struct{}
	mu     sync.Mutex
	active bool
}

// NewPushStream creates a push-channel subscriber. The handler is invoked
// from the read goroutine, one event at a time.
func NewPushStream(url string, handler EventHandler, logger *slog.Logger) *PushStream {
	return &PushStream{
		url:     url,
		handler: handler,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Connect dials the push channel and starts the read loop.
func (s *PushStream) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("push stream already connected")
	}

	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}

	s.conn = conn
	s.active = true
	s.done = make(chan struct{})

	go s.readLines(conn)
	go s.sendPings()

	s.logger.Info("push channel connected", "url", s.url)

	return nil
}

// Close stops the read loop and closes the connection. Safe to call more
// than once; no events are delivered after Close returns.
func (s *PushStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}

	s.active = false
	close(s.done)

	if s.conn != nil {
		s.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		s.conn.Close()
		s.conn = nil
	}

	s.logger.Info("push channel disconnected")

	return nil
}

// IsActive reports whether the stream is currently connected.
func (s *PushStream) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

func (s *PushStream) readLines(conn *websocket.Conn) {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("push channel close error", "error", err)
		}
	}()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				s.logger.Error("push channel read error", "error", err)
			}
			return
		}

		event, err := ParseEvent(string(message))
		if err != nil {
			// Malformed line: the safe fallback is a full refetch,
			// never a partial guess.
			s.logger.Warn("unparseable push event, requesting resync", "error", err)
			event = Event{Type: EventResync}
		}

		s.handler(event)
	}
}

func (s *PushStream) sendPings() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Error("push channel ping error", "error", err)
				return
			}
		}
	}
}
