package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/heartbeat-engine/internal/logger"
	"github.com/jwebster45206/heartbeat-engine/internal/services/events"
	"github.com/jwebster45206/heartbeat-engine/internal/session"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
)

// Subscriber opens a pub/sub subscription to one player's events.
type Subscriber interface {
	Subscribe(ctx context.Context, playerID string) *redis.PubSub
}

// Runtime is notified when sockets come and go.
type Runtime interface {
	PublishStatus(ctx context.Context, playerID string)
	Disconnect(playerID, socketID string)
}

type client struct {
	playerID string
	socketID string
	// replaced receives the session_replaced frame; the writer sends it and closes.
	replaced chan []byte
}

// Server upgrades player connections and forwards each player's events to
// the one socket they have bound.
type Server struct {
	sessions   *session.Registry
	subscriber Subscriber
	runtime    Runtime
	log        *slog.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client // by socket id
}

func NewServer(sessions *session.Registry, subscriber Subscriber, runtime Runtime, log *slog.Logger) *Server {
	return &Server{
		sessions:   sessions,
		subscriber: subscriber,
		runtime:    runtime,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Connections returns how many sockets are open.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimSpace(r.URL.Query().Get("playerID"))
	if playerID == "" {
		http.Error(w, "playerID is required", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "error", err, "player_id", playerID)
		return
	}
	defer conn.Close()

	c := &client{
		playerID: playerID,
		socketID: uuid.NewString(),
		replaced: make(chan []byte, 1),
	}
	log := logger.WithPlayer(s.log, c.playerID, c.socketID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe before binding so the connect-time status is not missed.
	pubsub := s.subscriber.Subscribe(ctx, playerID)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		log.Error("Failed to subscribe to player events", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"),
			time.Now().Add(time.Second))
		return
	}

	s.attach(c)
	log.Info("Socket connected")
	s.runtime.PublishStatus(ctx, playerID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx, cancel, conn, pubsub.Channel(), c, log)
	}()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients do not send anything meaningful; reading drives control frames.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	<-done
	s.detach(c)
	s.runtime.Disconnect(playerID, c.socketID)
	log.Info("Socket disconnected")
}

func (s *Server) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, msgs <-chan *redis.Message, c *client, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				cancel()
				return
			}
			if err := write(conn, websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Debug("Socket write failed", "error", err)
				cancel()
				_ = conn.Close()
				return
			}
		case frame := <-c.replaced:
			_ = write(conn, websocket.TextMessage, frame)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session replaced"),
				time.Now().Add(writeWait))
			cancel()
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := write(conn, websocket.PingMessage, nil); err != nil {
				cancel()
				_ = conn.Close()
				return
			}
		}
	}
}

// attach binds c as the player's socket and evicts whatever socket it displaced.
func (s *Server) attach(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clients[c.socketID] = c
	replacedID := s.sessions.RegisterSocket(c.playerID, c.socketID)
	if replacedID == "" {
		return
	}
	old, ok := s.clients[replacedID]
	if !ok {
		return
	}
	frame, err := json.Marshal(events.Event{
		Type:     events.EventTypeSessionReplaced,
		PlayerID: c.playerID,
		Data:     map[string]string{"socketId": c.socketID},
	})
	if err != nil {
		return
	}
	select {
	case old.replaced <- frame:
	default:
	}
	s.log.Info("Socket replaced", "player_id", c.playerID, "old_socket_id", replacedID, "socket_id", c.socketID)
}

func (s *Server) detach(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c.socketID)
}

func write(conn *websocket.Conn, messageType int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(messageType, data)
}
