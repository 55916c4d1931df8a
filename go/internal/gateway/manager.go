// Package gateway is the WebSocket session layer: it upgrades connections,
// binds each one to a (room, user) pair as intents come in, fans engine events
// out to every session in a room, and feeds disconnects back into the engine.
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/btktNo012/MysteryMakerProject/go/internal/events"
	"github.com/btktNo012/MysteryMakerProject/go/internal/room"
)

// ConnectionConfig holds the WebSocket tunables.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// broadcastMessage is one queued fan-out. UserID limits delivery to a single
// user's sessions when set.
type broadcastMessage struct {
	roomID string
	userID string
	event  *events.Event
}

// Manager owns every live connection, grouped per room.
type Manager struct {
	app      *room.App
	upgrader websocket.Upgrader
	config   ConnectionConfig

	mu    sync.RWMutex
	rooms map[string]map[*Connection]bool

	broadcastCh chan broadcastMessage
}

// Connection is one client session. ID doubles as the player's volatile
// session id; roomID and userID are bound by the first create/join intent and
// re-bound on reconnect.
type Connection struct {
	ID      string
	manager *Manager
	conn    *websocket.Conn
	send    chan []byte

	mu     sync.Mutex
	roomID string
	userID string
}

// NewManager creates a connection manager driving the given engine.
func NewManager(app *room.App, config ConnectionConfig) *Manager {
	return &Manager{
		app: app,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		rooms:       make(map[string]map[*Connection]bool),
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

var _ room.Broadcaster = (*Manager)(nil)

// Start processes queued broadcasts until the context is cancelled.
func (m *Manager) Start(ctx context.Context) {
	log.Info().Msg("gateway started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("gateway shutting down")
			return
		case msg := <-m.broadcastCh:
			m.deliver(msg)
		}
	}
}

// HandleWebSocket upgrades an HTTP request and starts the session pumps.
func (m *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Connection{
		ID:      uuid.New().String(),
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
	}
	log.Info().Str("session_id", c.ID).Msg("websocket connection established")

	go c.writePump()
	go c.readPump()
}

// bind attaches a connection to a room pool, detaching it from any previous
// room first.
func (m *Manager) bind(c *Connection, roomID, userID string) {
	m.unbind(c)

	c.mu.Lock()
	c.roomID = roomID
	c.userID = userID
	c.mu.Unlock()

	m.mu.Lock()
	if m.rooms[roomID] == nil {
		m.rooms[roomID] = make(map[*Connection]bool)
	}
	m.rooms[roomID][c] = true
	m.mu.Unlock()
	log.Debug().Str("session_id", c.ID).Str("room_id", roomID).Str("user_id", userID).Msg("session bound to room")
}

// unbind removes a connection from its room pool, if any.
func (m *Manager) unbind(c *Connection) {
	c.mu.Lock()
	roomID := c.roomID
	c.roomID = ""
	c.userID = ""
	c.mu.Unlock()
	if roomID == "" {
		return
	}

	m.mu.Lock()
	if pool, ok := m.rooms[roomID]; ok {
		delete(pool, c)
		if len(pool) == 0 {
			delete(m.rooms, roomID)
		}
	}
	m.mu.Unlock()
}

// BroadcastToRoom queues an event for every session bound to the room.
func (m *Manager) BroadcastToRoom(roomID string, event *events.Event) {
	select {
	case m.broadcastCh <- broadcastMessage{roomID: roomID, event: event}:
	default:
		log.Warn().Str("room_id", roomID).Msg("broadcast channel full, dropping event")
	}
}

// SendToUser queues an event for one user's sessions in the room only.
func (m *Manager) SendToUser(roomID, userID string, event *events.Event) {
	select {
	case m.broadcastCh <- broadcastMessage{roomID: roomID, userID: userID, event: event}:
	default:
		log.Warn().Str("room_id", roomID).Str("user_id", userID).Msg("broadcast channel full, dropping event")
	}
}

// deliver fans one queued event out to its target sessions.
func (m *Manager) deliver(msg broadcastMessage) {
	m.mu.RLock()
	pool, ok := m.rooms[msg.roomID]
	if !ok {
		m.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(pool))
	for c := range pool {
		if msg.userID != "" {
			c.mu.Lock()
			match := c.userID == msg.userID
			c.mu.Unlock()
			if !match {
				continue
			}
		}
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	data, err := json.Marshal(msg.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, c := range targets {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("session_id", c.ID).Msg("send buffer full, closing connection")
			m.drop(c)
		}
	}
}

// drop tears a connection down.
func (m *Manager) drop(c *Connection) {
	m.unbind(c)
	c.conn.Close()
}

// sendEvent writes an event down a single connection, bypassing the room
// pools. Used for caller-only replies before a connection is bound.
func (c *Connection) sendEvent(event *events.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal caller reply")
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().Str("session_id", c.ID).Msg("send buffer full, dropping caller reply")
	}
}

// writePump pushes outbound frames and keepalive pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("session_id", c.ID).Msg("websocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes inbound intents until the connection dies, then reports
// the disconnect to the engine.
func (c *Connection) readPump() {
	defer func() {
		c.handleDisconnect()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("session_id", c.ID).Msg("unexpected websocket close")
			}
			break
		}
		c.manager.dispatch(c, message)
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}

// handleDisconnect unbinds the session and marks its player disconnected.
func (c *Connection) handleDisconnect() {
	c.mu.Lock()
	roomID := c.roomID
	c.mu.Unlock()

	m := c.manager
	m.unbind(c)
	if roomID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.app.HandleDisconnect(ctx, roomID, c.ID); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("disconnect handling failed")
	}
}
