package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var ErrTooManyConnections = errors.New("too many open connections for user")

// AnonymousUser is the user id of subscribers that did not identify
// themselves. The per-user cap does not apply to it.
const AnonymousUser = "anonymous"

// ConnectionManager fans pool events out to the websocket clients watching
// each pool.
type ConnectionManager struct {
	mu    sync.RWMutex
	rooms map[string]*room

	upgrader websocket.Upgrader
	config   ConnectionConfig
	queue    chan delivery
}

// room is everyone watching one pool.
type room struct {
	conns map[string]*Connection // by connection id
	users map[string]int         // open connections per user
}

// Connection is one browser tab subscribed to a pool.
type Connection struct {
	ID          string
	UserID      string
	PoolName    string
	ConnectedAt time.Time

	conn    *websocket.Conn
	send    chan []byte
	manager *ConnectionManager
}

type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	// MaxConnectionsPerUser caps the tabs one user may hold open on a pool.
	// Zero means no cap.
	MaxConnectionsPerUser int
	CheckOrigin           func(r *http.Request) bool
	Clock                 clockwork.Clock
}

type delivery struct {
	poolName string
	userID   string // empty for the whole pool
	event    *PoolEvent
}

// ConnectionStats summarizes the open connections.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActivePools      int            `json:"active_pools"`
	PoolConnections  map[string]int `json:"pool_connections"`
	PoolUsers        map[string]int `json:"pool_users"`
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:          10 * time.Second,
		ReadTimeout:           60 * time.Second,
		PingInterval:          30 * time.Second,
		MaxMessageSize:        1024,
		ReadBufferSize:        1024,
		WriteBufferSize:       1024,
		SendBuffer:            256,
		MaxConnectionsPerUser: 5,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		Clock: clockwork.NewRealClock(),
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = 256
	}
	return &ConnectionManager{
		rooms: make(map[string]*room),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		queue:  make(chan delivery, 1000),
	}
}

// Start delivers queued events until ctx is done, then closes every
// connection.
func (cm *ConnectionManager) Start(ctx context.Context) error {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return nil
		case d := <-cm.queue:
			cm.deliver(d)
		}
	}
}

// UpgradeConnection subscribes the request's websocket to poolName. It
// fails with ErrTooManyConnections before upgrading when the user is at the
// cap.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID, poolName string) error {
	if limit := cm.config.MaxConnectionsPerUser; limit > 0 && userID != AnonymousUser && cm.openFor(poolName, userID) >= limit {
		return fmt.Errorf("%w: %s has %d on %s", ErrTooManyConnections, userID, limit, poolName)
	}

	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		PoolName:    poolName,
		ConnectedAt: cm.config.Clock.Now().UTC(),
		conn:        ws,
		send:        make(chan []byte, cm.config.SendBuffer),
		manager:     cm,
	}
	cm.join(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", userID).
		Str("pool", poolName).
		Msg("pool subscriber connected")
	return nil
}

func (cm *ConnectionManager) openFor(poolName, userID string) int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if rm, ok := cm.rooms[poolName]; ok {
		return rm.users[userID]
	}
	return 0
}

func (cm *ConnectionManager) join(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	rm, ok := cm.rooms[c.PoolName]
	if !ok {
		rm = &room{conns: make(map[string]*Connection), users: make(map[string]int)}
		cm.rooms[c.PoolName] = rm
	}
	rm.conns[c.ID] = c
	rm.users[c.UserID]++

	log.Debug().
		Str("connection_id", c.ID).
		Str("pool", c.PoolName).
		Int("subscribers", len(rm.conns)).
		Msg("joined pool")
}

// leave drops c from its pool and closes its send queue. Both pumps call it,
// so a second call is a no-op.
func (cm *ConnectionManager) leave(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	rm, ok := cm.rooms[c.PoolName]
	if !ok {
		return
	}
	if _, ok := rm.conns[c.ID]; !ok {
		return
	}

	delete(rm.conns, c.ID)
	close(c.send)
	if rm.users[c.UserID]--; rm.users[c.UserID] <= 0 {
		delete(rm.users, c.UserID)
	}
	if len(rm.conns) == 0 {
		delete(cm.rooms, c.PoolName)
	}

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", c.UserID).
		Str("pool", c.PoolName).
		Dur("connected_for", cm.config.Clock.Since(c.ConnectedAt)).
		Msg("pool subscriber left")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, rm := range cm.rooms {
		for _, c := range rm.conns {
			all = append(all, c)
		}
	}
	cm.mu.RUnlock()

	for _, c := range all {
		cm.leave(c)
	}
}

// BroadcastToPool queues event for every subscriber of poolName. A full
// queue drops the event; clients re-read the pool on their next refresh.
func (cm *ConnectionManager) BroadcastToPool(poolName string, event *PoolEvent) {
	cm.enqueue(delivery{poolName: poolName, event: event})
}

// BroadcastToUser queues event for userID's tabs on poolName only.
func (cm *ConnectionManager) BroadcastToUser(poolName, userID string, event *PoolEvent) {
	cm.enqueue(delivery{poolName: poolName, userID: userID, event: event})
}

func (cm *ConnectionManager) enqueue(d delivery) {
	select {
	case cm.queue <- d:
	default:
		log.Warn().
			Str("pool", d.poolName).
			Str("user_id", d.userID).
			Str("event_type", string(d.event.Type)).
			Msg("broadcast queue full, dropping event")
	}
}

func (cm *ConnectionManager) deliver(d delivery) {
	data, err := json.Marshal(d.event)
	if err != nil {
		log.Error().Err(err).Str("pool", d.poolName).Msg("failed to marshal pool event")
		return
	}

	// send is only closed under the write lock, so pushing under RLock is safe
	var slow []*Connection
	sent := 0
	cm.mu.RLock()
	if rm, ok := cm.rooms[d.poolName]; ok {
		for _, c := range rm.conns {
			if d.userID != "" && c.UserID != d.userID {
				continue
			}
			select {
			case c.send <- data:
				sent++
			default:
				slow = append(slow, c)
			}
		}
	}
	cm.mu.RUnlock()

	for _, c := range slow {
		log.Warn().
			Str("connection_id", c.ID).
			Str("user_id", c.UserID).
			Str("pool", c.PoolName).
			Msg("subscriber not keeping up, disconnecting")
		cm.leave(c)
		c.conn.Close()
	}

	log.Debug().
		Str("event_type", string(d.event.Type)).
		Str("pool", d.poolName).
		Int("delivered", sent).
		Msg("pool event delivered")
}

func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActivePools:     len(cm.rooms),
		PoolConnections: make(map[string]int, len(cm.rooms)),
		PoolUsers:       make(map[string]int, len(cm.rooms)),
	}
	for name, rm := range cm.rooms {
		stats.TotalConnections += len(rm.conns)
		stats.PoolConnections[name] = len(rm.conns)
		stats.PoolUsers[name] = len(rm.users)
	}
	return stats
}

func (c *Connection) writePump() {
	cfg := c.manager.config
	ticker := cfg.Clock.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.manager.leave(c)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("failed to write pool event")
				return
			}

		case <-ticker.Chan():
			c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("ping failed")
				return
			}
		}
	}
}

// readPump only keeps the read deadline moving; clients never send anything
// the gateway acts on.
func (c *Connection) readPump() {
	cfg := c.manager.config
	defer func() {
		c.manager.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("subscriber closed unexpectedly")
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}
