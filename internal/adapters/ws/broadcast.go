package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/quentinrf/plant-monitor/services/envsensor/internal/ports"
)

const sendBuffer = 64

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster fans raw sensor values out to WebSocket clients.
// It implements ports.Notifier and never blocks the caller.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
}

var _ ports.Notifier = (*Broadcaster)(nil)

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]bool),
	}
}

// AddClient queues first as the initial message for conn and registers it
func (b *Broadcaster) AddClient(conn *websocket.Conn, first WSMessage) *client {
	c := newClient(conn)

	data, err := json.Marshal(first)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal initial message")
	} else {
		// The channel is fresh and buffered, so this never blocks
		c.send <- data
	}

	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()

	return c
}

func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// ValueChanged implements ports.Notifier
func (b *Broadcaster) ValueChanged(ev ports.ValueChanged) {
	b.broadcast(WSMessage{
		Type: MsgValueChanged,
		Payload: ValueChangedPayload{
			SensorID:   ev.SensorID,
			SensorType: ev.SensorType.String(),
			Value:      ev.Value,
			Accuracy:   ev.Accuracy,
			Timestamp:  ev.Timestamp,
		},
	})
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("broadcast marshal error")
		return
	}

	// Sends happen under the read lock so a concurrent RemoveClient cannot
	// close a channel mid-send
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		log.Warn().Msg("ws client too slow, disconnecting")
		b.RemoveClient(c)
	}
}

func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Close disconnects every client
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		c.close()
	}
}
