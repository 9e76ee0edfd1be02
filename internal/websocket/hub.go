package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"sharkclean/internal/infrastructure"
	"sharkclean/pkg/contracts/events"
)

const broadcastBuffer = 256

// outbound is a marshalled message waiting for the hub loop
type outbound struct {
	msgType string
	payload []byte
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *Metrics

	// snapshots, when set, supplies the current job states sent to each new
	// client so it does not wait for the next change.
	snapshots func() []*events.JobSnapshot

	totalConnections int64
	messagesSent     int64
	messagesDropped  int64

	quit    chan struct{}
	running bool
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithMetrics records connection and broadcast metrics
func WithMetrics(m *Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// WithSnapshots replays current job snapshots to newly connected clients
func WithSnapshots(fn func() []*events.JobSnapshot) HubOption {
	return func(h *Hub) { h.snapshots = fn }
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		quit:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start runs the hub loop in its own goroutine
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("Hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client, "closed")

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.totalConnections++
	h.mu.Unlock()

	ctx := client.context()
	h.metrics.connected(ctx)
	h.logger.InfoContext(ctx, "Client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	h.sendTo(client, events.Message{
		Type: events.MessageTypeConnect,
		Data: events.ConnectData{
			ClientID: client.id,
			Status:   "connected",
			Message:  "Connected to job progress stream",
		},
		Timestamp: time.Now(),
		TraceID:   client.traceID,
	})

	if h.snapshots == nil {
		return
	}
	for _, snapshot := range h.snapshots() {
		h.sendTo(client, events.Message{
			Type:      events.MessageTypeJobSnapshot,
			Data:      snapshot,
			Timestamp: snapshot.UpdatedAt,
		})
	}
}

// sendTo queues msg for one client without blocking the hub loop
func (h *Hub) sendTo(client *Client, msg events.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Error marshaling message", slog.String("error", err.Error()))
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("Client buffer full, message dropped",
			slog.String("client_id", client.id),
			slog.String("message_type", string(msg.Type)))
	}
}

func (h *Hub) removeClient(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	duration := time.Since(client.connectedAt)
	h.metrics.disconnected(ctx, duration, reason)
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", duration))
}

func (h *Hub) fanOut(msg outbound) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	delivered, dropped := 0, 0
	for _, client := range clients {
		select {
		case client.send <- msg.payload:
			delivered++
		default:
			// A client that cannot keep up is disconnected rather than
			// allowed to stall every other client.
			dropped++
			h.logger.WarnContext(client.context(), "Client send buffer full, disconnecting",
				slog.String("client_id", client.id))
			h.removeClient(client, "slow_consumer")
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(delivered)
	h.mu.Unlock()

	h.metrics.broadcast(context.Background(), msg.msgType, delivered, dropped)
	h.logger.Debug("Broadcast delivered",
		slog.String("message_type", msg.msgType),
		slog.Int("delivered", delivered),
		slog.Int("dropped", dropped),
		slog.Int("message_size", len(msg.payload)))
}

// Publish marshals msg and queues it for every client. It never blocks: when
// the broadcast buffer is full the message is dropped and counted.
func (h *Hub) Publish(msg events.Message) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		ctx := context.Background()
		if msg.TraceID != "" {
			ctx = infrastructure.WithTraceID(ctx, msg.TraceID)
		}
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msg.Type)))
		return
	}

	select {
	case h.broadcast <- outbound{msgType: string(msg.Type), payload: payload}:
	default:
		h.mu.Lock()
		h.messagesDropped++
		h.mu.Unlock()
		h.metrics.hubDropped(context.Background())
		h.logger.Warn("Broadcast buffer full, message dropped",
			slog.String("message_type", string(msg.Type)))
	}
}

// PublishError pushes an error event to every client
func (h *Hub) PublishError(code, message, jobID string, recoverable bool) {
	h.Publish(events.Message{
		Type: events.MessageTypeError,
		Data: events.ErrorData{
			Code:        code,
			Message:     message,
			JobID:       jobID,
			Recoverable: recoverable,
		},
	})
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
		client.conn.Close()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats returns counters for the health endpoint
func (h *Hub) Stats() map[string]int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return map[string]int64{
		"active_clients":    int64(len(h.clients)),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"messages_dropped":  h.messagesDropped,
	}
}

// Stop stops the hub loop and closes every client
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.quit)

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
}
