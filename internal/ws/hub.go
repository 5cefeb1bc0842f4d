package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/nmarofsky/DatingApp/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const redisPubSubChannel = "realtime:events"

// Hub tracks local WebSocket clients by connection id, the transport groups
// they joined, and fans events out to them. With Redis configured, events
// are also published so other instances can deliver to their own clients.
type Hub struct {
	clients map[string]*Client
	groups  map[string]map[string]struct{}

	broadcast chan *targetedEvent

	mu          sync.RWMutex
	redisClient *redis.Client
	instanceID  string
	ctx         context.Context
	cancel      context.CancelFunc
}

type targetedEvent struct {
	Group         string   `json:"group,omitempty"`
	ConnectionIDs []string `json:"connection_ids,omitempty"`
	Event         *Event   `json:"event"`
}

type redisMessage struct {
	InstanceID string        `json:"instance_id"`
	Target     targetedEvent `json:"target"`
}

// NewHub creates a new Hub. redisClient may be nil.
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:     make(map[string]*Client),
		groups:      make(map[string]map[string]struct{}),
		broadcast:   make(chan *targetedEvent, 256),
		redisClient: redisClient,
		instanceID:  uuid.NewString(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Context is cancelled when the hub stops
func (h *Hub) Context() context.Context {
	return h.ctx
}

// Register adds a client to the hub. It is addressable as soon as this
// returns.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[client.id]; ok {
		if old == client {
			return
		}
		h.removeLocked(old)
	}
	h.clients[client.id] = client
	connectionsActive.Inc()
}

// Unregister removes a client from the hub and every group it joined.
// Unregistering twice is harmless.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.clients[client.id]; ok && current == client {
		h.removeLocked(client)
	}
}

// Run delivers queued events until the hub stops
func (h *Hub) Run() {
	if h.redisClient != nil {
		go h.subscribeRedis()
	}

	for {
		select {
		case msg := <-h.broadcast:
			h.deliver(msg)

		case <-h.ctx.Done():
			return
		}
	}
}

// removeLocked drops a client from the registry and all groups, closing its
// send channel. Callers hold h.mu.
func (h *Hub) removeLocked(client *Client) {
	delete(h.clients, client.id)
	for name, members := range h.groups {
		delete(members, client.id)
		if len(members) == 0 {
			delete(h.groups, name)
		}
	}
	close(client.send)
	connectionsActive.Dec()
}

func (h *Hub) deliver(msg *targetedEvent) {
	data, err := json.Marshal(msg.Event)
	if err != nil {
		logger.GetLogger().Error().Err(err).Str("type", msg.Event.Type).Msg("ws: marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []string
	if msg.Group != "" {
		for id := range h.groups[msg.Group] {
			targets = append(targets, id)
		}
	} else {
		targets = msg.ConnectionIDs
	}

	for _, id := range targets {
		client, ok := h.clients[id]
		if !ok {
			continue
		}
		select {
		case client.send <- data:
			eventsSent.WithLabelValues(msg.Event.Type).Inc()
		default:
			eventsDropped.Inc()
			h.removeLocked(client)
		}
	}
}

// AddToGroup subscribes a connection to a transport group
func (h *Hub) AddToGroup(connectionID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[group]
	if !ok {
		members = make(map[string]struct{})
		h.groups[group] = members
	}
	members[connectionID] = struct{}{}
}

// RemoveFromGroup unsubscribes a connection; unknown ids are ignored
func (h *Hub) RemoveFromGroup(connectionID, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.groups[group]; ok {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// GroupMembers returns the local connection ids subscribed to group
func (h *Hub) GroupMembers(group string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.groups[group]))
	for id := range h.groups[group] {
		ids = append(ids, id)
	}
	return ids
}

// SendToGroup sends an event to every member of a group on every instance
func (h *Hub) SendToGroup(group string, event *Event) {
	target := &targetedEvent{Group: group, Event: event}
	h.enqueue(target)
	h.publish(target)
}

// SendToConnections sends an event to specific connections. Ids that are
// not local are handed to the other instances through Redis.
func (h *Hub) SendToConnections(connectionIDs []string, event *Event) {
	if len(connectionIDs) == 0 {
		return
	}

	h.mu.RLock()
	var local, remote []string
	for _, id := range connectionIDs {
		if _, ok := h.clients[id]; ok {
			local = append(local, id)
		} else {
			remote = append(remote, id)
		}
	}
	h.mu.RUnlock()

	if len(local) > 0 {
		h.enqueue(&targetedEvent{ConnectionIDs: local, Event: event})
	}
	if len(remote) > 0 {
		h.publish(&targetedEvent{ConnectionIDs: remote, Event: event})
	}
}

// SendToConnection sends an event to a single connection
func (h *Hub) SendToConnection(connectionID string, event *Event) {
	h.SendToConnections([]string{connectionID}, event)
}

func (h *Hub) enqueue(target *targetedEvent) {
	select {
	case h.broadcast <- target:
	case <-h.ctx.Done():
	}
}

func (h *Hub) publish(target *targetedEvent) {
	if h.redisClient == nil {
		return
	}
	data, err := json.Marshal(&redisMessage{InstanceID: h.instanceID, Target: *target})
	if err != nil {
		return
	}
	if err := h.redisClient.Publish(h.ctx, redisPubSubChannel, data).Err(); err != nil {
		logger.GetLogger().Warn().Err(err).Msg("ws: redis publish failed")
	}
}

// subscribeRedis delivers events published by other instances
func (h *Hub) subscribeRedis() {
	pubsub := h.redisClient.Subscribe(h.ctx, redisPubSubChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if target, ok := h.decodeRemote(msg.Payload); ok {
				h.enqueue(target)
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// decodeRemote parses a pub/sub payload, skipping this instance's own
// publishes since they were already delivered locally
func (h *Hub) decodeRemote(payload string) (*targetedEvent, bool) {
	var rm redisMessage
	if err := json.Unmarshal([]byte(payload), &rm); err != nil {
		return nil, false
	}
	if rm.InstanceID == h.instanceID || rm.Target.Event == nil {
		return nil, false
	}
	return &rm.Target, true
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() {
	h.cancel()
}
