// Package realtime pushes auction events to WebSocket clients.  Clients
// join per-auction rooms; room events reach only the room's members while
// global events reach every connected client.  Delivery is best effort to
// whoever is connected at emit time, with no replay.
package realtime

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Client to server events.
const (
	EventJoinAuction  = "joinAuction"
	EventLeaveAuction = "leaveAuction"
	EventPing         = "ping"
)

// Server to client events raised by the hub itself.
const (
	EventPong       = "pong"
	EventUserJoined = "userJoined"
	EventUserLeft   = "userLeft"
)

// Message is the frame exchanged over the socket in both directions.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Presence is the payload of userJoined and userLeft.
type Presence struct {
	Message          string `json:"message"`
	AuctionID        string `json:"auctionId"`
	ParticipantCount int    `json:"participantCount"`
}

// Hub tracks connected clients and their rooms.  Emit never blocks: each
// client has a bounded outbox and a client whose outbox is full is
// disconnected rather than silently skipped.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// EmitToAuction sends the event to every client joined to the auction.
func (h *Hub) EmitToAuction(auctionID, event string, payload any) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[auctionID]))
	for c := range h.rooms[auctionID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.deliver(targets, event, payload)
}

// EmitGlobal sends the event to every connected client.
func (h *Hub) EmitGlobal(event string, payload any) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	h.deliver(targets, event, payload)
}

// JoinAuction adds the client to the auction's room and tells the other
// members.  Joining twice is a no-op.
func (h *Hub) JoinAuction(c *Client, auctionID string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	room := h.rooms[auctionID]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[auctionID] = room
	}
	if _, ok := room[c]; ok {
		h.mu.Unlock()
		return
	}
	room[c] = struct{}{}
	c.rooms[auctionID] = struct{}{}
	others := h.othersLocked(auctionID, c)
	count := len(room)
	h.mu.Unlock()

	log.WithFields(log.Fields{"client_id": c.id, "auction_id": auctionID, "participants": count}).Debug("client joined auction")
	h.deliver(others, EventUserJoined, Presence{Message: "A user joined the auction", AuctionID: auctionID, ParticipantCount: count})
}

// LeaveAuction removes the client from the auction's room and tells the
// remaining members.
func (h *Hub) LeaveAuction(c *Client, auctionID string) {
	h.mu.Lock()
	others, count, ok := h.leaveLocked(c, auctionID)
	h.mu.Unlock()
	if ok {
		h.deliver(others, EventUserLeft, Presence{Message: "A user left the auction", AuctionID: auctionID, ParticipantCount: count})
	}
}

// Participants returns the number of clients joined to the auction.
func (h *Hub) Participants(auctionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[auctionID])
}

// Connected returns the number of connected clients.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.mu.RUnlock()
	for _, c := range all {
		h.unregister(c)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// unregister drops the client from the hub and every room it joined, then
// closes it.  Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	type left struct {
		auctionID string
		others    []*Client
		count     int
	}
	var notices []left

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		for auctionID := range c.rooms {
			others, count, _ := h.leaveLocked(c, auctionID)
			notices = append(notices, left{auctionID, others, count})
		}
	}
	h.mu.Unlock()

	c.close()
	for _, n := range notices {
		h.deliver(n.others, EventUserLeft, Presence{Message: "A user left the auction", AuctionID: n.auctionID, ParticipantCount: n.count})
	}
}

// leaveLocked must be called with h.mu held for writing.
func (h *Hub) leaveLocked(c *Client, auctionID string) ([]*Client, int, bool) {
	room := h.rooms[auctionID]
	if _, ok := room[c]; !ok {
		return nil, 0, false
	}
	delete(room, c)
	delete(c.rooms, auctionID)
	if len(room) == 0 {
		delete(h.rooms, auctionID)
	}
	return h.othersLocked(auctionID, c), len(room), true
}

func (h *Hub) othersLocked(auctionID string, except *Client) []*Client {
	out := make([]*Client, 0, len(h.rooms[auctionID]))
	for c := range h.rooms[auctionID] {
		if c != except {
			out = append(out, c)
		}
	}
	return out
}

func (h *Hub) deliver(targets []*Client, event string, payload any) {
	if len(targets) == 0 {
		return
	}
	frame, err := json.Marshal(Message{Event: event, Data: payload})
	if err != nil {
		log.WithFields(log.Fields{"event": event, "error": err}).Error("realtime: encode failed")
		return
	}
	for _, c := range targets {
		if !c.enqueue(frame) {
			log.WithFields(log.Fields{"client_id": c.id, "event": event}).Warn("realtime: outbox full, disconnecting client")
			h.unregister(c)
		}
	}
}
