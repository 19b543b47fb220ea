package tracking

import (
	"encoding/json"
	"fmt"
	"sync"

	"grocery-delivery/logger"
)

// RoomAdminLive is the global room every admin connection is auto-joined to
const RoomAdminLive = "admin:live"

// OrderRoom returns the room name for an order's tracking broadcasts
func OrderRoom(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

// Principal is the authenticated identity bound to one live connection
type Principal struct {
	Kind   string `json:"kind"`
	UserID uint   `json:"user_id"`
	UUID   string `json:"uuid"`
	Name   string `json:"name"`
}

// Session is one live connection the hub can deliver frames to. Deliver must
// not block; it returns false when the session cannot keep up.
type Session interface {
	Principal() Principal
	Deliver(message []byte) bool
	Close()
}

// ServerMessage is the envelope for every outbound socket frame
type ServerMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub is the room router: it tracks which sessions joined which broadcast
// groups and fans frames out to them.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Session]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Session]struct{})}
}

// Join adds the session to the room. Rejoining is a no-op.
func (h *Hub) Join(room string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[Session]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
}

// Leave removes the session from the room. No-op if not joined.
func (h *Hub) Leave(room string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, s)
}

// LeaveAll removes the session from every room, used on disconnect
func (h *Hub) LeaveAll(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.rooms {
		h.removeLocked(room, s)
	}
}

func (h *Hub) removeLocked(room string, s Session) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize returns the number of sessions currently joined to the room
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// InRoom reports whether the session is joined to the room
func (h *Hub) InRoom(room string, s Session) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[room][s]
	return ok
}

// Broadcast sends the event to every session in the room. Sessions that
// cannot keep up are dropped from all rooms and closed rather than allowed to
// block the fan-out.
func (h *Hub) Broadcast(room, event string, data interface{}) {
	frame, err := json.Marshal(ServerMessage{Event: event, Data: data})
	if err != nil {
		logger.Error("Failed to marshal broadcast frame", err)
		return
	}

	var stalled []Session

	h.mu.RLock()
	for s := range h.rooms[room] {
		if !s.Deliver(frame) {
			stalled = append(stalled, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range stalled {
		logger.Warning(fmt.Sprintf("Dropping slow tracking consumer (user %d) from room %s", s.Principal().UserID, room))
		h.LeaveAll(s)
		s.Close()
	}
}

// Send delivers an event to a single session, bypassing room membership
func Send(s Session, event string, data interface{}) bool {
	frame, err := json.Marshal(ServerMessage{Event: event, Data: data})
	if err != nil {
		logger.Error("Failed to marshal direct frame", err)
		return false
	}
	return s.Deliver(frame)
}
