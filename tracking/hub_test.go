package tracking

import (
	"encoding/json"
	"sync"
	"testing"

	"grocery-delivery/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession captures delivered frames without a real socket
type fakeSession struct {
	mu        sync.Mutex
	principal Principal
	frames    [][]byte
	stalled   bool
	closed    bool
}

func newFakeSession(kind string, userID uint) *fakeSession {
	return &fakeSession{principal: Principal{Kind: kind, UserID: userID, UUID: "uuid-test", Name: "Test"}}
}

func (f *fakeSession) Principal() Principal { return f.principal }

func (f *fakeSession) Deliver(message []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stalled {
		return false
	}
	f.frames = append(f.frames, append([]byte(nil), message...))
	return true
}

func (f *fakeSession) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (f *fakeSession) received(t *testing.T) []frame {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]frame, 0, len(f.frames))
	for _, raw := range f.frames {
		var fr frame
		require.NoError(t, json.Unmarshal(raw, &fr))
		out = append(out, fr)
	}
	return out
}

func (f *fakeSession) events(t *testing.T) []string {
	t.Helper()
	var names []string
	for _, fr := range f.received(t) {
		names = append(names, fr.Event)
	}
	return names
}

func TestHubJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	s := newFakeSession(constants.RoleCustomer, 1)

	hub.Join("order:1", s)
	hub.Join("order:1", s)

	assert.Equal(t, 1, hub.RoomSize("order:1"))
}

func TestHubLeaveIsNoOpWhenNotJoined(t *testing.T) {
	hub := NewHub()
	s := newFakeSession(constants.RoleCustomer, 1)

	hub.Leave("order:1", s)
	assert.Equal(t, 0, hub.RoomSize("order:1"))
}

func TestHubBroadcastReachesMembersOnly(t *testing.T) {
	hub := NewHub()
	joined := newFakeSession(constants.RoleCustomer, 1)
	outsider := newFakeSession(constants.RoleCustomer, 2)

	hub.Join("order:1", joined)

	hub.Broadcast("order:1", "delivery_status_update", map[string]any{"order_id": 1})

	assert.Equal(t, []string{"delivery_status_update"}, joined.events(t))
	assert.Empty(t, outsider.events(t))
}

func TestHubLeaveAll(t *testing.T) {
	hub := NewHub()
	s := newFakeSession(constants.RoleAdmin, 1)

	hub.Join(RoomAdminLive, s)
	hub.Join("order:1", s)
	hub.Join("order:2", s)

	hub.LeaveAll(s)

	assert.Equal(t, 0, hub.RoomSize(RoomAdminLive))
	assert.Equal(t, 0, hub.RoomSize("order:1"))
	assert.Equal(t, 0, hub.RoomSize("order:2"))
}

func TestHubDropsStalledConsumers(t *testing.T) {
	hub := NewHub()
	healthy := newFakeSession(constants.RoleCustomer, 1)
	stalled := newFakeSession(constants.RoleCustomer, 2)
	stalled.stalled = true

	hub.Join("order:1", healthy)
	hub.Join("order:1", stalled)

	hub.Broadcast("order:1", "delivery_location_update", map[string]any{"order_id": 1})

	assert.Equal(t, 1, hub.RoomSize("order:1"))
	assert.False(t, hub.InRoom("order:1", stalled))
	assert.True(t, stalled.closed)
	assert.Len(t, healthy.events(t), 1)
}

func TestSendDirect(t *testing.T) {
	s := newFakeSession(constants.RoleCustomer, 1)

	ok := Send(s, "delivery_update", map[string]any{"order_id": 3})
	assert.True(t, ok)
	assert.Equal(t, []string{"delivery_update"}, s.events(t))
}
