package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(canJoin JoinChecker) *Hub {
	hub := NewHub(canJoin)
	go hub.Run()
	return hub
}

func newTestClient(hub *Hub, userID uint, buffer int) *Client {
	return &Client{
		hub:    hub,
		ID:     uuid.New(),
		UserID: userID,
		Send:   make(chan []byte, buffer),
		rooms:  make(map[uint]bool),
	}
}

func register(t *testing.T, hub *Hub, client *Client) {
	t.Helper()
	hub.Register <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.users[client.UserID][client]
	}, time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case raw := <-client.Send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
		return Event{}
	}
}

func assertSilent(t *testing.T, client *Client) {
	t.Helper()
	select {
	case raw := <-client.Send:
		t.Fatalf("unexpected delivery: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func allowAll(uint, uint) bool { return true }

func TestPublishToRoomReachesMembersOnly(t *testing.T) {
	hub := newTestHub(allowAll)

	member := newTestClient(hub, 20, 8)
	other := newTestClient(hub, 30, 8)
	register(t, hub, member)
	register(t, hub, other)

	require.True(t, hub.JoinRoom(member, 1))

	hub.PublishToRoom(1, "newBid", map[string]interface{}{"buyerId": 20, "offeredPrice": 450})

	event := receive(t, member)
	assert.Equal(t, "newBid", event.Event)
	assertSilent(t, other)
}

func TestPublishToUserReachesEveryConnection(t *testing.T) {
	hub := newTestHub(allowAll)

	phone := newTestClient(hub, 20, 8)
	laptop := newTestClient(hub, 20, 8)
	stranger := newTestClient(hub, 30, 8)
	register(t, hub, phone)
	register(t, hub, laptop)
	register(t, hub, stranger)

	hub.PublishToUser(20, "receiveMessage", map[string]string{"content": "hello"})

	assert.Equal(t, "receiveMessage", receive(t, phone).Event)
	assert.Equal(t, "receiveMessage", receive(t, laptop).Event)
	assertSilent(t, stranger)
}

func TestJoinRoomHonorsCapabilityCheck(t *testing.T) {
	hub := newTestHub(func(dealID, userID uint) bool {
		return dealID == 1
	})

	client := newTestClient(hub, 20, 8)
	register(t, hub, client)

	assert.True(t, hub.JoinRoom(client, 1))
	assert.False(t, hub.JoinRoom(client, 2))

	hub.PublishToRoom(2, "newBid", nil)
	assertSilent(t, client)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := newTestHub(allowAll)

	slow := newTestClient(hub, 20, 1)
	register(t, hub, slow)
	require.True(t, hub.JoinRoom(slow, 1))

	// First publish fills the buffer, second finds it full and drops the
	// client instead of blocking the broadcast.
	hub.PublishToRoom(1, "newBid", nil)
	hub.PublishToRoom(1, "newBid", nil)

	hub.mu.RLock()
	_, stillThere := hub.users[slow.UserID]
	hub.mu.RUnlock()
	assert.False(t, stillThere)
}

func TestUnregisterRemovesFromRooms(t *testing.T) {
	hub := newTestHub(allowAll)

	client := newTestClient(hub, 20, 8)
	register(t, hub, client)
	require.True(t, hub.JoinRoom(client, 1))

	hub.Unregister <- client
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.users[client.UserID]) == 0 && len(hub.rooms[1]) == 0
	}, time.Second, 5*time.Millisecond)

	// Send channel is closed so the write pump shuts down.
	_, open := <-client.Send
	assert.False(t, open)
}
