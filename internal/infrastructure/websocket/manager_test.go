package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicfix/internal/domain/entity"
)

func TestPushMessageReachesEveryConnectionOfOwner(t *testing.T) {
	m := NewManager()
	a := &Client{UserID: "u1", Send: make(chan []byte, 1)}
	b := &Client{UserID: "u1", Send: make(chan []byte, 1)}
	other := &Client{UserID: "u2", Send: make(chan []byte, 1)}
	m.clients["u1"] = map[*Client]struct{}{a: {}, b: {}}
	m.clients["u2"] = map[*Client]struct{}{other: {}}

	m.PushMessage("u1", &entity.Message{ID: "m1", UserID: "u1", Type: entity.MessageTypeApproval})

	for _, c := range []*Client{a, b} {
		select {
		case payload := <-c.Send:
			var env Envelope
			require.NoError(t, json.Unmarshal(payload, &env))
			assert.Equal(t, EventTypeMessage, env.Type)
		default:
			t.Fatal("expected a frame")
		}
	}
	assert.Empty(t, other.Send)
}

func TestPushMessageDropsSlowClients(t *testing.T) {
	m := NewManager()
	slow := &Client{UserID: "u1", Send: make(chan []byte)}
	m.clients["u1"] = map[*Client]struct{}{slow: {}}

	m.PushMessage("u1", &entity.Message{ID: "m1"})

	assert.Equal(t, 0, m.Connected("u1"))
}

func TestAddAndDropWhileRunning(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	c := &Client{UserID: "u1", Send: make(chan []byte, 1)}
	require.True(t, m.Add(c))
	assert.Eventually(t, func() bool { return m.Connected("u1") == 1 }, time.Second, 5*time.Millisecond)

	m.Drop(c)
	assert.Eventually(t, func() bool { return m.Connected("u1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestDropAfterShutdownDoesNotBlock(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	c := &Client{UserID: "u1", Send: make(chan []byte, 1)}
	require.True(t, m.Add(c))

	cancel()
	select {
	case <-m.done:
	case <-time.After(time.Second):
		t.Fatal("manager did not stop")
	}

	returned := make(chan struct{})
	go func() {
		m.Drop(c)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Drop blocked after shutdown")
	}

	assert.False(t, m.Add(&Client{UserID: "u2", Send: make(chan []byte, 1)}))
	assert.Equal(t, 0, m.Connected("u1"))
}
