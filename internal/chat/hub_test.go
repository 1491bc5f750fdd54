package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cleanserve/internal/logger"
)

func TestRelayReachesRoomCounterpart(t *testing.T) {
	hub := NewHub(logger.NewLogger())

	customer := hub.Register("cust1", "booking1")
	technician := hub.Register("tech1", "booking1")
	outsider := hub.Register("cust2", "booking2")

	hub.Relay(customer, []byte("hello"))

	select {
	case payload := <-technician.Send:
		assert.Equal(t, "hello", string(payload))
	default:
		t.Fatal("expected the counterpart to receive the message")
	}

	select {
	case <-customer.Send:
		t.Fatal("sender must not receive its own message")
	default:
	}

	select {
	case <-outsider.Send:
		t.Fatal("other rooms must not receive the message")
	default:
	}
}

func TestUnregisterClosesAndEmptiesRoom(t *testing.T) {
	hub := NewHub(logger.NewLogger())

	customer := hub.Register("cust1", "booking1")
	technician := hub.Register("tech1", "booking1")
	assert.Equal(t, 2, hub.RoomSize("booking1"))

	hub.Unregister(customer)
	assert.Equal(t, 1, hub.RoomSize("booking1"))

	_, open := <-customer.Send
	assert.False(t, open)

	hub.Unregister(technician)
	assert.Equal(t, 0, hub.RoomSize("booking1"))

	// Double unregister is a no-op.
	hub.Unregister(technician)
}

func TestRelayDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(logger.NewLogger())

	sender := hub.Register("cust1", "booking1")
	slow := hub.Register("tech1", "booking1")

	for i := 0; i < cap(slow.Send)+10; i++ {
		hub.Relay(sender, []byte("x"))
	}

	// The slow client keeps a full buffer and the hub never blocks.
	assert.Equal(t, cap(slow.Send), len(slow.Send))
}
