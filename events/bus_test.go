package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(NewOrderKey(7))
	defer sub.Close()

	bus.Publish(NewOrderKey(7), "hello")

	select {
	case payload := <-sub.C:
		assert.Equal(t, "hello", payload)
	default:
		t.Fatal("expected a payload on the subscription channel")
	}
}

func TestPublishScopedByKey(t *testing.T) {
	bus := NewBus()
	mine := bus.Subscribe(StoreUpdateKey(1))
	defer mine.Close()
	other := bus.Subscribe(StoreUpdateKey(2))
	defer other.Close()

	bus.Publish(StoreUpdateKey(1), StatusUpdate{OrderID: 9, Status: "CONFIRMED"})

	select {
	case payload := <-mine.C:
		update, ok := payload.(StatusUpdate)
		assert.True(t, ok)
		assert.Equal(t, uint(9), update.OrderID)
	default:
		t.Fatal("subscriber on the published key should receive the event")
	}

	select {
	case <-other.C:
		t.Fatal("subscriber on another key must not receive the event")
	default:
	}
}

func TestLateSubscriberMissesEarlierEvents(t *testing.T) {
	bus := NewBus()
	bus.Publish(OrderUpdateKey(3), StatusUpdate{OrderID: 3, Status: "PREPARING"})

	sub := bus.Subscribe(OrderUpdateKey(3))
	defer sub.Close()

	select {
	case <-sub.C:
		t.Fatal("events published before subscribing must not be replayed")
	default:
	}
}

func TestCloseRemovesSubscriber(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(NewOrderKey(1))
	assert.Equal(t, 1, bus.SubscriberCount(NewOrderKey(1)))

	sub.Close()
	assert.Equal(t, 0, bus.SubscriberCount(NewOrderKey(1)))

	// Closing twice and publishing afterwards must both be harmless.
	sub.Close()
	bus.Publish(NewOrderKey(1), "ignored")
}

func TestPublishNeverBlocksOnFullBuffer(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(StoreUpdateKey(5))
	defer sub.Close()

	// Nobody drains the channel; overflow is dropped, not queued.
	for i := 0; i < subscriptionBuffer*2; i++ {
		bus.Publish(StoreUpdateKey(5), i)
	}

	received := 0
	for {
		select {
		case <-sub.C:
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, subscriptionBuffer, received)
}
