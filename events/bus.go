package events

import (
	"fmt"
	"sync"
)

// Event type labels used on the wire (SSE event names, websocket frames).
const (
	TypeNewOrder    = "NEW_ORDER"
	TypeOrderUpdate = "ORDER_UPDATE"
)

// NewOrderKey is fired once per durably created order, keyed by the
// target store.
func NewOrderKey(storeID uint) string {
	return fmt.Sprintf("newOrder-%d", storeID)
}

// StoreUpdateKey carries every status transition of a store's orders.
func StoreUpdateKey(storeID uint) string {
	return fmt.Sprintf("orderUpdate-%d", storeID)
}

// OrderUpdateKey carries status transitions of one order. Subscribers
// filter on OrderID, so an id collision with a store key is harmless.
func OrderUpdateKey(orderID uint) string {
	return fmt.Sprintf("orderUpdate-%d", orderID)
}

// StatusUpdate is the payload published on both update keys.
type StatusUpdate struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// subscriptionBuffer bounds how far a slow consumer may lag before
// events are dropped. Delivery is at-most-once, best-effort, no replay.
const subscriptionBuffer = 16

// Subscription is one listener registration on a single key. The
// subscriber owns the handle and must Close it when its connection
// ends; leaked handles accumulate in the registry forever.
type Subscription struct {
	key string
	bus *Bus
	C   chan interface{}
}

// Close deregisters the subscription and closes its channel. Safe to
// call more than once.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

// Bus is the in-process publish/subscribe registry for order lifecycle
// events. All operations are safe under concurrent register,
// deregister and publish.
type Bus struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]bool
}

func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]map[*Subscription]bool),
	}
}

// Subscribe registers interest in a key. Only events published after
// the call are delivered.
func (b *Bus) Subscribe(key string) *Subscription {
	sub := &Subscription{
		key: key,
		bus: b,
		C:   make(chan interface{}, subscriptionBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[key] == nil {
		b.subs[key] = make(map[*Subscription]bool)
	}
	b.subs[key][sub] = true
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[sub.key]
	if !ok {
		return
	}
	if _, registered := set[sub]; !registered {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.key)
	}
	close(sub.C)
}

// Publish delivers payload to every current subscriber of key. The
// send never blocks: a subscriber whose buffer is full misses the
// event.
func (b *Bus) Publish(key string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[key] {
		select {
		case sub.C <- payload:
		default:
		}
	}
}

// SubscriberCount reports the number of live registrations for a key.
func (b *Bus) SubscriberCount(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[key])
}
