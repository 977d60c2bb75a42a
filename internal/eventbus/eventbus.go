package eventbus

import (
	"runtime/debug"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Bus is a named-channel notification primitive. Delivery is synchronous,
// on the publishing goroutine, in subscription order. A panicking subscriber
// never prevents delivery to the remaining subscribers of the same publish.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscription
}

type subscription struct {
	id int
	fn func(payload any)
}

func New() *Bus {
	return &Bus{
		subs: make(map[string][]subscription),
	}
}

// Subscribe registers fn on the given channel and returns an unsubscribe
// closure. Calling the closure more than once is harmless.
func (b *Bus) Subscribe(channel string, fn func(payload any)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[channel] = append(b.subs[channel], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		current := b.subs[channel]
		for i, s := range current {
			if s.id == id {
				b.subs[channel] = append(current[:i:i], current[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers payload to every current subscriber of channel.
// Publishing to a channel with no subscribers is a no-op.
func (b *Bus) Publish(channel string, payload any) {
	b.mu.Lock()
	current := make([]subscription, len(b.subs[channel]))
	copy(current, b.subs[channel])
	b.mu.Unlock()

	for _, s := range current {
		deliver(channel, s, payload)
	}
}

// SubscriberCount returns the number of active subscribers on channel.
func (b *Bus) SubscriberCount(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[channel])
}

func deliver(channel string, s subscription, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("eventbus: subscriber panic on channel [%s]: %v\n%s", channel, r, debug.Stack())
		}
	}()
	s.fn(payload)
}
