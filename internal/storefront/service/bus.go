package service

import (
	"log/slog"
	"sync"

	"github.com/cedarmarket/storefront/internal/storefront/obs"
)

// BlockEvent is the one-shot terminal signal delivered to a subscription
// when its user is blocked.
type BlockEvent struct {
	UserID string
}

// Subscription is one live status-stream registration. Its channel carries
// at most one BlockEvent and is closed afterwards; heartbeats are the
// stream handler's business, not the bus's.
type Subscription struct {
	userID string
	ch     chan BlockEvent
	once   sync.Once
}

// C is the receive side of the subscription. It yields at most one event
// and is closed when the subscription reaches a terminal state.
func (s *Subscription) C() <-chan BlockEvent { return s.ch }

// UserID returns the user id the subscription is registered under.
func (s *Subscription) UserID() string { return s.userID }

// deliver pushes the terminal event and closes the channel, exactly once.
// The buffer of one guarantees the send never blocks the bus.
func (s *Subscription) deliver(ev BlockEvent) {
	s.once.Do(func() {
		s.ch <- ev
		close(s.ch)
	})
}

// BlockBus is the process-wide registry of live status-stream subscriptions
// keyed by user id. All access to the registry goes through the mutex; the
// map itself is never handed out. The bus is best-effort and in-memory:
// scaling past one process means swapping this implementation for an
// external publish/subscribe channel behind the same three methods.
type BlockBus struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	logger *slog.Logger
}

func NewBlockBus(logger *slog.Logger) *BlockBus {
	return &BlockBus{
		subs:   make(map[string]map[*Subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers a new subscription under userID. Multiple concurrent
// subscriptions per user are fine (several open tabs).
func (b *BlockBus) Subscribe(userID string) *Subscription {
	sub := &Subscription{
		userID: userID,
		ch:     make(chan BlockEvent, 1),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bucket := b.subs[userID]
	if bucket == nil {
		bucket = make(map[*Subscription]struct{})
		b.subs[userID] = bucket
	}
	bucket[sub] = struct{}{}

	obs.SubscriptionOpened()
	return sub
}

// Unsubscribe removes the registration. Idempotent, and safe to race with
// NotifyBlocked for the same user: the mutex serializes them, so a
// subscription either sees the notification or was already gone, never a
// partial delivery.
func (b *BlockBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bucket := b.subs[sub.userID]
	if bucket == nil {
		return
	}
	if _, ok := bucket[sub]; !ok {
		return
	}
	delete(bucket, sub)
	if len(bucket) == 0 {
		delete(b.subs, sub.userID)
	}
	obs.SubscriptionClosed()
}

// NotifyBlocked delivers the terminal blocked event to every subscription
// currently registered under userID, then removes the whole bucket. The
// snapshot is taken and delivered under the lock: a Subscribe racing this
// call lands either before (and is notified) or after (and is not), never
// both. Each delivery is isolated; one misbehaving subscriber cannot starve
// the rest.
func (b *BlockBus) NotifyBlocked(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bucket := b.subs[userID]
	if len(bucket) == 0 {
		return
	}
	delete(b.subs, userID)

	ev := BlockEvent{UserID: userID}
	for sub := range bucket {
		b.deliverOne(sub, ev)
		obs.SubscriptionClosed()
	}
	obs.BlockNotified(len(bucket))
}

// deliverOne isolates a single delivery so a panicking subscriber is logged
// and skipped rather than taking down the fan-out.
func (b *BlockBus) deliverOne(sub *Subscription, ev BlockEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("block event delivery failed",
				"user_id", ev.UserID,
				"panic", r,
			)
		}
	}()
	sub.deliver(ev)
}

// SubscriberCount reports the number of live subscriptions for a user.
// Mostly for tests and readiness introspection.
func (b *BlockBus) SubscriberCount(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}
