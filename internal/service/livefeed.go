package service

import (
	"encoding/json"
	"sync"
	"time"
)

// FeedEventType names a live feed event
type FeedEventType string

const (
	FeedPaymentUpdated    FeedEventType = "payment.updated"
	FeedTicketUpdated     FeedEventType = "ticket.updated"
	FeedMembershipUpdated FeedEventType = "membership.updated"
	FeedSignupUpdated     FeedEventType = "signup.updated"
	FeedHeartbeat         FeedEventType = "heartbeat"
)

// FeedEvent is one server-sent event
type FeedEvent struct {
	Type   FeedEventType `json:"type"`
	Data   interface{}   `json:"data"`
	UserID string        `json:"-"` // routing only
}

// Format returns the SSE wire form
func (e *FeedEvent) Format() string {
	data, _ := json.Marshal(e.Data)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}

// Subscriber is a connected SSE client
type Subscriber struct {
	ID     string
	UserID string // empty for admin subscribers
	Events chan *FeedEvent
	Done   chan struct{}
}

// LiveFeed fans payment and ticket updates out to SSE subscribers. Each user
// sees their own events; admin subscribers see every event.
type LiveFeed struct {
	mu        sync.RWMutex
	users     map[string]map[string]*Subscriber // userID -> subscriberID -> subscriber
	admins    map[string]*Subscriber
	heartbeat *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// NewLiveFeed creates a feed that sends a heartbeat every interval (30s when zero)
func NewLiveFeed(interval time.Duration) *LiveFeed {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	f := &LiveFeed{
		users:     make(map[string]map[string]*Subscriber),
		admins:    make(map[string]*Subscriber),
		heartbeat: time.NewTicker(interval),
		done:      make(chan struct{}),
	}
	go f.sendHeartbeats()
	return f
}

func newSubscriber(id, userID string) *Subscriber {
	return &Subscriber{
		ID:     id,
		UserID: userID,
		Events: make(chan *FeedEvent, 64),
		Done:   make(chan struct{}),
	}
}

// SubscribeUser registers a stream for one user's events
func (f *LiveFeed) SubscribeUser(userID, subscriberID string) *Subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := newSubscriber(subscriberID, userID)
	if f.users[userID] == nil {
		f.users[userID] = make(map[string]*Subscriber)
	}
	f.users[userID][subscriberID] = sub
	return sub
}

// SubscribeAdmin registers a stream for every event
func (f *LiveFeed) SubscribeAdmin(subscriberID string) *Subscriber {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := newSubscriber(subscriberID, "")
	f.admins[subscriberID] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channels
func (f *LiveFeed) Unsubscribe(sub *Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sub.UserID == "" {
		if _, ok := f.admins[sub.ID]; ok {
			delete(f.admins, sub.ID)
			closeSubscriber(sub)
		}
		return
	}

	userSubs, ok := f.users[sub.UserID]
	if !ok {
		return
	}
	if _, ok := userSubs[sub.ID]; ok {
		delete(userSubs, sub.ID)
		closeSubscriber(sub)
	}
	if len(userSubs) == 0 {
		delete(f.users, sub.UserID)
	}
}

// Publish delivers an event to its user and to every admin. Slow
// subscribers whose buffer is full miss the event.
func (f *LiveFeed) Publish(event *FeedEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if event.UserID != "" {
		for _, sub := range f.users[event.UserID] {
			trySend(sub, event)
		}
	}
	for _, sub := range f.admins {
		trySend(sub, event)
	}
}

// SubscriberCount returns the number of connected streams
func (f *LiveFeed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.admins)
	for _, subs := range f.users {
		n += len(subs)
	}
	return n
}

func (f *LiveFeed) sendHeartbeats() {
	for {
		select {
		case <-f.heartbeat.C:
			event := &FeedEvent{
				Type: FeedHeartbeat,
				Data: map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)},
			}
			f.mu.RLock()
			for _, subs := range f.users {
				for _, sub := range subs {
					trySend(sub, event)
				}
			}
			for _, sub := range f.admins {
				trySend(sub, event)
			}
			f.mu.RUnlock()
		case <-f.done:
			return
		}
	}
}

// Close stops the heartbeat and disconnects every subscriber
func (f *LiveFeed) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
		f.heartbeat.Stop()

		f.mu.Lock()
		defer f.mu.Unlock()
		for userID, subs := range f.users {
			for _, sub := range subs {
				closeSubscriber(sub)
			}
			delete(f.users, userID)
		}
		for id, sub := range f.admins {
			closeSubscriber(sub)
			delete(f.admins, id)
		}
	})
}

func trySend(sub *Subscriber, event *FeedEvent) {
	select {
	case sub.Events <- event:
	default:
	}
}

func closeSubscriber(sub *Subscriber) {
	close(sub.Done)
	close(sub.Events)
}
