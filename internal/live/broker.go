package live

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event announces that rows of Table changed. The payload carries no row
// data; subscribers re-read whatever they are interested in.
type Event struct {
	Table string
}

// Publisher accepts change events.
type Publisher interface {
	Publish(Event)
}

// Subscription receives a signal whenever one of its tables changes.
// Signals coalesce: if the previous one has not been consumed yet, further
// changes are folded into it.
type Subscription struct {
	ID     uuid.UUID
	C      <-chan Event
	c      chan Event
	tables map[string]struct{}
	broker *Broker
	once   sync.Once
}

// Close detaches the subscription from its broker. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() { s.broker.remove(s.ID) })
}

func (s *Subscription) wants(table string) bool {
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[table]
	return ok
}

// Broker fans table change events out to subscribers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]*Subscription
	closed bool
	logger *zap.Logger
}

// NewBroker constructs an empty broker.
func NewBroker(logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		subs:   make(map[uuid.UUID]*Subscription),
		logger: logger.With(zap.String("component", "live")),
	}
}

// Subscribe registers interest in the given tables. No tables means all.
// A closed broker hands out subscriptions whose channel is already closed.
func (b *Broker) Subscribe(tables ...string) *Subscription {
	c := make(chan Event, 1)
	sub := &Subscription{
		ID:     uuid.New(),
		C:      c,
		c:      c,
		tables: make(map[string]struct{}, len(tables)),
		broker: b,
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(c)
		return sub
	}
	b.subs[sub.ID] = sub
	b.logger.Debug("subscription added", zap.String("id", sub.ID.String()), zap.Strings("tables", tables))
	return sub
}

// Publish signals every subscriber interested in ev.Table. It never blocks.
func (b *Broker) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if !sub.wants(ev.Table) {
			continue
		}
		select {
		case sub.c <- ev:
		default:
		}
	}
}

// Len reports the number of active subscriptions.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close detaches all subscribers and closes their channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.c)
		delete(b.subs, id)
	}
}

func (b *Broker) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	close(sub.c)
	b.logger.Debug("subscription removed", zap.String("id", id.String()))
}
