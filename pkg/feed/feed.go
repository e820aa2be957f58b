package feed

import (
	"context"
	"sync"
)

// Broker fans fresh snapshots out to subscribers, keyed by topic. It backs
// the reactive read model: writers publish the new state of a table after
// every committed mutation and the UI-facing streams re-deliver it.
//
// A slow subscriber never blocks a writer: each subscription holds a
// one-slot buffer and a stale snapshot is replaced by the newer one.
type Broker[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan T
}

// NewBroker constructs an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[string]map[int]chan T)}
}

// Subscribe registers a listener on the topic. The returned channel is
// closed when ctx is cancelled; detaching never blocks writers.
func (b *Broker[T]) Subscribe(ctx context.Context, topic string) <-chan T {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := make(chan T, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan T)
	}
	b.subs[topic][id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		set, ok := b.subs[topic]
		if !ok {
			return
		}
		if _, ok := set[id]; !ok {
			return
		}
		delete(set, id)
		if len(set) == 0 {
			delete(b.subs, topic)
		}
		close(ch)
	}()

	return ch
}

// Publish delivers the snapshot to every subscriber of the topic,
// overwriting any undelivered previous snapshot (latest wins).
func (b *Broker[T]) Publish(topic string, snapshot T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// SubscriberCount reports the number of active subscriptions on a topic.
func (b *Broker[T]) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[topic])
}
