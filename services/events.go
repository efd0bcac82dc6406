package services

import "sync"

type subscriber[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

// Broadcaster fans events out to every subscriber in publish order.
// Publish blocks until each subscriber has room, so subscribers must keep
// reading until they unsubscribe.
type Broadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[*subscriber[T]]struct{}
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{
		subscribers: make(map[*subscriber[T]]struct{}),
	}
}

// Subscribe returns the event channel and a function that unsubscribes and
// closes it.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	sub := &subscriber[T]{ch: make(chan T, 256), done: make(chan struct{})}
	b.mu.Lock()
	b.subscribers[sub] = struct{}{}
	b.mu.Unlock()

	return sub.ch, func() {
		sub.once.Do(func() { close(sub.done) })
		b.mu.Lock()
		if _, ok := b.subscribers[sub]; ok {
			delete(b.subscribers, sub)
			close(sub.ch)
		}
		b.mu.Unlock()
	}
}

func (b *Broadcaster[T]) Publish(event T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subscribers {
		select {
		case sub.ch <- event:
		case <-sub.done:
		}
	}
}

func (b *Broadcaster[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
