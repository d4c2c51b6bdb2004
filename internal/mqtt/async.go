package mqtt

import (
	"errors"
	"log"
	"sync"
)

// ErrQueueFull is returned when the async queue cannot take another message.
var ErrQueueFull = errors.New("mqtt: publish queue full")

// ErrClosed is returned for publishes after Close.
var ErrClosed = errors.New("mqtt: publisher closed")

// Async wraps a Publisher and publishes from a background goroutine, so
// callers on the control loop never wait on the broker.
type Async struct {
	pub   Publisher
	queue chan func(Publisher) error
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewAsync starts the background publisher with room for depth messages.
func NewAsync(pub Publisher, depth int) *Async {
	if depth < 1 {
		depth = 1
	}
	a := &Async{
		pub:   pub,
		queue: make(chan func(Publisher) error, depth),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for fn := range a.queue {
		if err := fn(a.pub); err != nil {
			log.Printf("mqtt: publish failed: %v", err)
		}
	}
}

// Publish queues a transition.
func (a *Async) Publish(t Transition) error {
	return a.enqueue(func(p Publisher) error { return p.Publish(t) })
}

// PublishSystem queues a system event.
func (a *Async) PublishSystem(event SystemEvent) error {
	return a.enqueue(func(p Publisher) error { return p.PublishSystem(event) })
}

func (a *Async) enqueue(fn func(Publisher) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

// IsConnected reports the wrapped publisher's connection state, or false if
// it does not track one.
func (a *Async) IsConnected() bool {
	if cs, ok := a.pub.(ConnectionStatus); ok {
		return cs.IsConnected()
	}
	return false
}

// Close publishes everything already queued, then closes the wrapped
// publisher.
func (a *Async) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.pub.Close()
}
