package goch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fueltrack/mq/mq"
)

type QueueError string

func (e QueueError) Error() string {
	return string(e)
}

const (
	ErrQueueFull   QueueError = "message queue is full"
	ErrQueueClosed QueueError = "message queue is closed"
)

// fanOutQueueCore copies every published item to all current subscribers.
// A subscriber that cannot take an item immediately is dropped and its
// channel closed, so one slow reader never stalls the publisher.
type fanOutQueueCore[M any] struct {
	publishChan chan M
	subscribers map[uuid.UUID]chan M
	bufferSize  int
	quit        chan struct{}
	done        chan struct{}
	closed      bool

	mu sync.RWMutex
}

func newFanOutQueueCore[M any](bufferSize int) *fanOutQueueCore[M] {
	if bufferSize < 0 {
		bufferSize = 0
	}
	core := &fanOutQueueCore[M]{
		publishChan: make(chan M, bufferSize),
		subscribers: make(map[uuid.UUID]chan M),
		bufferSize:  bufferSize,
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go core.fanOutRoutine()
	return core
}

func (c *fanOutQueueCore[M]) fanOutRoutine() {
	defer close(c.done)
	for {
		select {
		case item := <-c.publishChan:
			c.deliver(item)
		case <-c.quit:
			return
		}
	}
}

func (c *fanOutQueueCore[M]) deliver(item M) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subscribers {
		select {
		case ch <- item:
		default:
			close(ch)
			delete(c.subscribers, id)
		}
	}
}

// Publish hands item to the fan-out routine without blocking.
func (c *fanOutQueueCore[M]) Publish(item M) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrQueueClosed
	}
	select {
	case c.publishChan <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

func (c *fanOutQueueCore[M]) Subscribe() (uuid.UUID, <-chan M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return uuid.Nil, nil, ErrQueueClosed
	}
	id := uuid.New()
	ch := make(chan M, c.bufferSize)
	c.subscribers[id] = ch
	return id, ch, nil
}

func (c *fanOutQueueCore[M]) DeSubscribe(id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.subscribers[id]
	if !ok {
		return fmt.Errorf("subscriber %s not found", id)
	}
	close(ch)
	delete(c.subscribers, id)
	return nil
}

// Stop ends the fan-out routine and closes every subscriber channel.
// Items still waiting in the publish buffer are dropped.
func (c *fanOutQueueCore[M]) Stop() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.quit)
	c.mu.Unlock()

	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subscribers {
		close(ch)
		delete(c.subscribers, id)
	}
}

// GoChanLedgerMessageQueue is the in-process mq.Publisher. It also feeds
// local listeners such as the websocket stream.
type GoChanLedgerMessageQueue struct {
	core *fanOutQueueCore[mq.LedgerMessage]
}

// NewGoChanLedgerMessageQueue creates a queue whose publish buffer and
// per-subscriber buffers hold bufferSize messages.
func NewGoChanLedgerMessageQueue(bufferSize int) *GoChanLedgerMessageQueue {
	return &GoChanLedgerMessageQueue{core: newFanOutQueueCore[mq.LedgerMessage](bufferSize)}
}

func (q *GoChanLedgerMessageQueue) Publish(_ context.Context, msg mq.LedgerMessage) error {
	return q.core.Publish(msg)
}

func (q *GoChanLedgerMessageQueue) Subscribe() (uuid.UUID, <-chan mq.LedgerMessage, error) {
	return q.core.Subscribe()
}

func (q *GoChanLedgerMessageQueue) DeSubscribe(id uuid.UUID) error {
	return q.core.DeSubscribe(id)
}

func (q *GoChanLedgerMessageQueue) Close() error {
	q.core.Stop()
	return nil
}

var (
	_ mq.Publisher                     = (*GoChanLedgerMessageQueue)(nil)
	_ mq.Subscriber[mq.LedgerMessage] = (*GoChanLedgerMessageQueue)(nil)
)
