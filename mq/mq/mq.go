package mq

import (
	"context"

	"github.com/google/uuid"
)

// Publisher delivers ledger change notifications.
type Publisher interface {
	Publish(ctx context.Context, msg LedgerMessage) error
	Close() error
}

// Nop drops every message.
type Nop struct{}

func (Nop) Publish(context.Context, LedgerMessage) error { return nil }

func (Nop) Close() error { return nil }

// Subscriber is any service that can be subscribed to and unsubscribed from.
// M is the message type it delivers.
type Subscriber[M any] interface {
	Subscribe() (uuid.UUID, <-chan M, error)
	DeSubscribe(id uuid.UUID) error
}
