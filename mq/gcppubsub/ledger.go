package gcppubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fueltrack/mq/mq"
)

const (
	DefaultTopicID  = "fueltrack-ledger"
	actionAttribute = "action"
)

type subscriptionInfo struct {
	gcpSubscription *pubsub.Subscription
	cancel          context.CancelFunc
}

// PubSubLedgerMessageQueue publishes ledger messages to one topic with the
// action as an attribute. Every subscriber gets a temporary GCP subscription
// that is deleted when it stops.
type PubSubLedgerMessageQueue struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	ctx    context.Context

	activeSubscriptions map[uuid.UUID]*subscriptionInfo
	subscriptionsMutex  sync.Mutex
}

// NewPubSubLedgerMessageQueue ensures topicID exists, creating it if
// necessary.
func NewPubSubLedgerMessageQueue(ctx context.Context, client *pubsub.Client, topicID string) (*PubSubLedgerMessageQueue, error) {
	if client == nil {
		return nil, errors.New("GCP Pub/Sub client is nil")
	}
	if topicID == "" {
		topicID = DefaultTopicID
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existence of topic %s: %w", topicID, err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to create topic %s: %w", topicID, err)
		}
		log.Info().Str("topic", topicID).Msg("created Pub/Sub topic")
	}

	return &PubSubLedgerMessageQueue{
		client:              client,
		topic:               topic,
		ctx:                 ctx,
		activeSubscriptions: make(map[uuid.UUID]*subscriptionInfo),
	}, nil
}

// Publish waits for the server acknowledgement.
func (s *PubSubLedgerMessageQueue) Publish(ctx context.Context, msg mq.LedgerMessage) error {
	body, err := mq.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	result := s.topic.Publish(ctx, &pubsub.Message{
		Data: body,
		Attributes: map[string]string{
			actionAttribute: msg.Action.String(),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", s.topic.ID(), err)
	}
	return nil
}

func (s *PubSubLedgerMessageQueue) Subscribe() (uuid.UUID, <-chan mq.LedgerMessage, error) {
	subscriptionID := uuid.New()
	gcpSubName := fmt.Sprintf("sub-ledger-%s", subscriptionID.String())

	gcpSub, err := s.client.CreateSubscription(s.ctx, gcpSubName, pubsub.SubscriptionConfig{
		Topic:            s.topic,
		ExpirationPolicy: 24 * time.Hour,
		AckDeadline:      10 * time.Second,
	})
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to create GCP subscription %s: %w", gcpSubName, err)
	}

	msgChan := make(chan mq.LedgerMessage, 5)
	receiveCtx, cancel := context.WithCancel(s.ctx)

	s.subscriptionsMutex.Lock()
	s.activeSubscriptions[subscriptionID] = &subscriptionInfo{gcpSubscription: gcpSub, cancel: cancel}
	s.subscriptionsMutex.Unlock()

	go func() {
		defer func() {
			s.subscriptionsMutex.Lock()
			delete(s.activeSubscriptions, subscriptionID)
			s.subscriptionsMutex.Unlock()

			if err := gcpSub.Delete(context.Background()); err != nil {
				log.Warn().Err(err).Str("subscription", gcpSub.ID()).Msg("failed to delete GCP subscription")
			}
			close(msgChan)
		}()

		err := gcpSub.Receive(receiveCtx, func(ctx context.Context, m *pubsub.Message) {
			m.Ack()
			msg, err := mq.Decode(m.Data)
			if err != nil {
				log.Warn().Err(err).Str("subscription", gcpSub.ID()).Msg("failed to unmarshal ledger message")
				return
			}
			select {
			case msgChan <- msg:
			case <-time.After(2 * time.Second):
				log.Warn().Str("subscription", gcpSub.ID()).Msg("timeout sending ledger message, skipping")
			case <-receiveCtx.Done():
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("subscription", gcpSub.ID()).Msg("receive loop stopped")
		}
	}()

	return subscriptionID, msgChan, nil
}

// DeSubscribe stops the receiver. The GCP subscription is removed by the
// receiver goroutine on its way out.
func (s *PubSubLedgerMessageQueue) DeSubscribe(id uuid.UUID) error {
	s.subscriptionsMutex.Lock()
	info, ok := s.activeSubscriptions[id]
	s.subscriptionsMutex.Unlock()
	if !ok {
		return fmt.Errorf("subscription ID %s not found", id)
	}
	info.cancel()
	return nil
}

// Close stops every receiver and flushes pending publishes. The client
// belongs to the caller.
func (s *PubSubLedgerMessageQueue) Close() error {
	s.subscriptionsMutex.Lock()
	for _, info := range s.activeSubscriptions {
		info.cancel()
	}
	s.subscriptionsMutex.Unlock()
	s.topic.Stop()
	return nil
}

var (
	_ mq.Publisher                     = (*PubSubLedgerMessageQueue)(nil)
	_ mq.Subscriber[mq.LedgerMessage] = (*PubSubLedgerMessageQueue)(nil)
)
