package rabbit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"fueltrack/mq/mq"
)

const (
	DefaultExchange = "ledger_events_exchange"
	bindingKey      = "ledger.#"
	publishTimeout  = 5 * time.Second
)

type consumer struct {
	channel *amqp.Channel
	out     chan mq.LedgerMessage
	tag     string
}

// RabbitLedgerMessageQueue publishes ledger messages to a topic exchange
// with routing key "ledger.<action>". Each subscriber gets its own exclusive
// queue bound to every ledger key.
type RabbitLedgerMessageQueue struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string

	mu        sync.Mutex // protects channel publishes and consumers
	consumers map[uuid.UUID]*consumer
}

func NewRabbitLedgerMessageQueue(conn *amqp.Connection, exchange string) (*RabbitLedgerMessageQueue, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := declareExchange(ch, exchange); err != nil {
		ch.Close()
		return nil, err
	}
	return &RabbitLedgerMessageQueue{
		conn:      conn,
		channel:   ch,
		exchange:  exchange,
		consumers: make(map[uuid.UUID]*consumer),
	}, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

func (q *RabbitLedgerMessageQueue) Publish(ctx context.Context, msg mq.LedgerMessage) error {
	body, err := mq.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	q.mu.Lock()
	defer q.mu.Unlock()
	err = q.channel.PublishWithContext(ctx,
		q.exchange,       // exchange
		msg.RoutingKey(), // routing key
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   msg.ID.String(),
			Timestamp:   msg.Time,
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe declares a server-named exclusive queue and relays its
// deliveries until DeSubscribe or Close.
func (q *RabbitLedgerMessageQueue) Subscribe() (uuid.UUID, <-chan mq.LedgerMessage, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	queue, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return uuid.Nil, nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, bindingKey, q.exchange, false, nil); err != nil {
		ch.Close()
		return uuid.Nil, nil, fmt.Errorf("failed to bind queue %s: %w", queue.Name, err)
	}

	id := uuid.New()
	tag := "ledger-" + id.String()
	deliveries, err := ch.Consume(
		queue.Name, // queue
		tag,        // consumer
		true,       // auto-ack
		true,       // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		ch.Close()
		return uuid.Nil, nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	c := &consumer{channel: ch, out: make(chan mq.LedgerMessage, 16), tag: tag}
	q.mu.Lock()
	q.consumers[id] = c
	q.mu.Unlock()

	go func() {
		// deliveries closes once the consumer channel is closed
		defer close(c.out)
		for d := range deliveries {
			msg, err := mq.Decode(d.Body)
			if err != nil {
				log.Warn().Err(err).Str("subscriber", id.String()).Msg("failed to unmarshal ledger message")
				continue
			}
			select {
			case c.out <- msg:
			case <-time.After(time.Second):
				log.Warn().Str("subscriber", id.String()).Msg("timeout sending ledger message, skipping")
			}
		}
	}()

	return id, c.out, nil
}

func (q *RabbitLedgerMessageQueue) DeSubscribe(id uuid.UUID) error {
	q.mu.Lock()
	c, ok := q.consumers[id]
	delete(q.consumers, id)
	q.mu.Unlock()
	if !ok {
		return fmt.Errorf("consumer with ID %s not found", id)
	}
	return c.channel.Close()
}

// Close closes every subscriber channel and the publishing channel. The
// connection belongs to the caller.
func (q *RabbitLedgerMessageQueue) Close() error {
	q.mu.Lock()
	consumers := q.consumers
	q.consumers = make(map[uuid.UUID]*consumer)
	q.mu.Unlock()

	for _, c := range consumers {
		c.channel.Close()
	}
	return q.channel.Close()
}

var (
	_ mq.Publisher                     = (*RabbitLedgerMessageQueue)(nil)
	_ mq.Subscriber[mq.LedgerMessage] = (*RabbitLedgerMessageQueue)(nil)
)
