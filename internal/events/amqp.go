package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

// ErrReconnecting is returned by Publish while the publisher waits before
// redialing a lost broker connection.
var ErrReconnecting = errors.New("AMQP connection lost, waiting to reconnect")

// AMQPPublisher publishes events to a durable topic exchange. The routing key
// is the configured prefix followed by the event type, e.g.
// "expense.events.expense.created".
//
// When the broker connection drops, the next Publish redials. Failed dials
// back off exponentially up to maxBackoff; events published in between fail
// with ErrReconnecting.
type AMQPPublisher struct {
	url        string
	exchange   string
	routingKey string

	dial func(url string) (*amqp091.Connection, error)
	now  func() time.Time

	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	failures int
	nextDial time.Time
}

func newAMQPPublisher(url, exchange, routingKey string, dial func(string) (*amqp091.Connection, error)) *AMQPPublisher {
	return &AMQPPublisher{
		url:        url,
		exchange:   exchange,
		routingKey: routingKey,
		dial:       dial,
		now:        time.Now,
	}
}

// NewAMQPPublisher dials url and declares exchange. An unreachable broker at
// startup is an error.
func NewAMQPPublisher(url, exchange, routingKey string) (*AMQPPublisher, error) {
	p := newAMQPPublisher(url, exchange, routingKey, amqp091.Dial)
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

// connectLocked dials the broker, opens a channel and declares the exchange.
// p.mu must be held.
func (p *AMQPPublisher) connectLocked() error {
	conn, err := p.dial(p.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp091.Error, 1))
	go func() {
		// nil on a clean Close, set when the broker or network drops us
		if err, ok := <-closed; ok && err != nil {
			slog.Warn("AMQP connection lost", "error", err, "exchange", p.exchange)
		}
	}()

	p.conn = conn
	p.channel = channel
	return nil
}

// openChannel returns a usable channel, redialing if the connection was lost.
func (p *AMQPPublisher) openChannel() (*amqp091.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	now := p.now()
	if now.Before(p.nextDial) {
		return nil, fmt.Errorf("%w: retry in %s", ErrReconnecting, p.nextDial.Sub(now).Round(time.Millisecond))
	}

	p.closeLocked()
	if err := p.connectLocked(); err != nil {
		p.nextDial = now.Add(exponentialBackoff(p.failures))
		p.failures++
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	if p.failures > 0 {
		slog.Info("AMQP connection restored", "attempts", p.failures+1, "exchange", p.exchange)
	}
	p.failures = 0
	p.nextDial = time.Time{}
	return p.channel, nil
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// RoutingKey returns the key an event of type t is published with.
func RoutingKey(prefix string, t Type) string {
	if prefix == "" {
		return string(t)
	}
	return prefix + "." + string(t)
}

// Publish implements Publisher.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	channel, err := p.openChannel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	key := RoutingKey(p.routingKey, event.Type)
	err = channel.PublishWithContext(
		ctx,
		p.exchange, // exchange
		key,        // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    event.OccurredAt,
			MessageId:    event.ExpenseID,
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	slog.DebugContext(ctx, "Published expense event",
		"type", event.Type,
		"expense_id", event.ExpenseID,
		"exchange", p.exchange,
		"routing_key", key,
	)
	return nil
}

func (p *AMQPPublisher) closeLocked() error {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		if err != nil && !errors.Is(err, amqp091.ErrClosed) {
			return err
		}
	}
	return nil
}

// Close implements Publisher.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}
