// Package rabbitmq publishes order events to a RabbitMQ topic exchange.
package rabbitmq

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xenking/office-lunch/internal/domain/order"
)

// Exchange is the durable topic exchange order events are published to.
// The routing key is the event type, e.g. "order.created".
const Exchange = "lunch.orders"

var _ order.Publisher = (*Publisher)(nil)

// Publisher implements order.Publisher with publisher confirms.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	// mu serializes publishes on the shared channel.
	mu sync.Mutex
}

// Dial connects to url, declares the exchange and enables confirms.
func Dial(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "dial amqp")
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}
	if err := ch.ExchangeDeclare(
		Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "declare exchange")
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "enable confirm mode")
	}
	return &Publisher{conn: conn, ch: ch}, nil
}

// Publish sends ev and waits for the broker to confirm it.
func (p *Publisher) Publish(ctx context.Context, ev order.Event) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.OrderID,
		Timestamp:    ev.At.UTC(),
		Type:         string(ev.Type),
		Body:         encodeEvent(ev),
	}

	p.mu.Lock()
	dc, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, Exchange, string(ev.Type), false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return errors.Wrap(err, "publish")
	}

	ok, err := dc.WaitContext(ctx)
	if err != nil {
		return errors.Wrap(err, "wait confirm")
	}
	if !ok {
		return errors.Errorf("broker nacked %s for order %s", ev.Type, ev.OrderID)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		_ = p.conn.Close()
		return errors.Wrap(err, "close channel")
	}
	return p.conn.Close()
}

// IsClosed reports whether the broker connection is gone.
func (p *Publisher) IsClosed() bool {
	return p.conn.IsClosed()
}

func encodeEvent(ev order.Event) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("type")
	e.Str(string(ev.Type))
	e.FieldStart("orderId")
	e.Str(ev.OrderID)
	if ev.EmployeeID != "" {
		e.FieldStart("employeeId")
		e.Str(ev.EmployeeID)
	}
	if ev.Status != "" {
		e.FieldStart("total")
		e.Num(jx.Num(ev.Total.StringFixed(2)))
		e.FieldStart("paymentStatus")
		e.Str(string(ev.Status))
	}
	e.FieldStart("at")
	e.Str(ev.At.UTC().Format(time.RFC3339Nano))
	e.ObjEnd()
	return e.Bytes()
}
