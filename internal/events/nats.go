package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// NATSPublisher publishes events on a NATS connection
type NATSPublisher struct {
	nc    *nats.Conn
	owned bool
}

// Connect dials url and returns a publisher that owns the connection
func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("circuit-lab"))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return &NATSPublisher{nc: nc, owned: true}, nil
}

// NewNATSPublisher wraps an existing connection. Close leaves it open.
func NewNATSPublisher(nc *nats.Conn) *NATSPublisher {
	return &NATSPublisher{nc: nc}
}

// Publish serialises ev as JSON and publishes it on the circuit's subject.
// Trace context from ctx is injected into the message headers.
func (p *NATSPublisher) Publish(ctx context.Context, ev SemanticsChanged) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	msg := &nats.Msg{
		Subject: Subject(ev.CircuitID),
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	return nil
}

// Close drains the connection if the publisher opened it
func (p *NATSPublisher) Close() {
	if p.owned {
		_ = p.nc.Drain()
	}
}

// Subscribe registers handler for events on subject. Trace context is
// extracted from the headers and malformed messages are dropped.
func Subscribe(nc *nats.Conn, subject string, handler func(context.Context, SemanticsChanged)) (*nats.Subscription, error) {
	return nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev SemanticsChanged
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
		handler(ctx, ev)
	})
}
