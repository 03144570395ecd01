package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/joeblew999/plat-gold/internal/logging"
)

// Publisher is the subset of *nats.Conn the bridge needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// ConnectNATS dials url with reconnect handling that logs state changes.
func ConnectNATS(url string, log logging.Logger) (*nats.Conn, error) {
	if log == nil {
		log = logging.Noop()
	}
	ctx := context.Background()
	nc, err := nats.Connect(url,
		nats.Name("plat-gold"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn(ctx, "nats disconnected", logging.Err(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info(ctx, "nats reconnected", logging.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return nc, nil
}

// NATSBridge forwards bus events to NATS as JSON on <prefix>.<resource>.
type NATSBridge struct {
	pub    Publisher
	prefix string
	bus    *EventBus
	log    logging.Logger
}

// NewNATSBridge creates a bridge; prefix defaults to "plat.gold".
func NewNATSBridge(pub Publisher, prefix string, bus *EventBus, log logging.Logger) *NATSBridge {
	if prefix == "" {
		prefix = "plat.gold"
	}
	if log == nil {
		log = logging.Noop()
	}
	return &NATSBridge{pub: pub, prefix: prefix, bus: bus, log: log}
}

// Subject returns the subject an event is published on.
func (b *NATSBridge) Subject(e Event) string {
	return b.prefix + "." + e.Resource
}

// Run forwards events until ctx is done or the bus closes.
func (b *NATSBridge) Run(ctx context.Context) {
	ch := b.bus.Subscribe()
	defer b.bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if err := b.Forward(e); err != nil {
				b.log.Warn(ctx, "nats publish failed", logging.String("resource", e.Resource), logging.Err(err))
			}
		}
	}
}

// Forward publishes one event.
func (b *NATSBridge) Forward(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.pub.Publish(b.Subject(e), data)
}
