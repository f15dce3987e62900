package bridge

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/deskaudio/pulse"
)

// DefaultSubjectPrefix is the subject prefix events are published under.
const DefaultSubjectPrefix = "pulse.events"

// NATSOptions configures the connection of a NATS event publisher.
type NATSOptions struct {
	URL           string
	Name          string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// Conn is the part of *nats.Conn a Publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher publishes subscription events on NATS, one message per event
// on <prefix>.<facility>.<type>.
type Publisher struct {
	conn   Conn
	prefix string
	log    *slog.Logger
}

// DialNATS connects to a NATS server and returns a publisher using the
// connection.
func DialNATS(opts NATSOptions, log *slog.Logger) (*Publisher, error) {
	if opts.MaxReconnects == 0 {
		opts.MaxReconnects = -1
	}
	if opts.ReconnectWait == 0 {
		opts.ReconnectWait = 2 * time.Second
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	nc, err := nats.Connect(opts.URL,
		nats.Name(opts.Name),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.Timeout(opts.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("bridge: nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("bridge: nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error("bridge: nats error", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("bridge: connect to nats at %s: %w", opts.URL, err)
	}
	return NewPublisher(nc, opts.SubjectPrefix, log), nil
}

func NewPublisher(conn Conn, prefix string, log *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix, log: log}
}

// Subject returns the subject ev is published on.
func (p *Publisher) Subject(ev pulse.Event) string {
	return p.prefix + "." + ev.Facility + "." + ev.Type
}

// Publish sends ev. It has the signature of an event observer.
func (p *Publisher) Publish(ev pulse.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("bridge: encode event", "error", err)
		return
	}
	if err := p.conn.Publish(p.Subject(ev), data); err != nil {
		p.log.Warn("bridge: publish event", "subject", p.Subject(ev), "error", err)
	}
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
