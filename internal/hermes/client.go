package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// StreamSubjects are retained by the events stream. Every subject published
// here falls under one of them.
var StreamSubjects = []string{"assay.criterion.>", "assay.scores.>"}

// StreamOptions shapes the JetStream stream that retains criterion and score
// events for consumers that were offline.
type StreamOptions struct {
	Name     string
	MaxAge   time.Duration
	Replicas int
	Storage  string // file or memory
}

func DefaultStreamOptions() StreamOptions {
	return StreamOptions{
		Name:     "ASSAY_EVENTS",
		MaxAge:   30 * 24 * time.Hour,
		Replicas: 1,
		Storage:  "file",
	}
}

func (o StreamOptions) streamConfig() jetstream.StreamConfig {
	storage := jetstream.FileStorage
	if o.Storage == "memory" {
		storage = jetstream.MemoryStorage
	}
	replicas := o.Replicas
	if replicas < 1 {
		replicas = 1
	}
	return jetstream.StreamConfig{
		Name:        o.Name,
		Description: "Assay criterion and score events",
		Subjects:    append([]string(nil), StreamSubjects...),
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      o.MaxAge,
		Storage:     storage,
		Replicas:    replicas,
	}
}

// Client publishes engine events. Publishing is best effort: callers log
// failures and carry on.
type Client interface {
	Publish(subject string, data interface{}) error
	Subscribe(subject string, handler func(subject string, data []byte)) error
	Close()
}

type NATSClient struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	subs   []*nats.Subscription
	logger *slog.Logger
}

// NewNATSClient connects and makes sure the events stream exists. A stream
// that cannot be created is logged; plain publish and subscribe still work.
func NewNATSClient(ctx context.Context, url string, stream StreamOptions, logger *slog.Logger) (*NATSClient, error) {
	nc, err := nats.Connect(url,
		nats.Name("assay"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("hermes disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("hermes reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	c := &NATSClient{conn: nc, js: js, logger: logger}
	if err := c.ensureStream(ctx, stream); err != nil {
		logger.Warn("failed to ensure stream", "stream", stream.Name, "error", err)
	}
	return c, nil
}

func (c *NATSClient) ensureStream(ctx context.Context, stream StreamOptions) error {
	s, err := c.js.CreateOrUpdateStream(ctx, stream.streamConfig())
	if err != nil {
		return err
	}
	c.logger.Debug("events stream ready", "stream", s.CachedInfo().Config.Name, "max_age", stream.MaxAge)
	return nil
}

func (c *NATSClient) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", subject, err)
	}
	return c.conn.Publish(subject, payload)
}

func (c *NATSClient) Subscribe(subject string, handler func(string, []byte)) error {
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	return nil
}

func (c *NATSClient) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
