// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

//go:build nats

package stream

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/metrics"
)

// NATSConfig holds settings for the JetStream-backed channel.
type NATSConfig struct {
	// URL is the NATS server address. Ignored when Embedded is true.
	URL string

	// Embedded starts an in-process nats-server with JetStream, for
	// single-instance deployments without external dependencies.
	Embedded bool

	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string

	// DurableName is the consumer durable prefix.
	DurableName string

	// MaxReconnects and ReconnectWait tune client reconnection.
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the reference JetStream settings.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           "nats://127.0.0.1:4222",
		Embedded:      true,
		StoreDir:      "/data/nats/jetstream",
		DurableName:   "drift-monitor",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSChannel is the stream channel backed by NATS JetStream through
// Watermill. It keeps the same contract as the in-process Channel:
// ErrNotReady before Open, one consumer, offsets assigned at enqueue.
// JetStream provides its own retention and redelivery; the Capacity and
// FullPolicy settings do not apply here.
type NATSChannel struct {
	cfg      Config
	natsCfg  NATSConfig
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	wmLogger watermill.LoggerAdapter

	offset atomic.Uint64
	enqMu  sync.Mutex

	mu         sync.Mutex
	embedded   *server.Server
	publisher  message.Publisher
	subscriber message.Subscriber
	messages   <-chan *message.Message
	open       bool
	subscribed bool
	closed     bool
}

// NewNATSChannel creates an unopened JetStream-backed channel.
func NewNATSChannel(cfg Config, natsCfg NATSConfig, logger zerolog.Logger, m *metrics.Metrics, wmLogger watermill.LoggerAdapter) *NATSChannel {
	if cfg.Topic == "" {
		cfg.Topic = "phishing-traffic"
	}
	if wmLogger == nil {
		wmLogger = watermill.NopLogger{}
	}
	return &NATSChannel{
		cfg:      cfg,
		natsCfg:  natsCfg,
		logger:   logger.With().Str("component", "stream").Str("backend", "nats").Str("topic", cfg.Topic).Logger(),
		metrics:  m,
		wmLogger: wmLogger,
	}
}

// Open starts the embedded server when configured, then connects the
// Watermill publisher and subscriber.
func (c *NATSChannel) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.open {
		return nil
	}

	url := c.natsCfg.URL
	if c.natsCfg.Embedded {
		ns, err := startEmbeddedServer(c.natsCfg)
		if err != nil {
			return err
		}
		c.embedded = ns
		url = ns.ClientURL()
		c.logger.Info().Str("url", url).Msg("Embedded NATS server ready")
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(c.natsCfg.MaxReconnects),
		natsgo.ReconnectWait(c.natsCfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				c.logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			c.logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, c.wmLogger)
	if err != nil {
		return fmt.Errorf("create stream publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:            url,
		AckWaitTimeout: 30 * time.Second,
		NatsOptions:    natsOpts,
		Unmarshaler:    &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			DurablePrefix: c.natsCfg.DurableName,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.DeliverNew(),
			},
		},
	}, c.wmLogger)
	if err != nil {
		_ = pub.Close()
		return fmt.Errorf("create stream subscriber: %w", err)
	}

	c.publisher = pub
	c.subscriber = sub
	c.open = true

	c.logger.Info().Int("partition", c.cfg.Partition).Msg("Stream channel open")
	return nil
}

func startEmbeddedServer(cfg NATSConfig) (*server.Server, error) {
	opts := &server.Options{
		ServerName: "phishstream-events",
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		JetStream:  true,
		StoreDir:   cfg.StoreDir,
		NoLog:      true,
		MaxPayload: 1 << 20,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready within timeout")
	}
	return ns, nil
}

// Enqueue assigns the next offset and publishes the event to JetStream.
func (c *NATSChannel) Enqueue(ctx context.Context, p Prediction) (*Event, error) {
	c.mu.Lock()
	open, closed, publisher := c.open, c.closed, c.publisher
	c.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if !open {
		return nil, ErrNotReady
	}

	c.enqMu.Lock()
	defer c.enqMu.Unlock()

	ev := Event{
		ID:         uuid.New().String(),
		Topic:      c.cfg.Topic,
		Partition:  c.cfg.Partition,
		Offset:     c.offset.Add(1),
		Prediction: p,
		ScoredAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(&ev)
	if err != nil {
		return nil, fmt.Errorf("marshal stream event: %w", err)
	}

	msg := message.NewMessage(ev.ID, payload)
	msg.SetContext(ctx)
	if err := publisher.Publish(c.cfg.Topic, msg); err != nil {
		return nil, fmt.Errorf("publish stream event: %w", err)
	}

	if c.metrics != nil {
		c.metrics.StreamEnqueued.Inc()
	}
	return &ev, nil
}

// Subscribe attaches the single consumer.
func (c *NATSChannel) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.open {
		return ErrNotReady
	}
	if c.subscribed {
		return ErrAlreadySubscribed
	}

	messages, err := c.subscriber.Subscribe(ctx, c.cfg.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.cfg.Topic, err)
	}
	c.messages = messages
	c.subscribed = true
	return nil
}

// DequeueBatch drains events available within maxWait.
func (c *NATSChannel) DequeueBatch(ctx context.Context, maxWait time.Duration) ([]Event, error) {
	c.mu.Lock()
	messages := c.messages
	c.mu.Unlock()

	if messages == nil {
		return nil, ErrNotSubscribed
	}

	timer := time.NewTimer(maxWait)
	defer timer.Stop()

	var batch []Event
	for len(batch) < maxBatch {
		select {
		case msg, ok := <-messages:
			if !ok {
				return batch, ErrSubscriptionLost
			}
			msg.Ack()

			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				c.logger.Warn().Err(err).Str("message_id", msg.UUID).Msg("Undecodable stream event skipped")
				continue
			}
			batch = append(batch, ev)

		case <-timer.C:
			return batch, nil

		case <-ctx.Done():
			return batch, ctx.Err()
		}
	}
	return batch, nil
}

// Depth is not tracked for the JetStream backend; stream lag lives on
// the broker side.
func (c *NATSChannel) Depth() int64 {
	return 0
}

// Close shuts down the clients and the embedded server if one was started.
func (c *NATSChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var firstErr error
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			firstErr = err
		}
	}
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.embedded != nil {
		c.embedded.Shutdown()
		c.embedded.WaitForShutdown()
	}
	return firstErr
}
