// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/phishstream/internal/metrics"
)

// Full-queue policies. Block applies backpressure to producers; Drop
// rejects new events with ErrFull.
const (
	PolicyBlock = "block"
	PolicyDrop  = "drop"
)

// maxBatch caps a single DequeueBatch drain so a saturated producer
// cannot starve the consumer's poll loop.
const maxBatch = 256

// DefaultBuffer is the queue size used when Capacity is unbounded.
const DefaultBuffer = 4096

// Config holds stream channel settings. Capacity and FullPolicy make the
// backpressure behavior an explicit deployment decision instead of an
// implicit unbounded queue.
type Config struct {
	// Topic is the synthetic topic name. Default: phishing-traffic.
	Topic string

	// Partition is the synthetic partition identifier. Default: 0.
	Partition int

	// Capacity bounds unconsumed events. <= 0 falls back to
	// DefaultBuffer ("practically unbounded" for the demo workload).
	Capacity int

	// FullPolicy is PolicyBlock or PolicyDrop. Default: PolicyBlock.
	FullPolicy string
}

// DefaultConfig returns the reference channel settings.
func DefaultConfig() Config {
	return Config{
		Topic:      "phishing-traffic",
		Partition:  0,
		Capacity:   1024,
		FullPolicy: PolicyBlock,
	}
}

// Producer is the enqueue side of the channel, as seen by the scoring
// service.
type Producer interface {
	Enqueue(ctx context.Context, p Prediction) (*Event, error)
}

// Consumer is the drain side of the channel, owned by exactly one task.
type Consumer interface {
	// Subscribe attaches the single consumer. Fails with ErrNotReady
	// until the channel is opened.
	Subscribe(ctx context.Context) error

	// DequeueBatch returns the events available within maxWait, possibly
	// none. Events are delivered FIFO.
	DequeueBatch(ctx context.Context, maxWait time.Duration) ([]Event, error)
}

// Channel is the in-process stream channel. Any number of producers may
// enqueue concurrently; exactly one consumer drains it. Offsets are
// assigned in enqueue order and strictly increasing; events already
// enqueued are retained until consumed or the channel closes.
//
// The queue is a plain buffered Go channel rather than a Watermill
// gochannel Pub/Sub: gochannel delivers each message on its own goroutine
// and only guarantees cross-message ordering when publishers block until
// subscriber ack, which would couple the scoring path to the consumer's
// poll cadence. Watermill still backs the real-broker variant (-tags
// nats), mirroring how the upstream stack pairs Watermill with NATS.
type Channel struct {
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics.Metrics

	offset atomic.Uint64

	// enqMu serializes offset assignment with the queue send so a
	// sequential producer observes FIFO delivery matching its offsets.
	enqMu sync.Mutex

	stateMu    sync.Mutex
	events     chan Event
	closing    chan struct{}
	open       bool
	subscribed bool
	closed     bool
}

// NewChannel creates an unopened channel. Open must be called before
// producers or the consumer can use it; until then Enqueue and Subscribe
// return ErrNotReady.
func NewChannel(cfg Config, logger zerolog.Logger, m *metrics.Metrics) *Channel {
	if cfg.Topic == "" {
		cfg.Topic = "phishing-traffic"
	}
	if cfg.FullPolicy == "" {
		cfg.FullPolicy = PolicyBlock
	}
	return &Channel{
		cfg:     cfg,
		logger:  logger.With().Str("component", "stream").Str("topic", cfg.Topic).Logger(),
		metrics: m,
		closing: make(chan struct{}),
	}
}

// Open allocates the queue and marks the channel available. Opening
// stands in for broker connection establishment; the drift monitor
// retries Subscribe until it succeeds.
func (c *Channel) Open() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.open {
		return nil
	}

	capacity := c.cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultBuffer
	}
	c.events = make(chan Event, capacity)
	c.open = true

	c.logger.Info().
		Int("partition", c.cfg.Partition).
		Int("capacity", c.cfg.Capacity).
		Str("full_policy", c.cfg.FullPolicy).
		Msg("Stream channel open")
	return nil
}

// Enqueue assigns the next offset, wraps the prediction in an Event, and
// queues it. Under PolicyDrop a full channel returns ErrFull; under
// PolicyBlock the send blocks until the consumer makes room, the context
// is canceled, or the channel closes.
func (c *Channel) Enqueue(ctx context.Context, p Prediction) (*Event, error) {
	c.stateMu.Lock()
	open, closed, events := c.open, c.closed, c.events
	c.stateMu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if !open {
		return nil, ErrNotReady
	}

	c.enqMu.Lock()
	defer c.enqMu.Unlock()

	if c.cfg.FullPolicy == PolicyDrop && len(events) == cap(events) {
		return nil, ErrFull
	}

	ev := Event{
		ID:         uuid.New().String(),
		Topic:      c.cfg.Topic,
		Partition:  c.cfg.Partition,
		Offset:     c.offset.Add(1),
		Prediction: p,
		ScoredAt:   time.Now().UTC(),
	}

	select {
	case events <- ev:
	case <-c.closing:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if c.metrics != nil {
		c.metrics.StreamEnqueued.Inc()
		c.metrics.StreamDepth.Set(float64(len(events)))
	}

	c.logger.Debug().
		Uint64("offset", ev.Offset).
		Str("label", p.Label).
		Msg("Event sent to stream")
	return &ev, nil
}

// Subscribe attaches the single consumer. The subscription lives until
// the channel is closed.
func (c *Channel) Subscribe(_ context.Context) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.open {
		return ErrNotReady
	}
	if c.subscribed {
		return ErrAlreadySubscribed
	}
	c.subscribed = true
	return nil
}

// DequeueBatch drains events available within maxWait. It returns early
// once maxBatch events are collected; an empty slice with a nil error
// means nothing arrived in time. A closed channel returns the events
// drained so far along with ErrSubscriptionLost.
func (c *Channel) DequeueBatch(ctx context.Context, maxWait time.Duration) ([]Event, error) {
	c.stateMu.Lock()
	subscribed, events := c.subscribed, c.events
	c.stateMu.Unlock()

	if !subscribed {
		return nil, ErrNotSubscribed
	}

	timer := time.NewTimer(maxWait)
	defer timer.Stop()

	var batch []Event
	for len(batch) < maxBatch {
		select {
		case ev := <-events:
			batch = append(batch, ev)
			if c.metrics != nil {
				c.metrics.StreamDepth.Set(float64(len(events)))
			}

		case <-timer.C:
			return batch, nil

		case <-c.closing:
			// Drain whatever is already buffered, then report the loss.
			for {
				select {
				case ev := <-events:
					batch = append(batch, ev)
				default:
					return batch, ErrSubscriptionLost
				}
			}

		case <-ctx.Done():
			return batch, ctx.Err()
		}
	}
	return batch, nil
}

// Depth returns the number of enqueued-but-unconsumed events.
func (c *Channel) Depth() int64 {
	c.stateMu.Lock()
	events := c.events
	c.stateMu.Unlock()
	if events == nil {
		return 0
	}
	return int64(len(events))
}

// Close shuts down the channel. Unconsumed events are discarded; the
// process makes no flush-on-shutdown guarantee.
func (c *Channel) Close() error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closing)
	return nil
}
