// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package stream

import "errors"

var (
	// ErrNotReady is returned by Enqueue and Subscribe before Open has
	// been called. It simulates broker unavailability and drives the
	// drift monitor's connect-retry loop.
	ErrNotReady = errors.New("stream: channel not ready")

	// ErrFull is returned by Enqueue under the drop policy when the
	// channel holds Capacity unconsumed events.
	ErrFull = errors.New("stream: channel full, event dropped")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("stream: channel closed")

	// ErrNotSubscribed is returned by DequeueBatch before Subscribe.
	ErrNotSubscribed = errors.New("stream: no active subscription")

	// ErrAlreadySubscribed is returned by a second Subscribe call; the
	// channel is single-consumer.
	ErrAlreadySubscribed = errors.New("stream: channel already has a consumer")

	// ErrSubscriptionLost is returned by DequeueBatch when the underlying
	// message channel closes. The consumer treats this as fatal rather
	// than silently reconnecting inside its poll loop.
	ErrSubscriptionLost = errors.New("stream: subscription lost")
)
