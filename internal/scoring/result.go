// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package scoring turns raw URLs into classified predictions. It chains
// feature extraction, forest inference, and a keyword overlay, then fans
// the result out to metrics, the stream channel, and the live feed.
package scoring

import "strings"

// Prediction labels. A URL is labeled phishing iff its adjusted
// probability is strictly greater than 0.5.
const (
	LabelBenign   = "benign"
	LabelPhishing = "phishing"
)

// Result is the outcome of scoring one URL.
type Result struct {
	// URL is the normalized URL that was actually scored.
	URL string `json:"url"`

	// Probability is the adjusted phishing probability in [0, 1].
	Probability float64 `json:"probability"`

	// Label is LabelBenign or LabelPhishing.
	Label string `json:"prediction"`

	// Source identifies the caller: "user" or "automated_traffic".
	Source string `json:"source"`
}

// NormalizeURL trims surrounding whitespace and prepends "http://" when
// the input does not already start with "http". The prefix check is
// deliberately loose ("httpsite.com" is left alone) to keep feature
// vectors identical for inputs the deployed scorer has already seen.
// Scoring never rejects input, so this is the only URL preprocessing
// performed.
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if !strings.HasPrefix(u, "http") {
		u = "http://" + u
	}
	return u
}
