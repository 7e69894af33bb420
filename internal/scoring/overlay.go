// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package scoring

import "strings"

// Keyword lists for the heuristic overlay. Matching is substring-based
// against the lower-cased URL.
var (
	maliciousSignals = []string{"bank", "secure", "login", "verify", "alert", "account"}
	trustedSignals   = []string{"google", "youtube", "amazon", "wikipedia", "github"}
)

// Adjust applies the heuristic overlay to a model probability. A
// malicious signal floors the probability at 0.85; a trusted signal then
// caps it at 0.15. The cap runs after the floor, so a URL matching both
// lists comes out trusted. The result is clamped to [0, 1].
//
// The ordering is a compatibility contract: downstream consumers assume
// trusted domains stay benign even when their paths carry words like
// "login" or "account".
func Adjust(rawURL string, p float64) float64 {
	lower := strings.ToLower(rawURL)

	for _, kw := range maliciousSignals {
		if strings.Contains(lower, kw) {
			if p < 0.85 {
				p = 0.85
			}
			break
		}
	}

	for _, kw := range trustedSignals {
		if strings.Contains(lower, kw) {
			if p > 0.15 {
				p = 0.15
			}
			break
		}
	}

	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
