// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package traffic

import (
	"fmt"
	"math/rand/v2"
)

// SynthesizeURL produces one synthetic URL. With probability
// maliciousBias it follows the phishing template, otherwise the benign
// one; both carry a random three-digit suffix so consecutive URLs differ.
func SynthesizeURL(maliciousBias float64) string {
	n := 100 + rand.IntN(900)
	if rand.Float64() < maliciousBias {
		return fmt.Sprintf("http://secure-bank-login-%d.com", n)
	}
	return fmt.Sprintf("https://google.com/search?q=%d", n)
}
