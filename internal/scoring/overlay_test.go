// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package scoring

import "testing"

func TestAdjust(t *testing.T) {
	tests := []struct {
		name string
		url  string
		in   float64
		want float64
	}{
		{"malicious signal floors at 0.85", "http://secure-payment.example.com", 0.3, 0.85},
		{"malicious signal keeps higher score", "http://fake-bank.example.com", 0.95, 0.95},
		{"trusted signal caps at 0.15", "https://github.example.io", 0.7, 0.15},
		{"trusted signal keeps lower score", "https://google.com/search?q=1", 0.05, 0.05},
		{"cap wins when both signals fire", "https://google.com/account/login", 0.6, 0.15},
		{"trusted after floor still capped", "https://wikipedia.org/wiki/bank", 0.99, 0.15},
		{"no signal passes through", "http://example.org/page", 0.42, 0.42},
		{"matching is case-insensitive", "http://SECURE-BANK.example", 0.1, 0.85},
		{"login keyword is malicious", "http://login.example.net", 0.2, 0.85},
		{"verify keyword is malicious", "http://verify-payment.example.net", 0.5, 0.85},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Adjust(tt.url, tt.in); got != tt.want {
				t.Errorf("Adjust(%q, %v) = %v, want %v", tt.url, tt.in, got, tt.want)
			}
		})
	}
}

func TestAdjustClampsToUnitInterval(t *testing.T) {
	if got := Adjust("http://example.org", -0.5); got != 0 {
		t.Errorf("Adjust with negative input = %v, want 0", got)
	}
	if got := Adjust("http://example.org", 1.5); got != 1 {
		t.Errorf("Adjust with input above 1 = %v, want 1", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"example.com", "http://example.com"},
		{"  example.com  ", "http://example.com"},
		{"http://example.com", "http://example.com"},
		{"https://example.com", "https://example.com"},
		// The scheme check is loose: anything starting with "http" is
		// left untouched.
		{"httpsite.com", "httpsite.com"},
		{"", "http://"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
