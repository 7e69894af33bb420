// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package features

import "testing"

func TestExtractTotality(t *testing.T) {
	t.Run("empty string yields all-zero counts", func(t *testing.T) {
		v := Extract("")
		for i, f := range v {
			if f != 0 {
				t.Errorf("feature %d: expected 0 for empty input, got %f", i, f)
			}
		}
	})

	t.Run("always returns exactly VectorSize fields", func(t *testing.T) {
		inputs := []string{
			"",
			"a",
			"https://google.com",
			"not a url at all \x00\xff",
			"::::////@@@@",
		}
		for _, in := range inputs {
			v := Extract(in)
			if len(v) != VectorSize {
				t.Errorf("Extract(%q): expected %d fields, got %d", in, VectorSize, len(v))
			}
		}
	})
}

func TestExtractFields(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		index int
		want  float64
	}{
		{"url length", "abcde", FeatURLLength, 5},
		{"at sign present", "user@evil.com", FeatHasAtSign, 1},
		{"at sign absent", "evil.com", FeatHasAtSign, 0},
		{"dot count", "a.b.c.d", FeatDotCount, 3},
		{"https substring", "https://x.com", FeatHasHTTPS, 1},
		{"https absent from plain scheme", "http://x.com", FeatHasHTTPS, 0},
		{"http scheme", "http://x.com", FeatHasHTTPScheme, 1},
		{"http scheme absent", "https://x.com", FeatHasHTTPScheme, 0},
		{"digit count", "a1b2c3", FeatDigitCount, 3},
		{"non-alnum count", "a-b_c/d", FeatNonAlnumCount, 3},
		{"ipv4 literal", "http://192.168.1.1/login", FeatIPIndicator, 1},
		{"ip substring", "https://my-ip-checker.com", FeatIPIndicator, 1},
		{"no ip indicator", "https://example.org", FeatIPIndicator, 0},
		{"login keyword", "https://login.example.com", FeatLoginKeyword, 1},
		{"signin keyword", "https://example.com/signin", FeatLoginKeyword, 1},
		{"no login keyword", "https://example.com", FeatLoginKeyword, 0},
		{"bank keyword", "http://my-bank.com", FeatFinancialKeyword, 1},
		{"secure keyword", "http://secure-site.com", FeatFinancialKeyword, 1},
		{"account keyword", "http://account-update.net", FeatFinancialKeyword, 1},
		{"no financial keyword", "https://example.org/page", FeatFinancialKeyword, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Extract(tt.url)
			if v[tt.index] != tt.want {
				t.Errorf("Extract(%q)[%d] = %f, want %f", tt.url, tt.index, v[tt.index], tt.want)
			}
		})
	}
}

func TestExtractCaseInsensitive(t *testing.T) {
	upper := Extract("HTTP://SECURE-BANK-LOGIN.COM")
	lower := Extract("http://secure-bank-login.com")
	if upper != lower {
		t.Errorf("extraction is case-sensitive: %v != %v", upper, lower)
	}
	if upper[FeatFinancialKeyword] != 1 || upper[FeatLoginKeyword] != 1 {
		t.Error("keyword flags not detected in upper-cased input")
	}
}
