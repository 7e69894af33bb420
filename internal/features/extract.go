// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

// Package features converts raw URL strings into fixed-length numeric
// feature vectors for classifier inference.
//
// Extraction is a pure function: it performs no URL parsing or validation,
// treats malformed input as plain text, and always returns a complete
// vector. The field order is part of the model contract - a trained model
// artifact is only valid for the vector layout defined here.
package features

import (
	"regexp"
	"strings"
	"unicode"
)

// VectorSize is the fixed number of features extracted per URL.
// Model artifacts record this value and are rejected on mismatch.
const VectorSize = 10

// Feature indices into a Vector. The order is fixed and must never be
// reordered without retraining every deployed model.
const (
	FeatURLLength = iota
	FeatHasAtSign
	FeatDotCount
	FeatHasHTTPS
	FeatHasHTTPScheme
	FeatDigitCount
	FeatNonAlnumCount
	FeatIPIndicator
	FeatLoginKeyword
	FeatFinancialKeyword
)

// Vector is an ordered, fixed-length feature vector for one URL.
// It is a value type; once returned from Extract it is never mutated.
type Vector [VectorSize]float64

// ipv4Pattern matches dotted-quad sequences anywhere in the URL.
// Intentionally loose (no octet range check) - it is a phishing signal,
// not an address parser.
var ipv4Pattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

// Extract computes the feature vector for a raw URL string.
//
// The input is lower-cased before inspection. No well-formedness checks
// are performed; the empty string yields a vector with all count-based
// fields at zero. Extract has no side effects and no failure modes.
func Extract(rawURL string) Vector {
	url := strings.ToLower(rawURL)

	var v Vector
	v[FeatURLLength] = float64(len(url))
	v[FeatHasAtSign] = boolFeature(strings.Contains(url, "@"))
	v[FeatDotCount] = float64(strings.Count(url, "."))
	v[FeatHasHTTPS] = boolFeature(strings.Contains(url, "https"))
	v[FeatHasHTTPScheme] = boolFeature(strings.Contains(url, "http://"))

	var digits, nonAlnum int
	for _, c := range url {
		if unicode.IsDigit(c) {
			digits++
		}
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			nonAlnum++
		}
	}
	v[FeatDigitCount] = float64(digits)
	v[FeatNonAlnumCount] = float64(nonAlnum)

	v[FeatIPIndicator] = boolFeature(strings.Contains(url, "ip") || ipv4Pattern.MatchString(url))
	v[FeatLoginKeyword] = boolFeature(strings.Contains(url, "login") || strings.Contains(url, "signin"))
	v[FeatFinancialKeyword] = boolFeature(
		strings.Contains(url, "bank") ||
			strings.Contains(url, "secure") ||
			strings.Contains(url, "account"))

	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
