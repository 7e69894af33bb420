// Phishstream - Real-Time Phishing URL Scoring and Concept Drift Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/phishstream

package validation

import (
	"strings"
	"testing"
)

func TestGetValidatorSingleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator should return the same non-nil instance")
	}
}

type predictStruct struct {
	URL    string `validate:"required,max=2048"`
	Source string `validate:"omitempty,oneof=user automated_traffic"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid request passes", func(t *testing.T) {
		req := predictStruct{URL: "http://example.com", Source: "user"}
		if err := ValidateStruct(&req); err != nil {
			t.Errorf("unexpected validation error: %v", err)
		}
	})

	t.Run("missing url fails required", func(t *testing.T) {
		verr := ValidateStruct(&predictStruct{})
		if verr == nil {
			t.Fatal("expected validation error")
		}
		errs := verr.Errors()
		if len(errs) != 1 || errs[0].Field() != "URL" || errs[0].Tag() != "required" {
			t.Errorf("errors = %+v", errs)
		}
		if !strings.Contains(verr.Error(), "URL is required") {
			t.Errorf("message = %q", verr.Error())
		}
	})

	t.Run("bad source fails oneof", func(t *testing.T) {
		verr := ValidateStruct(&predictStruct{URL: "http://example.com", Source: "robot"})
		if verr == nil {
			t.Fatal("expected validation error")
		}
		if verr.Errors()[0].Tag() != "oneof" {
			t.Errorf("tag = %q, want oneof", verr.Errors()[0].Tag())
		}
	})

	t.Run("oversized url fails max", func(t *testing.T) {
		verr := ValidateStruct(&predictStruct{URL: strings.Repeat("a", 3000)})
		if verr == nil {
			t.Fatal("expected validation error")
		}
		if verr.Errors()[0].Tag() != "max" {
			t.Errorf("tag = %q, want max", verr.Errors()[0].Tag())
		}
	})
}

func TestToAPIError(t *testing.T) {
	t.Run("single error", func(t *testing.T) {
		apiErr := ValidateStruct(&predictStruct{}).ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("code = %q", apiErr.Code)
		}
		if apiErr.Details["field"] != "URL" {
			t.Errorf("details = %v", apiErr.Details)
		}
	})

	t.Run("multiple errors aggregate", func(t *testing.T) {
		apiErr := ValidateStruct(&predictStruct{Source: "robot"}).ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok || len(fields) != 2 {
			t.Fatalf("details.fields = %v", apiErr.Details["fields"])
		}
		if !strings.Contains(apiErr.Message, ";") {
			t.Errorf("combined message = %q", apiErr.Message)
		}
	})
}
