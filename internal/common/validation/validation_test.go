package validation

import (
	"errors"
	"strings"
	"testing"

	"charity-admin/internal/common/errs"
)

type address struct {
	City string `json:"city" validate:"required"`
}

type sample struct {
	Name    string  `json:"name" validate:"required"`
	Status  string  `json:"status" validate:"oneof=active inactive"`
	Amount  float64 `json:"amount" validate:"gt=0"`
	Address address `json:"address"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Status: "unknown"})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	msg := errs.Message(err)
	for _, want := range []string{
		"name is required",
		"status must be one of [active inactive]",
		"amount must be greater than 0",
		"address.city is required",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestStructValid(t *testing.T) {
	ok := sample{Name: "x", Status: "active", Amount: 1, Address: address{City: "Riyadh"}}
	if err := Struct(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
