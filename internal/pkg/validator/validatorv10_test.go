package validator

import (
	"errors"
	"testing"
)

type phoneForm struct {
	Method    string `validate:"required,oneof=sms call"`
	Number    string `validate:"required,e164"`
	Extension string `validate:"omitempty,extension"`
}

func newTestValidator(t *testing.T) *V10Validator {
	t.Helper()

	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator: %v", err)
	}
	return v
}

func TestValidateOK(t *testing.T) {
	v := newTestValidator(t)

	if err := v.Validate(phoneForm{Method: "sms", Number: "+31101234567"}); err != nil {
		t.Errorf("valid form rejected: %v", err)
	}
	if err := v.Validate(phoneForm{Method: "call", Number: "+31101234567", Extension: "x123"}); err != nil {
		t.Errorf("valid form with extension rejected: %v", err)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate(phoneForm{})
	if err == nil {
		t.Fatal("empty form passed validation")
	}

	var fieldErrs V10ValidationError
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error is %T, want V10ValidationError", err)
	}

	if got := fieldErrs.Values()["method"]; got != "This field is required." {
		t.Errorf("method error = %q", got)
	}
	if got := fieldErrs.Values()["number"]; got != "This field is required." {
		t.Errorf("number error = %q", got)
	}
}

func TestValidateBadNumber(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate(phoneForm{Method: "sms", Number: "123"})
	if err == nil {
		t.Fatal("bad number passed validation")
	}

	var fieldErrs V10ValidationError
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error is %T, want V10ValidationError", err)
	}
	if got := fieldErrs.Values()["number"]; got != "Enter a valid phone number." {
		t.Errorf("number error = %q", got)
	}
	if _, ok := fieldErrs.Values()["method"]; ok {
		t.Error("method flagged despite being valid")
	}
}

func TestValidateBadMethod(t *testing.T) {
	v := newTestValidator(t)

	err := v.Validate(phoneForm{Method: "pigeon", Number: "+31101234567"})
	if err == nil {
		t.Fatal("bad method passed validation")
	}

	var fieldErrs V10ValidationError
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("error is %T, want V10ValidationError", err)
	}
	if got := fieldErrs.Values()["method"]; got != "Select a valid choice." {
		t.Errorf("method error = %q", got)
	}
}
