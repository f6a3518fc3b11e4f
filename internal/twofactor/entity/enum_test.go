package entity

import "testing"

func TestMethodFromString(t *testing.T) {
	cases := []struct {
		in   string
		want Method
	}{
		{"sms", MethodSMS},
		{"call", MethodCall},
		{"", MethodUnknown},
		{"fax", MethodUnknown},
	}

	for _, tc := range cases {
		if got := MethodFromString(tc.in); got != tc.want {
			t.Errorf("MethodFromString(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMethodString(t *testing.T) {
	if got := MethodSMS.String(); got != "sms" {
		t.Errorf("MethodSMS.String() = %q", got)
	}
	if got := MethodCall.String(); got != "call" {
		t.Errorf("MethodCall.String() = %q", got)
	}
	if !MethodUnknown.IsUnknown() {
		t.Error("MethodUnknown.IsUnknown() = false")
	}
}

func TestWizardStepIsNumberStep(t *testing.T) {
	if !WizardStepSMS.IsNumberStep() {
		t.Error("sms step should accept a number")
	}
	if !WizardStepCall.IsNumberStep() {
		t.Error("call step should accept a number")
	}
	if WizardStepSetup.IsNumberStep() {
		t.Error("setup step should not accept a number")
	}
	if WizardStepValidation.IsNumberStep() {
		t.Error("validation step should not accept a number")
	}
}
