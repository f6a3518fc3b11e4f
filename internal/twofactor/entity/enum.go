package entity

// Method is the delivery channel for a phone device token.
type Method int16

const (
	// MethodUnknown is mean method is not known / not set.
	MethodUnknown Method = 0

	// MethodSMS delivers tokens as text messages.
	MethodSMS Method = 1

	// MethodCall delivers tokens by reading them out over a voice call.
	MethodCall Method = 2
)

func (m Method) String() string {
	switch m {
	case MethodSMS:
		return "sms"
	case MethodCall:
		return "call"
	default:
		return "unknown"
	}
}

func (m Method) IsUnknown() bool {
	switch m {
	case MethodSMS, MethodCall:
		return false
	default:
		return true
	}
}

func MethodFromString(s string) Method {
	switch s {
	case "sms":
		return MethodSMS
	case "call":
		return MethodCall
	default:
		return MethodUnknown
	}
}

// WizardStep identifies where a setup session stands. The number step is
// named after the chosen method, so "sms" and "call" are both number steps.
type WizardStep string

const (
	WizardStepSetup      WizardStep = "setup"
	WizardStepSMS        WizardStep = "sms"
	WizardStepCall       WizardStep = "call"
	WizardStepValidation WizardStep = "validation"
)

// IsNumberStep reports whether the step expects a phone number submission.
func (w WizardStep) IsNumberStep() bool {
	return w == WizardStepSMS || w == WizardStepCall
}
