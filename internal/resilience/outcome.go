package resilience

// Outcome classifies the result of a guarded call.
type Outcome int

const (
	// OutcomeOK means the call produced a value.
	OutcomeOK Outcome = iota
	// OutcomeRetryable means every attempt failed with a transient error;
	// another backend or a later try may succeed.
	OutcomeRetryable
	// OutcomeFatal means the call cannot succeed as configured.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps a final error from a retry loop to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case IsFatal(err):
		return OutcomeFatal
	default:
		return OutcomeRetryable
	}
}
