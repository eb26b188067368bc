package integrity

import "github.com/gokaycavdar/go-trustguard/pkg/models"

// Fixed deductions applied per raised integrity flag.
//
// Deductions are independent and additive: a rooted emulator with USB
// debugging loses 40+5+10 points. They are deliberately constants rather
// than configuration - the score scale is only meaningful if every
// deployment computes it the same way.
const (
	deductRooted           = 40
	deductMockLocationApp  = 30
	deductInstrumentation  = 25
	deductDeveloperOptions = 15
	deductUSBDebugging     = 10
	deductUnknownSources   = 10
	deductEmulator         = 5
)

// Score aggregates integrity signals into a bounded security score.
//
// Pure function of its input: starts at 100, subtracts the fixed deduction
// for every raised flag, clamps to [0, 100]. No hidden state, no I/O.
//
// Score never interprets absent signals - a collaborator that could not
// determine a flag already reported the safe default before this point.
//
// Note VPNActive carries no deduction: VPN usage is a location-trust
// concern handled by the violation pipeline, not a device-integrity one.
func Score(s models.IntegritySignals) models.SecurityScore {
	score := int(models.MaxSecurityScore)

	if s.Rooted {
		score -= deductRooted
	}
	if s.MockLocationAppPresent {
		score -= deductMockLocationApp
	}
	if s.InstrumentationFrameworkPresent {
		score -= deductInstrumentation
	}
	if s.DeveloperOptionsEnabled {
		score -= deductDeveloperOptions
	}
	if s.USBDebuggingEnabled {
		score -= deductUSBDebugging
	}
	if s.UnknownSourcesEnabled {
		score -= deductUnknownSources
	}
	if s.RunningOnEmulator {
		score -= deductEmulator
	}

	if score < int(models.MinSecurityScore) {
		score = int(models.MinSecurityScore)
	}
	return models.SecurityScore(score)
}
