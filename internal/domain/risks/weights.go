package risks

import "github.com/bryanwahyu/automaton-iam/internal/domain/accounts"

// Explicit scoring constants. score = severityWeight * platformSensitivity,
// clamped to [0,100].

var severityWeight = map[Severity]float64{
	SeverityCritical: 25,
	SeverityHigh:     20,
	SeverityMedium:   12,
	SeverityLow:      6,
}

// platformSensitivity ranks how much access a platform grants. The identity
// provider and the cloud account sit at the top.
var platformSensitivity = map[accounts.Platform]float64{
	accounts.PlatformGoogleWorkspace: 4.0,
	accounts.PlatformAWS:             4.0,
	accounts.PlatformGitHub:          3.5,
	accounts.PlatformSlack:           2.5,
	accounts.PlatformZoom:            2.0,
}

// ScoreFor computes the numeric score for a severity on a platform
func ScoreFor(sev Severity, p accounts.Platform) int {
	w, ok := severityWeight[sev]
	if !ok {
		w = severityWeight[SeverityLow]
	}
	s, ok := platformSensitivity[p]
	if !ok {
		s = 1.0
	}
	score := int(w * s)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// AdminSeverity: admin without strong auth is critical on identity-provider
// grade platforms, high elsewhere
func AdminSeverity(p accounts.Platform) Severity {
	switch p {
	case accounts.PlatformGoogleWorkspace, accounts.PlatformAWS:
		return SeverityCritical
	}
	return SeverityHigh
}
