package domain

import "strings"

// ProviderStatusKind classifies a raw provider status.
type ProviderStatusKind int

const (
	// ProviderStatusMapped is a final provider status with a local equivalent.
	ProviderStatusMapped ProviderStatusKind = iota
	// ProviderStatusInFlight is a known non-final status; no local change.
	ProviderStatusInFlight
	// ProviderStatusUnmapped is outside the known vocabulary; no local change,
	// but it is counted and alerted on.
	ProviderStatusUnmapped
)

var providerFinal = map[string]PaymentStatus{
	"approved":  PaymentStatusPaid,
	"rejected":  PaymentStatusFailed,
	"cancelled": PaymentStatusCancelled,
}

var providerInFlight = map[string]struct{}{
	"pending":      {},
	"in_process":   {},
	"in_mediation": {},
	"authorized":   {},
}

// MapProviderStatus translates provider vocabulary into the local state machine.
// The returned status is only meaningful when kind is ProviderStatusMapped.
func MapProviderStatus(raw string) (PaymentStatus, ProviderStatusKind) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if st, ok := providerFinal[s]; ok {
		return st, ProviderStatusMapped
	}
	if _, ok := providerInFlight[s]; ok {
		return "", ProviderStatusInFlight
	}
	return "", ProviderStatusUnmapped
}
