package domain

import "errors"

// Error taxonomy shared by the registry, approval, bridge, orchestrator and
// controller layers. Callers match with errors.Is; messages wrapped around
// these sentinels carry the provider-specific detail.
var (
	// ErrUnsupportedPair: no strategy exists for the requested pair/network.
	// Fatal, no retry.
	ErrUnsupportedPair = errors.New("unsupported pair")

	// ErrNoRouteFound: a provider was reachable but returned zero viable
	// routes. Triggers fallback while other candidates remain.
	ErrNoRouteFound = errors.New("no route found")

	// ErrInsufficientAllowance is resolved by the approval service under
	// normal flow and only surfaces when the approval itself fails.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrApprovalRejected / ErrSwapRejected: the user declined a signature.
	// Fatal for the attempt, never triggers fallback.
	ErrApprovalRejected = errors.New("approval rejected by user")
	ErrSwapRejected     = errors.New("swap rejected by user")

	ErrApprovalReverted = errors.New("approval transaction reverted")
	ErrApprovalTimedOut = errors.New("approval confirmation timed out")
	ErrApprovalFailed   = errors.New("approval failed on chain")

	// ErrSlippageExceeded: the estimate fell below the tolerance floor.
	ErrSlippageExceeded = errors.New("slippage tolerance exceeded")

	// ErrAllStrategiesExhausted: the fallback loop ran out of candidates.
	ErrAllStrategiesExhausted = errors.New("all strategies exhausted")

	// ErrNotImplemented marks a stubbed provider path. Treated exactly like
	// ErrNoRouteFound for fallback purposes.
	ErrNotImplemented = errors.New("provider not implemented")

	// ErrSwapInProgress guards single-flight execution per session.
	ErrSwapInProgress = errors.New("swap already in progress")

	// ErrRouteTimeout: a bounded provider call did not answer in time.
	// Recoverable, triggers fallback.
	ErrRouteTimeout = errors.New("route resolution timed out")
)

// IsUserRejection reports whether err means the user declined a signature.
// These stop the fallback loop immediately: retrying would only re-prompt
// the same user action.
func IsUserRejection(err error) bool {
	return errors.Is(err, ErrSwapRejected) || errors.Is(err, ErrApprovalRejected)
}

// IsRecoverable reports whether err may be absorbed by falling back to the
// next ranked strategy.
func IsRecoverable(err error) bool {
	if err == nil || IsUserRejection(err) {
		return false
	}
	switch {
	case errors.Is(err, ErrNoRouteFound),
		errors.Is(err, ErrNotImplemented),
		errors.Is(err, ErrSlippageExceeded),
		errors.Is(err, ErrRouteTimeout):
		return true
	case errors.Is(err, ErrUnsupportedPair),
		errors.Is(err, ErrSwapInProgress):
		return false
	}
	// Transient execution failures (RPC timeouts, provider reverts that are
	// not user rejections) default to recoverable; the orchestrator gates
	// them behind the auto-fallback flag.
	return true
}
