package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// Phase is one node of the swap state machine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseApproving Phase = "approving"
	PhaseSwapping  Phase = "swapping"
	PhaseCompleted Phase = "completed"
	PhaseError     Phase = "error"
)

// legalTransitions enumerates every edge of the machine except the universal
// reset edge (any phase -> idle). An edge absent here is illegal and
// Transition rejects it.
var legalTransitions = map[Phase][]Phase{
	PhaseIdle:      {PhaseApproving},
	PhaseApproving: {PhaseSwapping, PhaseError},
	PhaseSwapping:  {PhaseCompleted, PhaseError},
	PhaseCompleted: {},
	PhaseError:     {},
}

func (p Phase) CanTransition(to Phase) bool {
	if to == PhaseIdle {
		// Reset is legal from everywhere, including idle itself.
		return true
	}
	for _, next := range legalTransitions[p] {
		if next == to {
			return true
		}
	}
	return false
}

// SwapState is the caller-facing record for one session's in-flight action.
// It is passed by value everywhere outside the store so snapshots handed to
// the UI never alias live state.
type SwapState struct {
	SessionID      string                   `json:"session_id"`
	Phase          Phase                    `json:"phase"`
	Request        swapdomain.SwapRequest   `json:"request"`
	Estimate       *swapdomain.SwapEstimate `json:"estimate,omitempty"`
	InflationDelta decimal.Decimal          `json:"inflation_delta"`
	TxHash         string                   `json:"tx_hash,omitempty"`
	BridgeTxHash   string                   `json:"bridge_tx_hash,omitempty"`
	Attempts       int                      `json:"attempts,omitempty"`
	Error          string                   `json:"error,omitempty"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// Transition is the single mutation point for Phase. The reset edge clears
// estimate and transaction data so a new request never sees stale figures.
func (s *SwapState) Transition(to Phase) error {
	if !s.Phase.CanTransition(to) {
		return fmt.Errorf("illegal transition %s -> %s", s.Phase, to)
	}
	if to == PhaseIdle {
		s.Estimate = nil
		s.InflationDelta = decimal.Zero
		s.TxHash = ""
		s.BridgeTxHash = ""
		s.Attempts = 0
		s.Error = ""
	}
	s.Phase = to
	s.UpdatedAt = time.Now()
	return nil
}

// InFlight reports whether an execute is active for this session.
func (s *SwapState) InFlight() bool {
	return s.Phase == PhaseApproving || s.Phase == PhaseSwapping
}
