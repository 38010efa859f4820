package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegalTransitionChain(t *testing.T) {
	st := &SwapState{SessionID: "s", Phase: PhaseIdle}

	require.NoError(t, st.Transition(PhaseApproving))
	require.NoError(t, st.Transition(PhaseSwapping))
	require.NoError(t, st.Transition(PhaseCompleted))
}

func TestIllegalTransitionsRejected(t *testing.T) {
	cases := []struct {
		from, to Phase
	}{
		{PhaseIdle, PhaseSwapping},
		{PhaseIdle, PhaseCompleted},
		{PhaseCompleted, PhaseSwapping},
		{PhaseCompleted, PhaseApproving},
		{PhaseError, PhaseSwapping},
		{PhaseSwapping, PhaseApproving},
	}
	for _, tc := range cases {
		st := &SwapState{Phase: tc.from}
		assert.Error(t, st.Transition(tc.to), "%s -> %s must be rejected", tc.from, tc.to)
		assert.Equal(t, tc.from, st.Phase, "a rejected transition must not move the machine")
	}
}

func TestResetIsLegalFromEveryPhase(t *testing.T) {
	for _, from := range []Phase{PhaseIdle, PhaseApproving, PhaseSwapping, PhaseCompleted, PhaseError} {
		st := &SwapState{Phase: from}
		assert.NoError(t, st.Transition(PhaseIdle), "reset from %s", from)
	}
}

func TestResetDiscardsInFlightData(t *testing.T) {
	st := &SwapState{
		Phase:          PhaseCompleted,
		Estimate:       &swapdomain.SwapEstimate{Strategy: "amm"},
		InflationDelta: decimal.NewFromFloat(0.014),
		TxHash:         "0xabc",
		BridgeTxHash:   "0xdef",
		Attempts:       2,
		Error:          "old",
	}

	require.NoError(t, st.Transition(PhaseIdle))

	assert.Nil(t, st.Estimate)
	assert.True(t, st.InflationDelta.IsZero())
	assert.Empty(t, st.TxHash)
	assert.Empty(t, st.BridgeTxHash)
	assert.Zero(t, st.Attempts)
	assert.Empty(t, st.Error)
}

func TestInFlight(t *testing.T) {
	assert.True(t, (&SwapState{Phase: PhaseApproving}).InFlight())
	assert.True(t, (&SwapState{Phase: PhaseSwapping}).InFlight())
	assert.False(t, (&SwapState{Phase: PhaseIdle}).InFlight())
	assert.False(t, (&SwapState{Phase: PhaseCompleted}).InFlight())
	assert.False(t, (&SwapState{Phase: PhaseError}).InFlight())
}
