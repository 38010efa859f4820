package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spreadfi/spread/src/balance"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// Orchestrator is the execution layer beneath the controller. Cross-chain
// delegation to the bridge happens below this interface.
type Orchestrator interface {
	Estimate(ctx context.Context, req swapdomain.SwapRequest) (*swapdomain.SwapEstimate, error)
	EstimateAll(ctx context.Context, req swapdomain.SwapRequest) ([]swapdomain.SwapEstimate, error)
	Execute(ctx context.Context, req swapdomain.SwapRequest) (*swapdomain.SwapResult, error)
}

// Approver raises the spending allowance ahead of a transfer-based swap.
type Approver interface {
	Ensure(ctx context.Context, network string, token, spender common.Address, required *big.Int) error
}

// Refresher re-reads the user's holdings after a completed swap.
type Refresher interface {
	Refresh(ctx context.Context, account string) ([]balance.Holding, error)
}

// SessionStore holds per-session swap state. It is injected at construction
// so tests get a fresh store per case instead of sharing process globals.
// States move through the store by value.
type SessionStore interface {
	Get(sessionID string) (SwapState, bool)
	Put(state SwapState)
	Delete(sessionID string)
	Clear()
}
