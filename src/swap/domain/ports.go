package domain

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Quote is a strategy's answer to a dry run. RouteData is the provider's
// payload, tagged by Strategy and opaque to the orchestrator; each adapter
// validates it at its own boundary before execution.
type Quote struct {
	Strategy    string
	AmountOut   decimal.Decimal
	PriceImpact decimal.Decimal
	Spender     string
	RouteData   json.RawMessage
}

// Strategy is a pluggable execution backend for same-chain conversions.
// Quote returns ErrNoRouteFound (possibly wrapped) to decline a pair it
// cannot actually serve; that is a normal outcome, not a defect.
type Strategy interface {
	ID() string
	Quote(ctx context.Context, req SwapRequest) (*Quote, error)
	Execute(ctx context.Context, req SwapRequest, q *Quote) (*SwapResult, error)
}

// Ranker produces candidate strategy ids for a network/asset, highest
// priority first. An empty list means "no route possible", not an error.
type Ranker interface {
	Rank(networkID, assetSymbol string) []string
}

// Bridger is the cross-chain path. The orchestrator delegates to it whenever
// source and destination networks differ and never consults the local
// strategy list for such requests.
type Bridger interface {
	Estimate(ctx context.Context, req SwapRequest) (*SwapEstimate, error)
	Execute(ctx context.Context, req SwapRequest) (*SwapResult, error)
}
