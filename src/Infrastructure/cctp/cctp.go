// Package cctp is the native attestation-based bridge integration (Circle
// CCTP). Only the surface exists today: every operation fails with
// ErrNotImplemented, which the bridge service treats as "no route from this
// provider" and falls through to the aggregator. Finishing the burn /
// attestation / mint flow is tracked for a later release.
package cctp

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// ErrNotImplemented wraps the shared sentinel so callers matching
// swapdomain.ErrNotImplemented treat this provider as route-less.
var ErrNotImplemented = fmt.Errorf("cctp: %w", swapdomain.ErrNotImplemented)

type Client struct{}

func NewClient() *Client { return &Client{} }

type Route struct {
	FromChainID int64
	ToChainID   int64
	Amount      decimal.Decimal
}

// GetRoute would resolve a burn/mint path for native USDC.
func (c *Client) GetRoute(ctx context.Context, fromChainID, toChainID int64, tokenSymbol string, amount decimal.Decimal) (*Route, error) {
	return nil, ErrNotImplemented
}

// Burn would submit the source-chain burn transaction.
func (c *Client) Burn(ctx context.Context, route *Route) (string, error) {
	return "", ErrNotImplemented
}
