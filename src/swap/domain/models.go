package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// SwapRequest describes one user-initiated conversion. It is constructed once
// per user action and never mutated.
type SwapRequest struct {
	FromToken   string          `json:"from_token"`
	ToToken     string          `json:"to_token"`
	Amount      decimal.Decimal `json:"amount"` // human-readable units of FromToken
	FromNetwork string          `json:"from_network"`
	ToNetwork   string          `json:"to_network"`
	Account     string          `json:"account"`
	Slippage    decimal.Decimal `json:"slippage"` // fractional, e.g. 0.02 for 2%
}

func (r SwapRequest) Validate() error {
	if r.FromToken == "" || r.ToToken == "" {
		return errors.New("source and destination tokens are required")
	}
	// An empty destination network means same-chain, mirroring CrossChain.
	toNetwork := r.ToNetwork
	if toNetwork == "" {
		toNetwork = r.FromNetwork
	}
	if r.FromToken == r.ToToken && r.FromNetwork == toNetwork {
		return errors.New("source and destination assets must differ")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if r.FromNetwork == "" {
		return errors.New("source network is required")
	}
	if r.Slippage.IsNegative() || r.Slippage.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return errors.New("slippage must be in [0, 1)")
	}
	return nil
}

// CrossChain reports whether the request moves value between two networks.
// Classification is purely by network id; the wallet's currently connected
// network is irrelevant here.
func (r SwapRequest) CrossChain() bool {
	return r.ToNetwork != "" && r.ToNetwork != r.FromNetwork
}

// MinAmountOut is the slippage-tolerance floor for the expected output.
func (r SwapRequest) MinAmountOut() decimal.Decimal {
	return r.Amount.Mul(decimal.NewFromInt(1).Sub(r.Slippage))
}

// SwapEstimate is the output of a dry run. It is only valid for the exact
// request it was computed for; any change invalidates it.
type SwapEstimate struct {
	Strategy    string          `json:"strategy"`
	AmountOut   decimal.Decimal `json:"amount_out"`
	PriceImpact decimal.Decimal `json:"price_impact"`
	Spender     string          `json:"spender"` // contract that needs an allowance before execution
}

// SwapResult is the outcome of a successful (or partially successful)
// execution. BridgeTxHash is set whenever a bridge leg was submitted, even
// when a later leg failed, so callers always learn that funds moved.
type SwapResult struct {
	Strategy     string          `json:"strategy"`
	TxHash       string          `json:"tx_hash"`
	BridgeTxHash string          `json:"bridge_tx_hash,omitempty"`
	AmountOut    decimal.Decimal `json:"amount_out"`
	Attempts     int             `json:"attempts"`
}
