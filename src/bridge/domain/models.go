package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider identifiers for route payloads.
const (
	ProviderLiFi = "lifi"
	ProviderCCTP = "cctp"
)

// Step is one chain-bound unit of a resolved route.
type Step struct {
	ChainID int64  `json:"chain_id"`
	Type    string `json:"type"`
	Tool    string `json:"tool"`
}

// Route is a tagged variant: Data is the provider's own payload and is only
// meaningful for the named Provider. It lives for the duration of one bridge
// operation and is discarded after execution or failure.
type Route struct {
	Provider        string          `json:"provider"`
	ID              string          `json:"id"`
	Tool            string          `json:"tool"`
	FromChainID     int64           `json:"from_chain_id"`
	ToChainID       int64           `json:"to_chain_id"`
	AmountOut       decimal.Decimal `json:"amount_out"`
	AmountOutMin    decimal.Decimal `json:"amount_out_min"`
	ApprovalAddress string          `json:"approval_address"`
	Steps           []Step          `json:"steps"`
	Data            json.RawMessage `json:"-"`
}

// Decode unmarshals the provider payload after checking the tag, so a route
// resolved by one provider can never be executed through another.
func (r *Route) Decode(provider string, v any) error {
	if r.Provider != provider {
		return fmt.Errorf("route belongs to provider %q, not %q", r.Provider, provider)
	}
	return json.Unmarshal(r.Data, v)
}
