// Package http provides HTTP handlers for swap sessions
//
// Schemes: http
// Host: localhost:8080
// BasePath: /
// Version: 1.0.0
//
// Consumes:
// - application/json
//
// Produces:
// - application/json
//
// swagger:meta
package http

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/controller/domain"
	historydomain "github.com/spreadfi/spread/src/history/domain"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// SwapRequestBody is the payload for estimate and execute
// swagger:model SwapRequestBody
type SwapRequestBody struct {
	SessionID   string          `json:"session_id" example:"b9f..."`
	FromNetwork string          `json:"from_network" example:"base"`
	FromToken   string          `json:"from_token" example:"USDC"`
	ToNetwork   string          `json:"to_network" example:"polygon"`
	ToToken     string          `json:"to_token" example:"BRZ"`
	Amount      decimal.Decimal `json:"amount" example:"100.0"`
	Account     string          `json:"account" example:"0xabc..."`
	Slippage    decimal.Decimal `json:"slippage" example:"0.02"`
}

func (b SwapRequestBody) ToRequest() swapdomain.SwapRequest {
	return swapdomain.SwapRequest{
		FromToken:   b.FromToken,
		ToToken:     b.ToToken,
		Amount:      b.Amount,
		FromNetwork: b.FromNetwork,
		ToNetwork:   b.ToNetwork,
		Account:     b.Account,
		Slippage:    b.Slippage,
	}
}

// EstimateResponse returns the chosen strategy's quote
// swagger:model EstimateResponse
type EstimateResponse struct {
	Strategy       string          `json:"strategy"`
	AmountOut      decimal.Decimal `json:"amount_out"`
	PriceImpact    decimal.Decimal `json:"price_impact"`
	Spender        string          `json:"spender,omitempty"`
	InflationDelta decimal.Decimal `json:"inflation_delta"`
}

func fromEstimateDomain(est *swapdomain.SwapEstimate, delta decimal.Decimal) EstimateResponse {
	return EstimateResponse{
		Strategy:       est.Strategy,
		AmountOut:      est.AmountOut,
		PriceImpact:    est.PriceImpact,
		Spender:        est.Spender,
		InflationDelta: delta,
	}
}

// SwapStateResponse is a session state snapshot
// swagger:model SwapStateResponse
type SwapStateResponse struct {
	SessionID      string            `json:"session_id"`
	Phase          string            `json:"phase"`
	Estimate       *EstimateResponse `json:"estimate,omitempty"`
	TxHash         string            `json:"tx_hash,omitempty"`
	BridgeTxHash   string            `json:"bridge_tx_hash,omitempty"`
	Attempts       int               `json:"attempts,omitempty"`
	Error          string            `json:"error,omitempty"`
	InflationDelta decimal.Decimal   `json:"inflation_delta"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func fromStateDomain(st domain.SwapState) SwapStateResponse {
	resp := SwapStateResponse{
		SessionID:      st.SessionID,
		Phase:          string(st.Phase),
		TxHash:         st.TxHash,
		BridgeTxHash:   st.BridgeTxHash,
		Attempts:       st.Attempts,
		Error:          st.Error,
		InflationDelta: st.InflationDelta,
		UpdatedAt:      st.UpdatedAt,
	}
	if st.Estimate != nil {
		est := fromEstimateDomain(st.Estimate, st.InflationDelta)
		resp.Estimate = &est
	}
	return resp
}

// SwapRecordResponse is one history entry
// swagger:model SwapRecordResponse
type SwapRecordResponse struct {
	ID           uint            `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Status       string          `json:"status"`
	FromNetwork  string          `json:"from_network"`
	ToNetwork    string          `json:"to_network"`
	FromToken    string          `json:"from_token"`
	ToToken      string          `json:"to_token"`
	AmountIn     decimal.Decimal `json:"amount_in"`
	AmountOut    decimal.Decimal `json:"amount_out"`
	Strategy     string          `json:"strategy"`
	TxHash       string          `json:"tx_hash"`
	BridgeTxHash string          `json:"bridge_tx_hash"`
	Attempts     int             `json:"attempts"`
	FailReason   string          `json:"fail_reason,omitempty"`
}

func fromRecordDomain(rec historydomain.SwapRecord) SwapRecordResponse {
	return SwapRecordResponse{
		ID:           rec.ID,
		CreatedAt:    rec.CreatedAt,
		Status:       string(rec.Status),
		FromNetwork:  rec.FromNetwork,
		ToNetwork:    rec.ToNetwork,
		FromToken:    rec.FromToken,
		ToToken:      rec.ToToken,
		AmountIn:     rec.AmountIn,
		AmountOut:    rec.AmountOut,
		Strategy:     rec.Strategy,
		TxHash:       rec.TxHash,
		BridgeTxHash: rec.BridgeTxHash,
		Attempts:     rec.Attempts,
		FailReason:   rec.FailReason,
	}
}
