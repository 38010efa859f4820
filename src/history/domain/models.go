package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SwapStatus string

const (
	SwapCompleted SwapStatus = "COMPLETED"
	SwapFailed    SwapStatus = "FAILED"
	SwapPartial   SwapStatus = "PARTIAL" // bridge leg landed, local swap leg did not
)

// SwapRecord is one finished (or failed) conversion, kept so users can audit
// what moved where and at what rate.
type SwapRecord struct {
	ID           uint            `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	Status       SwapStatus      `json:"status"`
	Account      string          `json:"account"`
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
	FailReason   string          `json:"fail_reason"`
}
