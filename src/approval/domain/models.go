package domain

import "math/big"

// ApprovalStatus is derived on demand from on-chain state and never cached
// across blocks. The comparison is in the asset's native integer unit.
type ApprovalStatus struct {
	IsApproved        bool     `json:"is_approved"`
	CurrentAllowance  *big.Int `json:"current_allowance"`
	RequiredAllowance *big.Int `json:"required_allowance"`
}

func NewApprovalStatus(current, required *big.Int) *ApprovalStatus {
	return &ApprovalStatus{
		IsApproved:        current.Cmp(required) >= 0,
		CurrentAllowance:  current,
		RequiredAllowance: required,
	}
}
