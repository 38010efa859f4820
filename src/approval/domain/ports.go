package domain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainReader serves allowance reads. Implementations must route these
// through a dedicated read provider, never through the user's signer, so
// embedded-wallet signers that cannot perform arbitrary calls still work.
type ChainReader interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
}

// ChainSigner submits approval transactions and waits for their receipts.
type ChainSigner interface {
	ApproveExact(ctx context.Context, token, spender common.Address, amount *big.Int) (string, error)
	WaitMined(ctx context.Context, txHash string, confirmations uint64, timeout time.Duration) (*types.Receipt, error)
	WalletAddress() common.Address
}

// Chain is one network's combined read/sign surface.
type Chain interface {
	ChainReader
	ChainSigner
}
