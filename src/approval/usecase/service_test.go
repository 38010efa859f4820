package usecase

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spreadfi/spread/src/approval/domain"
	"github.com/spreadfi/spread/src/logger"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChain struct {
	allowance     *big.Int
	allowanceErr  error
	approveErr    error
	receiptStatus uint64
	waitErr       error

	allowanceCalls int
	approvedAmount *big.Int
	waitedTx       string
}

func (m *mockChain) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	m.allowanceCalls++
	if m.allowanceErr != nil {
		return nil, m.allowanceErr
	}
	return new(big.Int).Set(m.allowance), nil
}

func (m *mockChain) ApproveExact(ctx context.Context, token, spender common.Address, amount *big.Int) (string, error) {
	if m.approveErr != nil {
		return "", m.approveErr
	}
	m.approvedAmount = new(big.Int).Set(amount)
	return "0xapproval", nil
}

func (m *mockChain) WaitMined(ctx context.Context, txHash string, confirmations uint64, timeout time.Duration) (*types.Receipt, error) {
	m.waitedTx = txHash
	if m.waitErr != nil {
		return nil, m.waitErr
	}
	return &types.Receipt{Status: m.receiptStatus}, nil
}

func (m *mockChain) WalletAddress() common.Address {
	return common.HexToAddress("0x1111111111111111111111111111111111111111")
}

func newApprovalService(chain domain.Chain) *Service {
	return NewService(map[string]domain.Chain{"base": chain}, 1, time.Second, logger.New("test"))
}

var (
	token   = common.HexToAddress("0x2222222222222222222222222222222222222222")
	spender = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestCheckApprovalBoundaryEquality(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(100)}
	svc := newApprovalService(chain)

	status, err := svc.CheckApproval(context.Background(), "base", token, chain.WalletAddress(), spender, big.NewInt(100))

	require.NoError(t, err)
	assert.True(t, status.IsApproved, "exact equality counts as approved")
}

func TestCheckApprovalShortByOne(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(99)}
	svc := newApprovalService(chain)

	status, err := svc.CheckApproval(context.Background(), "base", token, chain.WalletAddress(), spender, big.NewInt(100))

	require.NoError(t, err)
	assert.False(t, status.IsApproved)
}

func TestCheckApprovalNeverCaches(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0)}
	svc := newApprovalService(chain)

	_, err := svc.CheckApproval(context.Background(), "base", token, chain.WalletAddress(), spender, big.NewInt(1))
	require.NoError(t, err)
	_, err = svc.CheckApproval(context.Background(), "base", token, chain.WalletAddress(), spender, big.NewInt(1))
	require.NoError(t, err)

	assert.Equal(t, 2, chain.allowanceCalls, "every check issues a fresh read")
}

func TestEnsureNoOpWhenAllowanceSufficient(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(500)}
	svc := newApprovalService(chain)

	err := svc.Ensure(context.Background(), "base", token, spender, big.NewInt(100))

	require.NoError(t, err)
	assert.Nil(t, chain.approvedAmount, "no approval may be submitted")
}

func TestEnsureApprovesExactAmount(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0), receiptStatus: types.ReceiptStatusSuccessful}
	svc := newApprovalService(chain)

	err := svc.Ensure(context.Background(), "base", token, spender, big.NewInt(12345))

	require.NoError(t, err)
	require.NotNil(t, chain.approvedAmount)
	assert.Zero(t, chain.approvedAmount.Cmp(big.NewInt(12345)), "allowance is raised to exactly the required amount, not infinity")
	assert.Equal(t, "0xapproval", chain.waitedTx)
}

func TestEnsureMapsSignerRejection(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0), approveErr: errors.New("user rejected the request")}
	svc := newApprovalService(chain)

	err := svc.Ensure(context.Background(), "base", token, spender, big.NewInt(100))

	require.Error(t, err)
	assert.ErrorIs(t, err, swapdomain.ErrApprovalRejected)
}

func TestEnsureMapsSubmitFailureToReverted(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0), approveErr: errors.New("nonce too low")}
	svc := newApprovalService(chain)

	err := svc.Ensure(context.Background(), "base", token, spender, big.NewInt(100))

	require.Error(t, err)
	assert.ErrorIs(t, err, swapdomain.ErrApprovalReverted)
}

func TestEnsureFailureCarriesShortfallSentinel(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0), waitErr: errors.New("context deadline exceeded")}
	svc := newApprovalService(chain)

	err := svc.Ensure(context.Background(), "base", token, spender, big.NewInt(100))

	require.Error(t, err)
	// The allowance is still short, and the caller also learns the cause.
	assert.ErrorIs(t, err, swapdomain.ErrInsufficientAllowance)
	assert.ErrorIs(t, err, swapdomain.ErrApprovalTimedOut)
}

func TestEnsureTimesOutWaitingForConfirmation(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0), waitErr: errors.New("context deadline exceeded")}
	svc := newApprovalService(chain)

	err := svc.Ensure(context.Background(), "base", token, spender, big.NewInt(100))

	require.Error(t, err)
	assert.ErrorIs(t, err, swapdomain.ErrApprovalTimedOut)
}

func TestEnsureFailsOnRevertedReceipt(t *testing.T) {
	chain := &mockChain{allowance: big.NewInt(0), receiptStatus: types.ReceiptStatusFailed}
	svc := newApprovalService(chain)

	err := svc.Ensure(context.Background(), "base", token, spender, big.NewInt(100))

	require.Error(t, err)
	assert.ErrorIs(t, err, swapdomain.ErrApprovalFailed)
}

func TestUnknownNetworkIsAnError(t *testing.T) {
	svc := newApprovalService(&mockChain{allowance: big.NewInt(0)})

	_, err := svc.CheckApproval(context.Background(), "arbitrum", token, common.Address{}, spender, big.NewInt(1))

	assert.Error(t, err)
}
