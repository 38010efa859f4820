package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/spreadfi/spread/src/approval/domain"
	"github.com/spreadfi/spread/src/logger"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// Service verifies and raises ERC-20 allowances ahead of transfer-based
// swap execution.
type Service struct {
	chains         map[string]domain.Chain
	confirmations  uint64
	confirmTimeout time.Duration
	logger         *logger.Logger
}

func NewService(chains map[string]domain.Chain, confirmations uint64, confirmTimeout time.Duration, logg *logger.Logger) *Service {
	return &Service{
		chains:         chains,
		confirmations:  confirmations,
		confirmTimeout: confirmTimeout,
		logger:         logg,
	}
}

func (s *Service) chain(network string) (domain.Chain, error) {
	c, ok := s.chains[network]
	if !ok {
		return nil, fmt.Errorf("no chain client for network %q", network)
	}
	return c, nil
}

// CheckApproval always issues a fresh allowance read; allowances can change
// between calls, so no status is ever cached.
func (s *Service) CheckApproval(ctx context.Context, network string, token, owner, spender common.Address, required *big.Int) (*domain.ApprovalStatus, error) {
	chain, err := s.chain(network)
	if err != nil {
		return nil, err
	}
	current, err := chain.Allowance(ctx, token, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("allowance read: %w", err)
	}
	return domain.NewApprovalStatus(current, required), nil
}

// Approve sets the allowance to exactly amount, not infinity, to bound the
// blast radius of a later spender compromise.
func (s *Service) Approve(ctx context.Context, network string, token, spender common.Address, amount *big.Int) (string, error) {
	chain, err := s.chain(network)
	if err != nil {
		return "", err
	}
	txHash, err := chain.ApproveExact(ctx, token, spender, amount)
	if err != nil {
		if isSignerRejection(err) {
			return "", fmt.Errorf("%w: %v", swapdomain.ErrApprovalRejected, err)
		}
		return "", fmt.Errorf("%w: %v", swapdomain.ErrApprovalReverted, err)
	}
	return txHash, nil
}

// WaitForApproval blocks until the approval transaction has the required
// confirmations or the configured bound elapses.
func (s *Service) WaitForApproval(ctx context.Context, network, txHash string) (*types.Receipt, error) {
	chain, err := s.chain(network)
	if err != nil {
		return nil, err
	}
	receipt, err := chain.WaitMined(ctx, txHash, s.confirmations, s.confirmTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swapdomain.ErrApprovalTimedOut, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("%w: tx %s", swapdomain.ErrApprovalFailed, txHash)
	}
	return receipt, nil
}

// Ensure is the controller's entry point: check, and when short, approve the
// exact shortfall target and wait for confirmation. A sufficient existing
// allowance is a no-op.
func (s *Service) Ensure(ctx context.Context, network string, token, spender common.Address, required *big.Int) error {
	chain, err := s.chain(network)
	if err != nil {
		return err
	}
	status, err := s.CheckApproval(ctx, network, token, chain.WalletAddress(), spender, required)
	if err != nil {
		return err
	}
	if status.IsApproved {
		s.logger.Debugf("allowance sufficient on %s: have %s need %s",
			network, status.CurrentAllowance, status.RequiredAllowance)
		return nil
	}

	// A failure past this point leaves the allowance short, so the surfaced
	// error carries both the shortfall sentinel and the specific cause.
	txHash, err := s.Approve(ctx, network, token, spender, required)
	if err != nil {
		return fmt.Errorf("%w: %w", swapdomain.ErrInsufficientAllowance, err)
	}
	s.logger.Infof("approval submitted on %s: %s", network, txHash)
	if _, err := s.WaitForApproval(ctx, network, txHash); err != nil {
		return fmt.Errorf("%w: %w", swapdomain.ErrInsufficientAllowance, err)
	}
	return nil
}

// isSignerRejection distinguishes a declined signature prompt from an
// on-chain failure. Remote signer implementations surface the decline as an
// error string; there is no structured code across wallets.
func isSignerRejection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, swapdomain.ErrApprovalRejected) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") ||
		strings.Contains(msg, "user denied") ||
		strings.Contains(msg, "request rejected")
}
