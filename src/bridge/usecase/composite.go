package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spreadfi/spread/src/Infrastructure/ethereum"
	"github.com/spreadfi/spread/src/bridge/domain"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// Estimate resolves a route without executing anything. It is safe to call
// repeatedly for display purposes.
func (s *Service) Estimate(ctx context.Context, req swapdomain.SwapRequest) (*swapdomain.SwapEstimate, error) {
	route, err := s.GetBestRoute(ctx, req, "")
	if err == nil {
		return &swapdomain.SwapEstimate{
			Strategy:  "bridge:" + route.Provider,
			AmountOut: route.AmountOut,
			Spender:   route.ApprovalAddress,
		}, nil
	}
	if !errors.Is(err, swapdomain.ErrNoRouteFound) {
		return nil, err
	}

	// No direct route to the desired token: estimate the two-leg composite
	// through the intermediate asset.
	bridgeReq := req
	bridgeReq.ToToken = intermediateSymbol
	route, err = s.GetBestRoute(ctx, bridgeReq, "")
	if err != nil {
		return nil, err
	}
	step, err := s.GetSingleChainSwapRoute(ctx, req.ToNetwork, intermediateSymbol, req.ToToken, route.AmountOut, req.Account, req.Slippage)
	if err != nil {
		return nil, err
	}
	toToken, err := s.catalog.Token(req.ToNetwork, req.ToToken)
	if err != nil {
		return nil, err
	}
	return &swapdomain.SwapEstimate{
		Strategy:  "bridge+swap:" + route.Provider,
		AmountOut: ethereum.FromBaseUnits(mustBig(step.Estimate.ToAmount), toToken.Decimals),
		Spender:   route.ApprovalAddress,
	}, nil
}

// Execute performs the cross-chain conversion: a direct bridge when the
// aggregator reaches the destination token, otherwise the bridge-then-swap
// composite. The composite is sequential, not transactional: when the local
// swap leg fails after the bridge leg succeeded the user holds the
// intermediate asset on the destination chain, and the returned result still
// carries the bridge transaction hash alongside the error so the caller can
// show that funds moved.
func (s *Service) Execute(ctx context.Context, req swapdomain.SwapRequest) (*swapdomain.SwapResult, error) {
	result, _, err := s.BridgeToDestination(ctx, req, "")
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, swapdomain.ErrNoRouteFound) {
		return nil, err
	}

	s.logger.Infof("no direct route for %s on %s, bridging via %s",
		req.ToToken, req.ToNetwork, intermediateSymbol)

	bridgeReq := req
	bridgeReq.ToToken = intermediateSymbol
	leg1, route, err := s.BridgeToDestination(ctx, bridgeReq, "")
	if err != nil {
		return nil, err
	}

	partial := &swapdomain.SwapResult{
		Strategy:     "bridge+swap:" + route.Provider,
		BridgeTxHash: leg1.BridgeTxHash,
		AmountOut:    leg1.AmountOut,
	}

	if err := s.awaitDelivery(ctx, route, leg1.BridgeTxHash); err != nil {
		return partial, fmt.Errorf("bridge leg delivered? %w", err)
	}

	step, err := s.GetSingleChainSwapRoute(ctx, req.ToNetwork, intermediateSymbol, req.ToToken, leg1.AmountOut, req.Account, req.Slippage)
	if err != nil {
		return partial, fmt.Errorf("local swap leg after bridge %s: %w", leg1.BridgeTxHash, err)
	}
	txHash, err := s.SwapSingleChain(ctx, req.ToNetwork, step)
	if err != nil {
		return partial, fmt.Errorf("local swap leg after bridge %s: %w", leg1.BridgeTxHash, err)
	}

	toToken, err := s.catalog.Token(req.ToNetwork, req.ToToken)
	if err != nil {
		return partial, err
	}
	partial.TxHash = txHash
	partial.AmountOut = ethereum.FromBaseUnits(mustBig(step.Estimate.ToAmount), toToken.Decimals)
	return partial, nil
}

// awaitDelivery polls the aggregator until the destination leg of a bridge
// transfer lands, bounded by deliveryWait. The composite's second leg spends
// the bridged funds and cannot run earlier.
func (s *Service) awaitDelivery(ctx context.Context, route *domain.Route, txHash string) error {
	ctx, cancel := context.WithTimeout(ctx, s.deliveryWait)
	defer cancel()
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		status, err := s.aggregator.GetStatus(ctx, route.Tool, route.FromChainID, route.ToChainID, txHash)
		if err == nil {
			switch status.Status {
			case "DONE":
				return nil
			case "FAILED":
				return fmt.Errorf("bridge transfer %s failed: %s", txHash, status.SubStatus)
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("bridge transfer %s not delivered in time", txHash)
		case <-ticker.C:
		}
	}
}
