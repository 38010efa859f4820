package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spreadfi/spread/src/config"
	"github.com/spreadfi/spread/src/logger"
	"github.com/spreadfi/spread/src/swap/domain"
	"golang.org/x/sync/errgroup"
)

// Service turns a SwapRequest into an executed transaction, with ordered
// fallback across ranked strategies. It carries no state between calls.
type Service struct {
	registry     domain.Ranker
	strategies   map[string]domain.Strategy
	bridge       domain.Bridger
	maxAttempts  int
	autoFallback bool
	quoteTimeout time.Duration
	logger       *logger.Logger
}

func NewService(registry domain.Ranker, strategies []domain.Strategy, bridge domain.Bridger, cfg *config.Config, logg *logger.Logger) *Service {
	byID := make(map[string]domain.Strategy, len(strategies))
	for _, st := range strategies {
		byID[st.ID()] = st
	}
	return &Service{
		registry:     registry,
		strategies:   byID,
		bridge:       bridge,
		maxAttempts:  cfg.Swap.MaxAttempts,
		autoFallback: cfg.Swap.AutoFallback,
		quoteTimeout: cfg.LiFi.RouteTimeout,
		logger:       logg,
	}
}

// Estimate is a side-effect-free dry run, safe to call on every keystroke.
// The result is only valid for the exact request it was computed for.
func (s *Service) Estimate(ctx context.Context, req domain.SwapRequest) (*domain.SwapEstimate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.CrossChain() {
		return s.bridge.Estimate(ctx, req)
	}

	candidates := s.registry.Rank(req.FromNetwork, req.ToToken)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s/%s on %s", domain.ErrUnsupportedPair, req.FromToken, req.ToToken, req.FromNetwork)
	}

	var lastErr error
	for _, id := range candidates {
		st, ok := s.strategies[id]
		if !ok {
			continue
		}
		q, err := s.quote(ctx, st, req)
		if err != nil {
			s.logger.Debugf("estimate: strategy %s declined: %v", id, err)
			lastErr = err
			continue
		}
		return &domain.SwapEstimate{
			Strategy:    q.Strategy,
			AmountOut:   q.AmountOut,
			PriceImpact: q.PriceImpact,
			Spender:     q.Spender,
		}, nil
	}
	if lastErr == nil {
		lastErr = domain.ErrNoRouteFound
	}
	return nil, lastErr
}

// EstimateAll fans out a display-only quote to every candidate strategy
// concurrently. Failures are skipped; ordering follows the ranking. This is
// for comparison UIs and is never part of the execution path, which quotes
// sequentially inside the fallback loop.
func (s *Service) EstimateAll(ctx context.Context, req domain.SwapRequest) ([]domain.SwapEstimate, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	candidates := s.registry.Rank(req.FromNetwork, req.ToToken)

	var (
		mu        sync.Mutex
		estimates = make(map[string]domain.SwapEstimate, len(candidates))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range candidates {
		st, ok := s.strategies[id]
		if !ok {
			continue
		}
		g.Go(func() error {
			q, err := s.quote(gctx, st, req)
			if err != nil {
				s.logger.Debugf("estimateAll: strategy %s declined: %v", st.ID(), err)
				return nil
			}
			mu.Lock()
			estimates[st.ID()] = domain.SwapEstimate{
				Strategy:    q.Strategy,
				AmountOut:   q.AmountOut,
				PriceImpact: q.PriceImpact,
				Spender:     q.Spender,
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.SwapEstimate, 0, len(estimates))
	for _, id := range candidates {
		if est, ok := estimates[id]; ok {
			out = append(out, est)
		}
	}
	return out, nil
}

// Execute runs the fallback loop: for each ranked candidate, quote, check
// the slippage floor, execute. Declines move on without consuming the
// attempt budget; execution failures consume it and fall back only for
// recoverable causes with auto-fallback enabled. A user rejection stops
// everything immediately.
func (s *Service) Execute(ctx context.Context, req domain.SwapRequest) (*domain.SwapResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.CrossChain() {
		// Never consult the local strategy list for cross-chain requests.
		return s.bridge.Execute(ctx, req)
	}

	candidates := s.registry.Rank(req.FromNetwork, req.ToToken)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s/%s on %s", domain.ErrUnsupportedPair, req.FromToken, req.ToToken, req.FromNetwork)
	}

	floor := req.MinAmountOut()
	attempts := 0
	var lastErr error

	for _, id := range candidates {
		if attempts >= s.maxAttempts {
			break
		}
		st, ok := s.strategies[id]
		if !ok {
			s.logger.Warnf("strategy %s is ranked but not wired", id)
			continue
		}

		q, err := s.quote(ctx, st, req)
		if err != nil {
			// A decline is a normal outcome, logged and skipped without
			// consuming the attempt budget.
			s.logger.Infof("strategy %s declined %s->%s: %v", id, req.FromToken, req.ToToken, err)
			lastErr = err
			continue
		}

		if q.AmountOut.LessThan(floor) {
			lastErr = fmt.Errorf("%w: strategy %s output %s below floor %s",
				domain.ErrSlippageExceeded, id, q.AmountOut, floor)
			s.logger.Infof("%v", lastErr)
			continue
		}

		attempts++
		result, err := st.Execute(ctx, req, q)
		if err == nil {
			result.Attempts = attempts
			s.logger.Infof("swap executed via %s: %s (attempt %d)", id, result.TxHash, attempts)
			return result, nil
		}

		// Never swallow a failed attempt, even when a later candidate wins.
		s.logger.Errorf("strategy %s execution failed: %v", id, err)
		lastErr = err

		if domain.IsUserRejection(err) {
			// Falling back would just re-prompt the same user action.
			return nil, err
		}
		if !domain.IsRecoverable(err) || !s.autoFallback {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = domain.ErrNoRouteFound
	}
	return nil, fmt.Errorf("%w after %d attempt(s): %v", domain.ErrAllStrategiesExhausted, attempts, lastErr)
}

// quote bounds each candidate's route query so one unresponsive provider
// cannot hang the whole loop.
func (s *Service) quote(ctx context.Context, st domain.Strategy, req domain.SwapRequest) (*domain.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, s.quoteTimeout)
	defer cancel()
	q, err := st.Quote(ctx, req)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: strategy %s: %v", domain.ErrRouteTimeout, st.ID(), err)
	}
	return q, err
}
