package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/Infrastructure/ethereum"
	"github.com/spreadfi/spread/src/catalog"
	"github.com/spreadfi/spread/src/controller/domain"
	historydomain "github.com/spreadfi/spread/src/history/domain"
	"github.com/spreadfi/spread/src/logger"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// Controller owns the caller-facing state machine. It is the only stateful
// component above the store; everything it calls is stateless per request.
type Controller struct {
	orchestrator domain.Orchestrator
	approver     domain.Approver
	refresher    domain.Refresher
	history      historydomain.SwapHistoryRepository
	catalog      *catalog.Catalog
	sessions     domain.SessionStore
	policy       RefreshPolicy
	logger       *logger.Logger

	mu   sync.Mutex
	subs map[string][]chan domain.SwapState
	wg   sync.WaitGroup
}

func NewController(
	orchestrator domain.Orchestrator,
	approver domain.Approver,
	refresher domain.Refresher,
	history historydomain.SwapHistoryRepository,
	cat *catalog.Catalog,
	sessions domain.SessionStore,
	policy RefreshPolicy,
	logg *logger.Logger,
) *Controller {
	return &Controller{
		orchestrator: orchestrator,
		approver:     approver,
		refresher:    refresher,
		history:      history,
		catalog:      cat,
		sessions:     sessions,
		policy:       policy,
		logger:       logg,
		subs:         make(map[string][]chan domain.SwapState),
	}
}

// NewSession creates an idle session and returns its initial state.
func (c *Controller) NewSession() domain.SwapState {
	st := domain.SwapState{
		SessionID: uuid.NewString(),
		Phase:     domain.PhaseIdle,
		UpdatedAt: time.Now(),
	}
	c.sessions.Put(st)
	return st
}

// State returns a snapshot of the session, creating nothing.
func (c *Controller) State(sessionID string) (domain.SwapState, bool) {
	return c.sessions.Get(sessionID)
}

// Subscribe delivers every state change for the session until the returned
// cancel func runs. A slow consumer drops updates rather than blocking the
// swap flow.
func (c *Controller) Subscribe(sessionID string) (<-chan domain.SwapState, func()) {
	ch := make(chan domain.SwapState, 8)
	c.mu.Lock()
	c.subs[sessionID] = append(c.subs[sessionID], ch)
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.subs[sessionID]
		for i, sub := range subs {
			if sub == ch {
				c.subs[sessionID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

func (c *Controller) publish(st domain.SwapState) {
	c.mu.Lock()
	subs := append([]chan domain.SwapState(nil), c.subs[st.SessionID]...)
	c.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- st:
		default:
		}
	}
}

// Estimate is side-effect-free: it never moves the state machine, only
// annotates an idle session with the latest figures for display.
func (c *Controller) Estimate(ctx context.Context, sessionID string, req swapdomain.SwapRequest) (*swapdomain.SwapEstimate, decimal.Decimal, error) {
	est, err := c.orchestrator.Estimate(ctx, req)
	if err != nil {
		return nil, decimal.Zero, err
	}
	delta := c.inflationDelta(req)

	c.mu.Lock()
	if st, ok := c.sessions.Get(sessionID); ok && !st.InFlight() {
		st.Request = req
		st.Estimate = est
		st.InflationDelta = delta
		st.UpdatedAt = time.Now()
		c.sessions.Put(st)
	}
	c.mu.Unlock()
	return est, delta, nil
}

// Estimates returns display-only quotes from every candidate strategy.
func (c *Controller) Estimates(ctx context.Context, req swapdomain.SwapRequest) ([]swapdomain.SwapEstimate, error) {
	return c.orchestrator.EstimateAll(ctx, req)
}

// Execute drives one session through approving -> swapping -> completed or
// error. A second call while the session is in flight is rejected, never
// queued.
func (c *Controller) Execute(ctx context.Context, sessionID string, req swapdomain.SwapRequest) (domain.SwapState, error) {
	if err := req.Validate(); err != nil {
		return domain.SwapState{}, err
	}

	c.mu.Lock()
	st, ok := c.sessions.Get(sessionID)
	if !ok {
		st = domain.SwapState{SessionID: sessionID, Phase: domain.PhaseIdle}
	}
	if st.InFlight() {
		c.mu.Unlock()
		return st, fmt.Errorf("%w: session %s is %s", swapdomain.ErrSwapInProgress, sessionID, st.Phase)
	}
	if st.Phase != domain.PhaseIdle {
		// A finished session starts over through the reset edge.
		_ = st.Transition(domain.PhaseIdle)
	}
	st.Request = req
	if err := st.Transition(domain.PhaseApproving); err != nil {
		c.mu.Unlock()
		return st, err
	}
	c.sessions.Put(st)
	c.mu.Unlock()
	c.publish(st)

	return c.run(ctx, st.SessionID, req)
}

func (c *Controller) run(ctx context.Context, sessionID string, req swapdomain.SwapRequest) (domain.SwapState, error) {
	est, err := c.orchestrator.Estimate(ctx, req)
	if err != nil {
		return c.fail(sessionID, req, nil, err)
	}
	st, err := c.transition(sessionID, domain.PhaseApproving, func(s *domain.SwapState) {
		s.Estimate = est
		s.InflationDelta = c.inflationDelta(req)
	})
	if err != nil {
		return st, err
	}

	// The approving phase is visible even when the allowance is already
	// sufficient; Ensure no-ops in that case.
	if est.Spender != "" {
		fromToken, err := c.catalog.Token(req.FromNetwork, req.FromToken)
		if err != nil {
			return c.fail(sessionID, req, nil, err)
		}
		required := ethereum.ToBaseUnits(req.Amount, fromToken.Decimals)
		if err := c.approver.Ensure(ctx, req.FromNetwork, common.HexToAddress(fromToken.Address), common.HexToAddress(est.Spender), required); err != nil {
			return c.fail(sessionID, req, nil, err)
		}
	}

	st, err = c.transition(sessionID, domain.PhaseSwapping, nil)
	if err != nil {
		return st, err
	}
	c.publish(st)

	result, execErr := c.orchestrator.Execute(ctx, req)
	if execErr != nil {
		return c.fail(sessionID, req, result, execErr)
	}

	st, err = c.transition(sessionID, domain.PhaseCompleted, func(s *domain.SwapState) {
		s.TxHash = result.TxHash
		s.BridgeTxHash = result.BridgeTxHash
		s.Attempts = result.Attempts
	})
	if err != nil {
		return st, err
	}
	c.publish(st)

	c.record(req, result, historydomain.SwapCompleted, "")
	c.scheduleRefresh(req.Account)
	return st, nil
}

// transition applies one state machine edge under the lock. An illegal edge
// means the session was reset mid-flight; the flow stops writing state but
// never reports the on-chain transaction as failed.
func (c *Controller) transition(sessionID string, to domain.Phase, mutate func(*domain.SwapState)) (domain.SwapState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions.Get(sessionID)
	if !ok {
		return domain.SwapState{}, fmt.Errorf("session %s no longer exists", sessionID)
	}
	if st.Phase != to {
		if err := st.Transition(to); err != nil {
			c.logger.Warnf("session %s: %v", sessionID, err)
			return st, err
		}
	}
	if mutate != nil {
		mutate(&st)
	}
	c.sessions.Put(st)
	return st, nil
}

func (c *Controller) fail(sessionID string, req swapdomain.SwapRequest, result *swapdomain.SwapResult, cause error) (domain.SwapState, error) {
	c.logger.Errorf("session %s swap failed: %v", sessionID, cause)

	st, err := c.transition(sessionID, domain.PhaseError, func(s *domain.SwapState) {
		s.Error = userMessage(cause)
		if result != nil {
			s.BridgeTxHash = result.BridgeTxHash
		}
	})
	if err != nil {
		return st, cause
	}
	c.publish(st)

	status := historydomain.SwapFailed
	if result != nil && result.BridgeTxHash != "" {
		// The bridge leg landed; the user holds the intermediate asset on
		// the destination chain.
		status = historydomain.SwapPartial
	}
	c.record(req, result, status, cause.Error())
	return st, cause
}

func (c *Controller) record(req swapdomain.SwapRequest, result *swapdomain.SwapResult, status historydomain.SwapStatus, failReason string) {
	if c.history == nil {
		return
	}
	rec := &historydomain.SwapRecord{
		Status:      status,
		Account:     req.Account,
		FromNetwork: req.FromNetwork,
		ToNetwork:   req.ToNetwork,
		FromToken:   req.FromToken,
		ToToken:     req.ToToken,
		AmountIn:    req.Amount,
		FailReason:  failReason,
	}
	if result != nil {
		rec.AmountOut = result.AmountOut
		rec.Strategy = result.Strategy
		rec.TxHash = result.TxHash
		rec.BridgeTxHash = result.BridgeTxHash
		rec.Attempts = result.Attempts
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.history.SaveRecord(ctx, rec); err != nil {
		c.logger.Errorf("save swap record: %v", err)
	}
}

// Reset returns the session to idle, discarding estimate and transaction
// data. A reset while a transaction is in flight only stops the controller
// from tracking it; the transaction itself may still land.
func (c *Controller) Reset(sessionID string) (domain.SwapState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.sessions.Get(sessionID)
	if !ok {
		return domain.SwapState{}, fmt.Errorf("session %s no longer exists", sessionID)
	}
	if err := st.Transition(domain.PhaseIdle); err != nil {
		return st, err
	}
	st.Request = swapdomain.SwapRequest{}
	c.sessions.Put(st)
	return st, nil
}

// History lists the account's most recent swaps, newest first.
func (c *Controller) History(ctx context.Context, account string, limit int) ([]historydomain.SwapRecord, error) {
	if c.history == nil {
		return nil, nil
	}
	return c.history.GetRecordsByAccount(ctx, account, limit)
}

// scheduleRefresh re-reads balances in the background per the retry policy.
// Refresh failures are logged, never surfaced: the swap already succeeded.
func (c *Controller) scheduleRefresh(account string) {
	if c.refresher == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		bo := c.policy.NewBackOff()
		for attempt := 1; ; attempt++ {
			sleep := bo.NextBackOff()
			if sleep == backoff.Stop {
				c.logger.Warnf("balance refresh for %s gave up after %d attempts", account, attempt-1)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}
			if _, err := c.refresher.Refresh(ctx, account); err != nil {
				c.logger.Warnf("balance refresh attempt %d for %s: %v", attempt, account, err)
				continue
			}
			return
		}
	}()
}

// WaitRefreshes blocks until in-flight background refreshes finish. Used on
// shutdown and by tests.
func (c *Controller) WaitRefreshes() { c.wg.Wait() }

// userMessage maps the error taxonomy onto something a person can act on.
// Unknown causes pass through verbatim.
func userMessage(err error) string {
	switch {
	case errors.Is(err, swapdomain.ErrUnsupportedPair):
		return "this pair is not supported on the selected network"
	case errors.Is(err, swapdomain.ErrApprovalRejected), errors.Is(err, swapdomain.ErrSwapRejected):
		return "the signature request was declined in the wallet"
	case errors.Is(err, swapdomain.ErrApprovalTimedOut):
		return "the approval transaction was not confirmed in time"
	case errors.Is(err, swapdomain.ErrInsufficientAllowance):
		return "the spending allowance could not be raised"
	case errors.Is(err, swapdomain.ErrNoRouteFound):
		return "no provider could find a route for this conversion"
	case errors.Is(err, swapdomain.ErrAllStrategiesExhausted):
		return err.Error()
	case errors.Is(err, swapdomain.ErrSwapInProgress):
		return "a swap is already in progress for this session"
	default:
		return err.Error()
	}
}

func (c *Controller) inflationDelta(req swapdomain.SwapRequest) decimal.Decimal {
	toNetwork := req.ToNetwork
	if toNetwork == "" {
		toNetwork = req.FromNetwork
	}
	return c.catalog.InflationDelta(req.FromNetwork, req.FromToken, toNetwork, req.ToToken)
}
