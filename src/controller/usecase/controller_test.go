package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/balance"
	"github.com/spreadfi/spread/src/catalog"
	"github.com/spreadfi/spread/src/controller/domain"
	historydomain "github.com/spreadfi/spread/src/history/domain"
	"github.com/spreadfi/spread/src/logger"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockOrchestrator struct {
	estimate    *swapdomain.SwapEstimate
	estimateErr error
	result      *swapdomain.SwapResult
	execErr     error
	execGate    chan struct{} // when set, Execute blocks until closed
	execCalls   int32
}

func (m *mockOrchestrator) Estimate(ctx context.Context, req swapdomain.SwapRequest) (*swapdomain.SwapEstimate, error) {
	if m.estimateErr != nil {
		return nil, m.estimateErr
	}
	return m.estimate, nil
}

func (m *mockOrchestrator) EstimateAll(ctx context.Context, req swapdomain.SwapRequest) ([]swapdomain.SwapEstimate, error) {
	if m.estimateErr != nil {
		return nil, m.estimateErr
	}
	return []swapdomain.SwapEstimate{*m.estimate}, nil
}

func (m *mockOrchestrator) Execute(ctx context.Context, req swapdomain.SwapRequest) (*swapdomain.SwapResult, error) {
	atomic.AddInt32(&m.execCalls, 1)
	if m.execGate != nil {
		<-m.execGate
	}
	if m.execErr != nil {
		return m.result, m.execErr
	}
	return m.result, nil
}

type mockRefresher struct {
	calls    int32
	failures int32 // first n calls fail
}

func (m *mockRefresher) Refresh(ctx context.Context, account string) ([]balance.Holding, error) {
	n := atomic.AddInt32(&m.calls, 1)
	if n <= atomic.LoadInt32(&m.failures) {
		return nil, errors.New("indexer lagging")
	}
	return []balance.Holding{}, nil
}

type mockHistory struct {
	records []historydomain.SwapRecord
}

func (m *mockHistory) SaveRecord(ctx context.Context, rec *historydomain.SwapRecord) (*historydomain.SwapRecord, error) {
	rec.ID = uint(len(m.records) + 1)
	m.records = append(m.records, *rec)
	return rec, nil
}

func (m *mockHistory) GetRecordByID(ctx context.Context, id uint) (*historydomain.SwapRecord, error) {
	for i := range m.records {
		if m.records[i].ID == id {
			return &m.records[i], nil
		}
	}
	return nil, nil
}

func (m *mockHistory) GetRecordsByAccount(ctx context.Context, account string, limit int) ([]historydomain.SwapRecord, error) {
	return m.records, nil
}

func testRequest() swapdomain.SwapRequest {
	return swapdomain.SwapRequest{
		FromToken:   "USDC",
		ToToken:     "EURC",
		Amount:      decimal.NewFromInt(100),
		FromNetwork: "base",
		Account:     "0xabc",
		Slippage:    decimal.NewFromFloat(0.02),
	}
}

func testEstimate() *swapdomain.SwapEstimate {
	return &swapdomain.SwapEstimate{
		Strategy:  "amm",
		AmountOut: decimal.NewFromInt(99),
		Spender:   "0x4444444444444444444444444444444444444444",
	}
}

type fixture struct {
	ctrl      *Controller
	orch      *mockOrchestrator
	approver  *recordingApprover
	refresher *mockRefresher
	history   *mockHistory
}

type recordingApprover struct {
	calls int32
	err   error
}

func (a *recordingApprover) Ensure(ctx context.Context, network string, token, spender common.Address, required *big.Int) error {
	atomic.AddInt32(&a.calls, 1)
	return a.err
}

func newFixture(orch *mockOrchestrator) *fixture {
	f := &fixture{
		orch:      orch,
		approver:  &recordingApprover{},
		refresher: &mockRefresher{},
		history:   &mockHistory{},
	}
	f.ctrl = NewController(
		orch,
		f.approver,
		f.refresher,
		f.history,
		catalog.Default(),
		NewMemoryStore(),
		RefreshPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		logger.New("test"),
	)
	return f
}

func TestExecuteHappyPathWalksTheMachine(t *testing.T) {
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		result:   &swapdomain.SwapResult{Strategy: "amm", TxHash: "0xdone", AmountOut: decimal.NewFromInt(99), Attempts: 1},
	}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	updates, cancel := f.ctrl.Subscribe(session.SessionID)
	defer cancel()

	st, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, st.Phase)
	assert.Equal(t, "0xdone", st.TxHash)
	assert.Equal(t, 1, st.Attempts)

	phases := []domain.Phase{}
	for len(updates) > 0 {
		phases = append(phases, (<-updates).Phase)
	}
	assert.Equal(t, []domain.Phase{domain.PhaseApproving, domain.PhaseSwapping, domain.PhaseCompleted}, phases)

	assert.Equal(t, int32(1), atomic.LoadInt32(&f.approver.calls))
	require.Len(t, f.history.records, 1)
	assert.Equal(t, historydomain.SwapCompleted, f.history.records[0].Status)

	f.ctrl.WaitRefreshes()
	assert.GreaterOrEqual(t, atomic.LoadInt32(&f.refresher.calls), int32(1))
}

func TestExecuteComputesInflationDelta(t *testing.T) {
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		result:   &swapdomain.SwapResult{Strategy: "amm", TxHash: "0xdone"},
	}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	st, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())

	require.NoError(t, err)
	// USD 3.1% -> EUR 2.4%: moving into the harder asset.
	assert.True(t, st.InflationDelta.Equal(decimal.NewFromFloat(0.007)),
		"got %s", st.InflationDelta)
}

func TestExecuteSingleFlightGuard(t *testing.T) {
	gate := make(chan struct{})
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		result:   &swapdomain.SwapResult{Strategy: "amm", TxHash: "0xdone"},
		execGate: gate,
	}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.ctrl.Execute(context.Background(), session.SessionID, testRequest())
	}()

	require.Eventually(t, func() bool {
		st, _ := f.ctrl.State(session.SessionID)
		return st.Phase == domain.PhaseSwapping
	}, time.Second, time.Millisecond)

	st, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, swapdomain.ErrSwapInProgress)
	assert.Equal(t, domain.PhaseSwapping, st.Phase, "the in-flight state is left untouched")
	assert.Equal(t, int32(1), atomic.LoadInt32(&orch.execCalls))

	close(gate)
	<-done
}

func TestExecuteFailureEndsInError(t *testing.T) {
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		execErr:  fmt.Errorf("%w: declined", swapdomain.ErrSwapRejected),
	}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	st, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, swapdomain.ErrSwapRejected)
	assert.Equal(t, domain.PhaseError, st.Phase)
	assert.Contains(t, st.Error, "declined in the wallet")

	require.Len(t, f.history.records, 1)
	assert.Equal(t, historydomain.SwapFailed, f.history.records[0].Status)

	f.ctrl.WaitRefreshes()
	assert.Zero(t, atomic.LoadInt32(&f.refresher.calls), "no refresh after a failed swap")
}

func TestExecutePartialCompositeRecordedAsPartial(t *testing.T) {
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		result:   &swapdomain.SwapResult{Strategy: "bridge+swap:lifi", BridgeTxHash: "0xleg1"},
		execErr:  errors.New("local swap leg after bridge 0xleg1: quote backend down"),
	}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	st, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())

	require.Error(t, err)
	assert.Equal(t, domain.PhaseError, st.Phase)
	assert.Equal(t, "0xleg1", st.BridgeTxHash, "the UI must learn that funds moved")

	require.Len(t, f.history.records, 1)
	assert.Equal(t, historydomain.SwapPartial, f.history.records[0].Status)
}

func TestExecuteSkipsApprovalWithoutSpender(t *testing.T) {
	est := testEstimate()
	est.Spender = ""
	orch := &mockOrchestrator{
		estimate: est,
		result:   &swapdomain.SwapResult{Strategy: "amm", TxHash: "0xdone"},
	}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	updates, cancel := f.ctrl.Subscribe(session.SessionID)
	defer cancel()

	st, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, st.Phase)
	assert.Zero(t, atomic.LoadInt32(&f.approver.calls))

	// The state still visibly passes through approving.
	first := <-updates
	assert.Equal(t, domain.PhaseApproving, first.Phase)
}

func TestExecuteApprovalRejectionStopsFlow(t *testing.T) {
	orch := &mockOrchestrator{estimate: testEstimate()}
	f := newFixture(orch)
	f.approver.err = fmt.Errorf("%w: declined", swapdomain.ErrApprovalRejected)
	session := f.ctrl.NewSession()

	st, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())

	require.Error(t, err)
	assert.ErrorIs(t, err, swapdomain.ErrApprovalRejected)
	assert.Equal(t, domain.PhaseError, st.Phase)
	assert.Zero(t, atomic.LoadInt32(&orch.execCalls), "no swap may run after a declined approval")
}

func TestResetReturnsSessionToIdle(t *testing.T) {
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		result:   &swapdomain.SwapResult{Strategy: "amm", TxHash: "0xdone"},
	}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	_, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())
	require.NoError(t, err)

	st, err := f.ctrl.Reset(session.SessionID)

	require.NoError(t, err)
	assert.Equal(t, domain.PhaseIdle, st.Phase)
	assert.Nil(t, st.Estimate)
	assert.Empty(t, st.TxHash)
}

func TestExecuteAfterCompletionStartsOver(t *testing.T) {
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		result:   &swapdomain.SwapResult{Strategy: "amm", TxHash: "0xdone"},
	}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	_, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())
	require.NoError(t, err)

	st, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())

	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, st.Phase)
	assert.Equal(t, int32(2), atomic.LoadInt32(&orch.execCalls))
}

func TestRefreshRetriesUpToPolicyLimit(t *testing.T) {
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		result:   &swapdomain.SwapResult{Strategy: "amm", TxHash: "0xdone"},
	}
	f := newFixture(orch)
	f.refresher.failures = 99 // never succeeds
	session := f.ctrl.NewSession()

	_, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())
	require.NoError(t, err, "refresh failures are never surfaced")

	f.ctrl.WaitRefreshes()
	assert.Equal(t, int32(3), atomic.LoadInt32(&f.refresher.calls))
}

func TestRefreshStopsAfterFirstSuccess(t *testing.T) {
	orch := &mockOrchestrator{
		estimate: testEstimate(),
		result:   &swapdomain.SwapResult{Strategy: "amm", TxHash: "0xdone"},
	}
	f := newFixture(orch)
	f.refresher.failures = 1
	session := f.ctrl.NewSession()

	_, err := f.ctrl.Execute(context.Background(), session.SessionID, testRequest())
	require.NoError(t, err)

	f.ctrl.WaitRefreshes()
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.refresher.calls))
}

func TestLinearBackOffSchedule(t *testing.T) {
	policy := RefreshPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second}
	bo := policy.NewBackOff()

	assert.Equal(t, 2*time.Second, bo.NextBackOff())
	assert.Equal(t, 4*time.Second, bo.NextBackOff())
	assert.Equal(t, 6*time.Second, bo.NextBackOff())
	assert.Equal(t, backoff.Stop, bo.NextBackOff(), "the fourth attempt is beyond the policy")

	bo.Reset()
	assert.Equal(t, 2*time.Second, bo.NextBackOff())
}

func TestEstimateAnnotatesIdleSessionOnly(t *testing.T) {
	orch := &mockOrchestrator{estimate: testEstimate()}
	f := newFixture(orch)
	session := f.ctrl.NewSession()

	est, delta, err := f.ctrl.Estimate(context.Background(), session.SessionID, testRequest())

	require.NoError(t, err)
	assert.Equal(t, "amm", est.Strategy)
	assert.True(t, delta.Equal(decimal.NewFromFloat(0.007)))

	st, ok := f.ctrl.State(session.SessionID)
	require.True(t, ok)
	assert.Equal(t, domain.PhaseIdle, st.Phase, "estimation never moves the machine")
	require.NotNil(t, st.Estimate)
	assert.Equal(t, "amm", st.Estimate.Strategy)
}
