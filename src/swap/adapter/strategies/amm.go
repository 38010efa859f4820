// Package strategies contains the same-chain execution backends the
// orchestrator ranks and falls back across.
package strategies

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/Infrastructure/ethereum"
	"github.com/spreadfi/spread/src/catalog"
	"github.com/spreadfi/spread/src/swap/domain"
)

// AMM swaps through a UniswapV2-style router deployed on each network.
type AMM struct {
	chains  map[string]*ethereum.Client
	catalog *catalog.Catalog
}

func NewAMM(chains map[string]*ethereum.Client, cat *catalog.Catalog) *AMM {
	return &AMM{chains: chains, catalog: cat}
}

func (a *AMM) ID() string { return "amm" }

type ammRoute struct {
	Path     []string `json:"path"`
	AmountIn string   `json:"amount_in"`
}

func (a *AMM) Quote(ctx context.Context, req domain.SwapRequest) (*domain.Quote, error) {
	chain, ok := a.chains[req.FromNetwork]
	if !ok {
		return nil, fmt.Errorf("%w: no client for network %s", domain.ErrNoRouteFound, req.FromNetwork)
	}
	fromToken, err := a.catalog.Token(req.FromNetwork, req.FromToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoRouteFound, err)
	}
	toToken, err := a.catalog.Token(req.FromNetwork, req.ToToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoRouteFound, err)
	}

	amountIn := ethereum.ToBaseUnits(req.Amount, fromToken.Decimals)
	path := []common.Address{common.HexToAddress(fromToken.Address), common.HexToAddress(toToken.Address)}

	out, err := chain.AmountsOut(ctx, amountIn, path)
	if err != nil {
		// Router misses (no pool, no liquidity) are declines, not defects.
		return nil, fmt.Errorf("%w: %v", domain.ErrNoRouteFound, err)
	}
	if out.Sign() == 0 {
		return nil, fmt.Errorf("%w: empty pool for %s/%s", domain.ErrNoRouteFound, req.FromToken, req.ToToken)
	}

	impact := a.priceImpact(ctx, chain, amountIn, out, path)

	routeData, err := json.Marshal(ammRoute{
		Path:     []string{fromToken.Address, toToken.Address},
		AmountIn: amountIn.String(),
	})
	if err != nil {
		return nil, err
	}
	return &domain.Quote{
		Strategy:    a.ID(),
		AmountOut:   ethereum.FromBaseUnits(out, toToken.Decimals),
		PriceImpact: impact,
		Spender:     chain.RouterAddress().Hex(),
		RouteData:   routeData,
	}, nil
}

// priceImpact compares the requested size against a 1% probe of the same
// path. A failed probe yields zero impact rather than failing the quote.
func (a *AMM) priceImpact(ctx context.Context, chain *ethereum.Client, amountIn, amountOut *big.Int, path []common.Address) decimal.Decimal {
	probeIn := new(big.Int).Div(amountIn, big.NewInt(100))
	if probeIn.Sign() == 0 {
		return decimal.Zero
	}
	probeOut, err := chain.AmountsOut(ctx, probeIn, path)
	if err != nil || probeOut.Sign() == 0 {
		return decimal.Zero
	}
	fullRate := decimal.NewFromBigInt(amountOut, 0).Div(decimal.NewFromBigInt(amountIn, 0))
	probeRate := decimal.NewFromBigInt(probeOut, 0).Div(decimal.NewFromBigInt(probeIn, 0))
	if probeRate.IsZero() {
		return decimal.Zero
	}
	impact := decimal.NewFromInt(1).Sub(fullRate.Div(probeRate))
	if impact.IsNegative() {
		return decimal.Zero
	}
	return impact
}

func (a *AMM) Execute(ctx context.Context, req domain.SwapRequest, q *domain.Quote) (*domain.SwapResult, error) {
	chain, ok := a.chains[req.FromNetwork]
	if !ok {
		return nil, fmt.Errorf("no client for network %s", req.FromNetwork)
	}
	var route ammRoute
	if err := json.Unmarshal(q.RouteData, &route); err != nil {
		return nil, fmt.Errorf("decode amm route: %w", err)
	}
	amountIn, ok2 := new(big.Int).SetString(route.AmountIn, 10)
	if !ok2 {
		return nil, fmt.Errorf("invalid amm route amount %q", route.AmountIn)
	}

	toToken, err := a.catalog.Token(req.FromNetwork, req.ToToken)
	if err != nil {
		return nil, err
	}
	minOut := ethereum.ToBaseUnits(q.AmountOut.Mul(decimal.NewFromInt(1).Sub(req.Slippage)), toToken.Decimals)

	path := make([]common.Address, len(route.Path))
	for i, p := range route.Path {
		path[i] = common.HexToAddress(p)
	}
	deadline := big.NewInt(time.Now().Add(10 * time.Minute).Unix())

	txHash, err := chain.SwapExactTokens(ctx, amountIn, minOut, path, deadline)
	if err != nil {
		if isSignerRejection(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSwapRejected, err)
		}
		return nil, err
	}
	return &domain.SwapResult{
		Strategy:  a.ID(),
		TxHash:    txHash,
		AmountOut: q.AmountOut,
	}, nil
}
