package strategies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spreadfi/spread/src/Infrastructure/ethereum"
	"github.com/spreadfi/spread/src/Infrastructure/lifi"
	"github.com/spreadfi/spread/src/catalog"
	"github.com/spreadfi/spread/src/swap/domain"
)

// AggregatorQuoter is the slice of the LI.FI client this strategy needs for
// same-chain quotes.
type AggregatorQuoter interface {
	GetQuote(ctx context.Context, req lifi.QuoteRequest) (*lifi.Step, error)
}

// Aggregator routes same-chain conversions through the DEX aggregator,
// which reaches pools the fixed AMM router does not.
type Aggregator struct {
	client  AggregatorQuoter
	chains  map[string]*ethereum.Client
	catalog *catalog.Catalog
}

func NewAggregator(client AggregatorQuoter, chains map[string]*ethereum.Client, cat *catalog.Catalog) *Aggregator {
	return &Aggregator{client: client, chains: chains, catalog: cat}
}

func (g *Aggregator) ID() string { return "lifi" }

func (g *Aggregator) Quote(ctx context.Context, req domain.SwapRequest) (*domain.Quote, error) {
	fromToken, err := g.catalog.Token(req.FromNetwork, req.FromToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoRouteFound, err)
	}
	toToken, err := g.catalog.Token(req.FromNetwork, req.ToToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNoRouteFound, err)
	}
	chainID := g.catalog.ChainID(req.FromNetwork)

	step, err := g.client.GetQuote(ctx, lifi.QuoteRequest{
		FromChainID: chainID,
		ToChainID:   chainID,
		FromToken:   fromToken.Address,
		ToToken:     toToken.Address,
		FromAmount:  ethereum.ToBaseUnits(req.Amount, fromToken.Decimals).String(),
		FromAddress: req.Account,
		Slippage:    req.Slippage.InexactFloat64(),
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no quote") ||
			strings.Contains(strings.ToLower(err.Error()), "not found") {
			return nil, fmt.Errorf("%w: %v", domain.ErrNoRouteFound, err)
		}
		return nil, err
	}

	routeData, err := json.Marshal(step)
	if err != nil {
		return nil, err
	}
	amountOut := ethereum.FromBaseUnits(mustBig(step.Estimate.ToAmount), toToken.Decimals)
	return &domain.Quote{
		Strategy:  g.ID(),
		AmountOut: amountOut,
		Spender:   step.Estimate.ApprovalAddress,
		RouteData: routeData,
	}, nil
}

func (g *Aggregator) Execute(ctx context.Context, req domain.SwapRequest, q *domain.Quote) (*domain.SwapResult, error) {
	chain, ok := g.chains[req.FromNetwork]
	if !ok {
		return nil, fmt.Errorf("no client for network %s", req.FromNetwork)
	}
	var step lifi.Step
	if err := json.Unmarshal(q.RouteData, &step); err != nil {
		return nil, fmt.Errorf("decode aggregator route: %w", err)
	}
	if step.TransactionRequest == nil {
		return nil, errors.New("aggregator route carries no transaction request")
	}

	data, err := hexutil.Decode(step.TransactionRequest.Data)
	if err != nil {
		return nil, fmt.Errorf("decode calldata: %w", err)
	}
	value := big.NewInt(0)
	if v := step.TransactionRequest.Value; v != "" && v != "0x" {
		if strings.HasPrefix(v, "0x") {
			value, err = hexutil.DecodeBig(v)
		} else {
			_, ok := value.SetString(v, 10)
			if !ok {
				err = fmt.Errorf("invalid tx value %q", v)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	txHash, err := chain.SendCalldata(ctx, common.HexToAddress(step.TransactionRequest.To), data, value)
	if err != nil {
		if isSignerRejection(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrSwapRejected, err)
		}
		return nil, err
	}
	return &domain.SwapResult{
		Strategy:  g.ID(),
		TxHash:    txHash,
		AmountOut: q.AmountOut,
	}, nil
}

func mustBig(v string) *big.Int {
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return big.NewInt(0)
	}
	return n
}

// isSignerRejection mirrors the approval service's heuristic: wallets report
// a declined prompt as an error string, not a structured code.
func isSignerRejection(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "user rejected") ||
		strings.Contains(msg, "user denied") ||
		strings.Contains(msg, "request rejected")
}
