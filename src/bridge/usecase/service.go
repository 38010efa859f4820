package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/Infrastructure/cctp"
	"github.com/spreadfi/spread/src/Infrastructure/ethereum"
	"github.com/spreadfi/spread/src/Infrastructure/lifi"
	"github.com/spreadfi/spread/src/bridge/domain"
	"github.com/spreadfi/spread/src/catalog"
	"github.com/spreadfi/spread/src/logger"
	swapdomain "github.com/spreadfi/spread/src/swap/domain"
)

// intermediateSymbol is the universally-bridgeable asset used by the
// bridge-then-swap composite when the desired destination token is not
// directly reachable.
const intermediateSymbol = "USDC"

// Aggregator is the slice of the LI.FI client the service uses.
type Aggregator interface {
	GetRoutes(ctx context.Context, req lifi.RoutesRequest) ([]lifi.Route, error)
	GetQuote(ctx context.Context, req lifi.QuoteRequest) (*lifi.Step, error)
	GetStatus(ctx context.Context, tool string, fromChainID, toChainID int64, txHash string) (*lifi.StatusResponse, error)
}

// NativeBridge is the attestation-based bridge surface (stubbed today).
type NativeBridge interface {
	GetRoute(ctx context.Context, fromChainID, toChainID int64, tokenSymbol string, amount decimal.Decimal) (*cctp.Route, error)
	Burn(ctx context.Context, route *cctp.Route) (string, error)
}

// Submitter signs and submits aggregator-built calldata on one network.
type Submitter interface {
	SendCalldata(ctx context.Context, to common.Address, data []byte, value *big.Int) (string, error)
	WalletAddress() common.Address
}

type Service struct {
	aggregator    Aggregator
	native        NativeBridge
	chains        map[string]Submitter
	catalog       *catalog.Catalog
	routeTimeout  time.Duration
	deliveryWait  time.Duration
	logger        *logger.Logger
}

func NewService(aggregator Aggregator, native NativeBridge, chains map[string]Submitter, cat *catalog.Catalog, routeTimeout, deliveryWait time.Duration, logg *logger.Logger) *Service {
	return &Service{
		aggregator:   aggregator,
		native:       native,
		chains:       chains,
		catalog:      cat,
		routeTimeout: routeTimeout,
		deliveryWait: deliveryWait,
		logger:       logg,
	}
}

// GetBestRoute resolves the cheapest route for a cross-chain request.
// preferredProvider may name a provider to try first; its failure falls
// through to the aggregator. Zero candidates map to ErrNoRouteFound.
func (s *Service) GetBestRoute(ctx context.Context, req swapdomain.SwapRequest, preferredProvider string) (*domain.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, s.routeTimeout)
	defer cancel()

	fromToken, err := s.catalog.Token(req.FromNetwork, req.FromToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swapdomain.ErrUnsupportedPair, err)
	}
	toToken, err := s.catalog.Token(req.ToNetwork, req.ToToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swapdomain.ErrUnsupportedPair, err)
	}
	fromChainID := s.catalog.ChainID(req.FromNetwork)
	toChainID := s.catalog.ChainID(req.ToNetwork)

	if preferredProvider == domain.ProviderCCTP {
		nativeRoute, err := s.native.GetRoute(ctx, fromChainID, toChainID, req.FromToken, req.Amount)
		if err == nil {
			return s.tagNativeRoute(nativeRoute)
		}
		if errors.Is(err, cctp.ErrNotImplemented) {
			// Expected until the native integration lands; fall through
			// to the aggregator like any other no-route outcome.
			s.logger.Warnf("native bridge unavailable: %v", err)
		} else {
			s.logger.Errorf("native bridge route failed: %v", err)
		}
	}

	routes, err := s.aggregator.GetRoutes(ctx, lifi.RoutesRequest{
		FromChainID:      fromChainID,
		ToChainID:        toChainID,
		FromTokenAddress: fromToken.Address,
		ToTokenAddress:   toToken.Address,
		FromAmount:       ethereum.ToBaseUnits(req.Amount, fromToken.Decimals).String(),
		FromAddress:      req.Account,
		Options:          &lifi.RouteOptions{Order: "CHEAPEST", Slippage: req.Slippage.InexactFloat64()},
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: %v", swapdomain.ErrRouteTimeout, err)
		}
		return nil, err
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: %s/%s -> %s/%s", swapdomain.ErrNoRouteFound,
			req.FromNetwork, req.FromToken, req.ToNetwork, req.ToToken)
	}

	best := routes[0]
	data, err := json.Marshal(best)
	if err != nil {
		return nil, fmt.Errorf("encode route: %w", err)
	}
	steps := make([]domain.Step, len(best.Steps))
	for i, st := range best.Steps {
		steps[i] = domain.Step{ChainID: st.Action.FromChainID, Type: st.Type, Tool: st.Tool}
	}
	return &domain.Route{
		Provider:        domain.ProviderLiFi,
		ID:              best.ID,
		Tool:            best.Steps[0].Tool,
		FromChainID:     best.FromChainID,
		ToChainID:       best.ToChainID,
		AmountOut:       ethereum.FromBaseUnits(mustBig(best.ToAmount), toToken.Decimals),
		AmountOutMin:    ethereum.FromBaseUnits(mustBig(best.ToAmountMin), toToken.Decimals),
		ApprovalAddress: best.Steps[0].Estimate.ApprovalAddress,
		Steps:           steps,
		Data:            data,
	}, nil
}

// tagNativeRoute wraps a native burn/mint path in the tagged route form so
// it flows through the same execution surface as aggregator routes.
func (s *Service) tagNativeRoute(nr *cctp.Route) (*domain.Route, error) {
	data, err := json.Marshal(nr)
	if err != nil {
		return nil, fmt.Errorf("encode route: %w", err)
	}
	return &domain.Route{
		Provider:     domain.ProviderCCTP,
		ID:           fmt.Sprintf("cctp-%d-%d", nr.FromChainID, nr.ToChainID),
		Tool:         "cctp",
		FromChainID:  nr.FromChainID,
		ToChainID:    nr.ToChainID,
		AmountOut:    nr.Amount,
		AmountOutMin: nr.Amount,
		Steps:        []domain.Step{{ChainID: nr.FromChainID, Type: "bridge", Tool: "cctp"}},
		Data:         data,
	}, nil
}

// BridgeToDestination executes the resolved route's source-chain leg and
// returns its transaction hash. Destination delivery is the aggregator's
// asynchronous responsibility; this call does not wait for it.
func (s *Service) BridgeToDestination(ctx context.Context, req swapdomain.SwapRequest, preferredProvider string) (*swapdomain.SwapResult, *domain.Route, error) {
	route, err := s.GetBestRoute(ctx, req, preferredProvider)
	if err != nil {
		return nil, nil, err
	}

	if route.Provider == domain.ProviderCCTP {
		var nr cctp.Route
		if err := route.Decode(domain.ProviderCCTP, &nr); err != nil {
			return nil, nil, err
		}
		txHash, err := s.native.Burn(ctx, &nr)
		if err != nil {
			return nil, nil, err
		}
		return &swapdomain.SwapResult{
			Strategy:     "bridge:" + route.Provider,
			TxHash:       txHash,
			BridgeTxHash: txHash,
			AmountOut:    route.AmountOut,
		}, route, nil
	}

	var raw lifi.Route
	if err := route.Decode(domain.ProviderLiFi, &raw); err != nil {
		return nil, nil, err
	}

	step := raw.Steps[0]
	txReq := step.TransactionRequest
	if txReq == nil {
		// advanced/routes omits calldata; a quote for the same leg carries it.
		quoted, err := s.aggregator.GetQuote(ctx, lifi.QuoteRequest{
			FromChainID: step.Action.FromChainID,
			ToChainID:   step.Action.ToChainID,
			FromToken:   step.Action.FromToken.Address,
			ToToken:     step.Action.ToToken.Address,
			FromAmount:  step.Action.FromAmount,
			FromAddress: req.Account,
			Slippage:    req.Slippage.InexactFloat64(),
		})
		if err != nil {
			return nil, nil, err
		}
		txReq = quoted.TransactionRequest
	}

	txHash, err := s.submit(ctx, req.FromNetwork, txReq)
	if err != nil {
		return nil, nil, err
	}
	s.logger.WithFields(map[string]interface{}{
		"provider": route.Provider,
		"route":    route.ID,
		"tx_hash":  txHash,
	}).Infof("bridge leg submitted")

	return &swapdomain.SwapResult{
		Strategy:     "bridge:" + route.Provider,
		TxHash:       txHash,
		BridgeTxHash: txHash,
		AmountOut:    route.AmountOut,
	}, route, nil
}

// GetSingleChainSwapRoute quotes a same-chain conversion, returning an
// executable step.
func (s *Service) GetSingleChainSwapRoute(ctx context.Context, network, fromSymbol, toSymbol string, amount decimal.Decimal, account string, slippage decimal.Decimal) (*lifi.Step, error) {
	fromToken, err := s.catalog.Token(network, fromSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swapdomain.ErrUnsupportedPair, err)
	}
	toToken, err := s.catalog.Token(network, toSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", swapdomain.ErrUnsupportedPair, err)
	}
	chainID := s.catalog.ChainID(network)

	step, err := s.aggregator.GetQuote(ctx, lifi.QuoteRequest{
		FromChainID: chainID,
		ToChainID:   chainID,
		FromToken:   fromToken.Address,
		ToToken:     toToken.Address,
		FromAmount:  ethereum.ToBaseUnits(amount, fromToken.Decimals).String(),
		FromAddress: account,
		Slippage:    slippage.InexactFloat64(),
	})
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no quote") {
			return nil, fmt.Errorf("%w: %v", swapdomain.ErrNoRouteFound, err)
		}
		return nil, err
	}
	return step, nil
}

// SwapSingleChain executes a previously quoted same-chain step.
func (s *Service) SwapSingleChain(ctx context.Context, network string, step *lifi.Step) (string, error) {
	return s.submit(ctx, network, step.TransactionRequest)
}

func (s *Service) submit(ctx context.Context, network string, txReq *lifi.TransactionRequest) (string, error) {
	chain, ok := s.chains[network]
	if !ok {
		return "", fmt.Errorf("no chain client for network %q", network)
	}
	if txReq == nil {
		return "", errors.New("route step carries no transaction request")
	}
	data, err := hexutil.Decode(txReq.Data)
	if err != nil {
		return "", fmt.Errorf("decode calldata: %w", err)
	}
	value, err := parseValue(txReq.Value)
	if err != nil {
		return "", err
	}
	return chain.SendCalldata(ctx, common.HexToAddress(txReq.To), data, value)
}

func parseValue(v string) (*big.Int, error) {
	if v == "" {
		return big.NewInt(0), nil
	}
	if strings.HasPrefix(v, "0x") {
		return hexutil.DecodeBig(v)
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return nil, fmt.Errorf("invalid tx value %q", v)
	}
	return n, nil
}

func mustBig(v string) *big.Int {
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return big.NewInt(0)
	}
	return n
}
