// Package balance reads token holdings across every configured network so
// the rest of the app can show a portfolio without talking to chains itself.
package balance

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/Infrastructure/ethereum"
	"github.com/spreadfi/spread/src/catalog"
	"github.com/spreadfi/spread/src/logger"
	"golang.org/x/sync/errgroup"
)

// ChainReader is the read-only slice of the chain client this service uses.
type ChainReader interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
}

// Holding is one token position on one network.
type Holding struct {
	Network string          `json:"network"`
	Symbol  string          `json:"symbol"`
	Amount  decimal.Decimal `json:"amount"`
}

type Service struct {
	chains  map[string]ChainReader
	catalog *catalog.Catalog
	logger  *logger.Logger
}

func NewService(chains map[string]ChainReader, cat *catalog.Catalog, logg *logger.Logger) *Service {
	return &Service{chains: chains, catalog: cat, logger: logg}
}

// Refresh reads the account's balance for every catalog token on every
// network with a configured client, fanning the reads out per network. A
// single failed read fails the whole refresh so callers never act on a
// partial picture.
func (s *Service) Refresh(ctx context.Context, account string) ([]Holding, error) {
	owner := common.HexToAddress(account)

	// The slice is sized up front so goroutines only ever write their own
	// slot, never the slice header.
	g, gctx := errgroup.WithContext(ctx)
	holdings := make([][]Holding, len(s.chains))

	next := 0
	for network, chain := range s.chains {
		tokens := s.catalog.Tokens(network)
		if len(tokens) == 0 {
			continue
		}
		slot := next
		next++
		g.Go(func() error {
			got := make([]Holding, 0, len(tokens))
			for _, tok := range tokens {
				raw, err := chain.BalanceOf(gctx, common.HexToAddress(tok.Address), owner)
				if err != nil {
					return fmt.Errorf("balance of %s on %s: %w", tok.Symbol, network, err)
				}
				got = append(got, Holding{Network: network, Symbol: tok.Symbol, Amount: ethereum.FromBaseUnits(raw, tok.Decimals)})
			}
			holdings[slot] = got
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Holding, 0)
	for _, hs := range holdings {
		out = append(out, hs...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Network != out[j].Network {
			return out[i].Network < out[j].Network
		}
		return out[i].Symbol < out[j].Symbol
	})
	s.logger.Debugf("refreshed %d holdings for %s", len(out), account)
	return out, nil
}

// Holding returns a single position, for targeted post-swap checks.
func (s *Service) Holding(ctx context.Context, network, symbol, account string) (*Holding, error) {
	chain, ok := s.chains[network]
	if !ok {
		return nil, fmt.Errorf("no chain client for network %q", network)
	}
	tok, err := s.catalog.Token(network, symbol)
	if err != nil {
		return nil, err
	}
	raw, err := chain.BalanceOf(ctx, common.HexToAddress(tok.Address), common.HexToAddress(account))
	if err != nil {
		return nil, err
	}
	return &Holding{Network: network, Symbol: symbol, Amount: ethereum.FromBaseUnits(raw, tok.Decimals)}, nil
}
