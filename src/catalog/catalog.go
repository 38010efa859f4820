// Package catalog holds the static token/network tables the swap core reads:
// per-network asset symbols, on-chain addresses, decimal precision and the
// annual inflation rate used for the diversification score display.
package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Token struct {
	Symbol    string
	Address   string
	Decimals  int
	Inflation decimal.Decimal // annual rate of the fiat the asset tracks, fractional
}

type Network struct {
	Name    string
	ChainID int64
	Tokens  []Token
}

type Catalog struct {
	networks map[string]Network
}

func New(networks []Network) *Catalog {
	m := make(map[string]Network, len(networks))
	for _, n := range networks {
		m[n.Name] = n
	}
	return &Catalog{networks: m}
}

// Default returns the built-in catalog. Addresses are mainnet deployments of
// the stablecoins the diversification flows actually trade.
func Default() *Catalog {
	return New([]Network{
		{
			Name:    "base",
			ChainID: 8453,
			Tokens: []Token{
				{Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6, Inflation: decimal.NewFromFloat(0.031)},
				{Symbol: "EURC", Address: "0x60a3E35Cc302bFA44Cb288Bc5a4F316Fdb1adb42", Decimals: 6, Inflation: decimal.NewFromFloat(0.024)},
				{Symbol: "BRZ", Address: "0xE9185Ee218cae427aF7B9764A011bb89FeA761B4", Decimals: 18, Inflation: decimal.NewFromFloat(0.045)},
				{Symbol: "CADC", Address: "0x043eB4B75d0805c43D7C834902E335621983Cf03", Decimals: 18, Inflation: decimal.NewFromFloat(0.029)},
			},
		},
		{
			Name:    "polygon",
			ChainID: 137,
			Tokens: []Token{
				{Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6, Inflation: decimal.NewFromFloat(0.031)},
				{Symbol: "EURC", Address: "0x2F39D4F4cD7d0E44F09cBcd0B2a18f0A1c74E7C8", Decimals: 6, Inflation: decimal.NewFromFloat(0.024)},
				{Symbol: "BRZ", Address: "0x4eD141110F6EeeAbA9A1df36d8c26f684d2475Dc", Decimals: 4, Inflation: decimal.NewFromFloat(0.045)},
			},
		},
	})
}

// Token resolves a symbol on a network.
func (c *Catalog) Token(network, symbol string) (Token, error) {
	n, ok := c.networks[network]
	if !ok {
		return Token{}, fmt.Errorf("network %q not in catalog", network)
	}
	for _, t := range n.Tokens {
		if t.Symbol == symbol {
			return t, nil
		}
	}
	return Token{}, fmt.Errorf("token %q not in catalog for network %q", symbol, network)
}

// Tokens lists the swappable assets on a network.
func (c *Catalog) Tokens(network string) []Token {
	return c.networks[network].Tokens
}

// ChainID returns the numeric chain id of a network, 0 when unknown.
func (c *Catalog) ChainID(network string) int64 {
	return c.networks[network].ChainID
}

// InflationDelta is (source inflation - destination inflation): positive
// means the user is moving into a harder asset. Unknown tokens yield zero.
func (c *Catalog) InflationDelta(network, fromSymbol, toNetwork, toSymbol string) decimal.Decimal {
	from, err := c.Token(network, fromSymbol)
	if err != nil {
		return decimal.Zero
	}
	to, err := c.Token(toNetwork, toSymbol)
	if err != nil {
		return decimal.Zero
	}
	return from.Inflation.Sub(to.Inflation)
}
