package balance

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spreadfi/spread/src/catalog"
	"github.com/spreadfi/spread/src/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	balances map[common.Address]*big.Int
	err      error
}

func (m *mockReader) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if m.err != nil {
		return nil, m.err
	}
	if b, ok := m.balances[token]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func TestRefreshReadsEveryCatalogToken(t *testing.T) {
	cat := catalog.Default()
	usdc, err := cat.Token("base", "USDC")
	require.NoError(t, err)

	reader := &mockReader{balances: map[common.Address]*big.Int{
		common.HexToAddress(usdc.Address): big.NewInt(250_000_000), // 250 USDC
	}}
	svc := NewService(map[string]ChainReader{"base": reader}, cat, logger.New("test"))

	holdings, err := svc.Refresh(context.Background(), "0xabc")

	require.NoError(t, err)
	require.Len(t, holdings, len(cat.Tokens("base")))

	var usdcHolding *Holding
	for i := range holdings {
		if holdings[i].Symbol == "USDC" {
			usdcHolding = &holdings[i]
		}
	}
	require.NotNil(t, usdcHolding)
	assert.True(t, usdcHolding.Amount.Equal(decimal.NewFromInt(250)))
}

func TestRefreshFansOutAcrossNetworks(t *testing.T) {
	cat := catalog.Default()
	usdcBase, err := cat.Token("base", "USDC")
	require.NoError(t, err)
	brzPolygon, err := cat.Token("polygon", "BRZ")
	require.NoError(t, err)

	svc := NewService(map[string]ChainReader{
		"base": &mockReader{balances: map[common.Address]*big.Int{
			common.HexToAddress(usdcBase.Address): big.NewInt(250_000_000),
		}},
		"polygon": &mockReader{balances: map[common.Address]*big.Int{
			common.HexToAddress(brzPolygon.Address): big.NewInt(5_000_000),
		}},
	}, cat, logger.New("test"))

	holdings, err := svc.Refresh(context.Background(), "0xabc")

	require.NoError(t, err)
	require.Len(t, holdings, len(cat.Tokens("base"))+len(cat.Tokens("polygon")))

	got := map[string]decimal.Decimal{}
	for _, h := range holdings {
		got[h.Network+"/"+h.Symbol] = h.Amount
	}
	assert.True(t, got["base/USDC"].Equal(decimal.NewFromInt(250)))
	assert.True(t, got["polygon/BRZ"].Equal(decimal.NewFromInt(500)))

	// Output is deterministically ordered regardless of which network
	// finished first.
	assert.Equal(t, "base", holdings[0].Network)
}

func TestRefreshFailsWholeOnAnyReadError(t *testing.T) {
	reader := &mockReader{err: errors.New("rpc down")}
	svc := NewService(map[string]ChainReader{"base": reader}, catalog.Default(), logger.New("test"))

	_, err := svc.Refresh(context.Background(), "0xabc")

	assert.Error(t, err, "callers must never act on a partial picture")
}

func TestHoldingSingleLookup(t *testing.T) {
	cat := catalog.Default()
	brz, err := cat.Token("polygon", "BRZ")
	require.NoError(t, err)

	reader := &mockReader{balances: map[common.Address]*big.Int{
		common.HexToAddress(brz.Address): big.NewInt(5_000_000), // 500 BRZ at 4 decimals
	}}
	svc := NewService(map[string]ChainReader{"polygon": reader}, cat, logger.New("test"))

	h, err := svc.Holding(context.Background(), "polygon", "BRZ", "0xabc")

	require.NoError(t, err)
	assert.True(t, h.Amount.Equal(decimal.NewFromInt(500)))

	_, err = svc.Holding(context.Background(), "base", "USDC", "0xabc")
	assert.Error(t, err, "no client configured for the network")
}
