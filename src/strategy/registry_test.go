package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRankOrdersByScoreDescending(t *testing.T) {
	r := NewRegistry(map[string][]Entry{
		"base": {
			{ID: "slow", Score: 10},
			{ID: "fast", Score: 90},
			{ID: "mid", Score: 50},
		},
	}, nil)

	assert.Equal(t, []string{"fast", "mid", "slow"}, r.Rank("base", "USDC"))
}

func TestRankKeepsDeclarationOrderOnTies(t *testing.T) {
	r := NewRegistry(map[string][]Entry{
		"base": {
			{ID: "first", Score: 50},
			{ID: "second", Score: 50},
			{ID: "third", Score: 50},
		},
	}, nil)

	assert.Equal(t, []string{"first", "second", "third"}, r.Rank("base", ""))
}

func TestRankAppliesAssetOverrides(t *testing.T) {
	r := NewRegistry(
		map[string][]Entry{
			"polygon": {
				{ID: "amm", Score: 100},
				{ID: "lifi", Score: 80},
			},
		},
		map[string]Overrides{
			"polygon": {
				"BRZ": {"lifi": 30},
			},
		},
	)

	// +30 pushes the aggregator ahead of the AMM for BRZ only.
	assert.Equal(t, []string{"lifi", "amm"}, r.Rank("polygon", "BRZ"))
	assert.Equal(t, []string{"amm", "lifi"}, r.Rank("polygon", "USDC"))
}

func TestRankOverridesNeverIntroduceStrategies(t *testing.T) {
	r := NewRegistry(
		map[string][]Entry{
			"base": {{ID: "amm", Score: 100}},
		},
		map[string]Overrides{
			"base": {
				"EURC": {"ghost": 500},
			},
		},
	)

	assert.Equal(t, []string{"amm"}, r.Rank("base", "EURC"))
}

func TestRankUnknownNetworkIsEmpty(t *testing.T) {
	r := Default()

	assert.Nil(t, r.Rank("arbitrum", "USDC"))
}

func TestRankDoesNotMutateBaseTable(t *testing.T) {
	r := NewRegistry(
		map[string][]Entry{
			"base": {
				{ID: "amm", Score: 100},
				{ID: "lifi", Score: 80},
			},
		},
		map[string]Overrides{
			"base": {"BRZ": {"lifi": 30}},
		},
	)

	assert.Equal(t, []string{"lifi", "amm"}, r.Rank("base", "BRZ"))
	// The override must not have leaked into later rankings.
	assert.Equal(t, []string{"amm", "lifi"}, r.Rank("base", "USDC"))
}
