// Package strategy holds the ranked strategy tables: which execution
// backends can serve a network, their base priority scores and per-asset
// overrides. Tables are plain configuration, read-only after construction.
package strategy

import "sort"

// Entry is one strategy with its base score on a network. Declaration order
// inside a network's table is the tie-break for equal scores.
type Entry struct {
	ID    string
	Score int
}

// Overrides maps asset symbol -> strategy id -> score delta. Overrides only
// adjust strategies already present in the network's base table; they never
// introduce new candidates.
type Overrides map[string]map[string]int

type Registry struct {
	base      map[string][]Entry
	overrides map[string]Overrides
}

func NewRegistry(base map[string][]Entry, overrides map[string]Overrides) *Registry {
	return &Registry{base: base, overrides: overrides}
}

// Default returns the production tables. The aggregator scores higher for
// regional stablecoins where AMM pools are thin.
func Default() *Registry {
	return NewRegistry(
		map[string][]Entry{
			"base": {
				{ID: "amm", Score: 100},
				{ID: "lifi", Score: 80},
			},
			"polygon": {
				{ID: "amm", Score: 100},
				{ID: "lifi", Score: 80},
			},
		},
		map[string]Overrides{
			"base": {
				"BRZ":  {"lifi": 30},
				"CADC": {"lifi": 30},
			},
			"polygon": {
				"BRZ": {"lifi": 30},
			},
		},
	)
}

// Rank returns candidate strategy ids for the network, highest score first.
// assetSymbol may be empty, in which case only base scores apply. A network
// with no configured strategies yields an empty (nil) list.
func (r *Registry) Rank(networkID, assetSymbol string) []string {
	entries, ok := r.base[networkID]
	if !ok || len(entries) == 0 {
		return nil
	}

	scored := make([]Entry, len(entries))
	copy(scored, entries)

	if assetSymbol != "" {
		if deltas, ok := r.overrides[networkID][assetSymbol]; ok {
			for i := range scored {
				if d, ok := deltas[scored[i].ID]; ok {
					scored[i].Score += d
				}
			}
		}
	}

	// Stable sort keeps base-table declaration order on ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	ids := make([]string, len(scored))
	for i, e := range scored {
		ids[i] = e.ID
	}
	return ids
}
