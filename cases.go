package main

import (
	"github.com/juagargi/sibratest/internal/libaccept"
	"github.com/juagargi/sibratest/internal/libsibra"
)

// builtinCases returns the default suite, equivalent to a minimal suite
// file. Case 1 reserves class 14 with split 200 on both directions
// between ff00:0:111 and ff00:0:110 and caps all competing traffic at
// 9 Mbps, so the client should reach roughly the theoretical 1.448 Mbps
// while dropping most of its 99 Mbps offered load.
func builtinCases() ([]libaccept.Case, error) {
	case1 := &libaccept.Scenario{
		CaseName: "case1",
		Entities: []libsibra.IA{"1-ff00:0:111"},
		Server:   "1-ff00:0:110",
		Client:   "1-ff00:0:111",
		Overrides: []libaccept.ResvOverride{
			{Key: "Down-1-ff00:0:110", Desired: 14, Max: 20, Min: 14, Split: 200},
			{Key: "Up-1-ff00:0:110", Desired: 14, Max: 20, Min: 14, Split: 200},
		},
		MatrixFill:  9000000,
		DurationSec: 10,
		BwCls:       14,
		Bandwidth:   99000000,
		// The lower bound leaves room for jitter below the theoretical
		// 1448154 bps; the upper bound defaults to it.
		Speed: libaccept.Bounds{Min: 1430000},
		Drops: libaccept.Bounds{Min: 0.90, Max: 0.99},
	}

	if err := case1.Validate(); err != nil {
		return nil, err
	}
	return []libaccept.Case{case1}, nil
}
