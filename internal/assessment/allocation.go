package assessment

import "math"

// AllocationPlan is a recommended allocation in whole percentages.
type AllocationPlan struct {
	Stocks       int `json:"stocks"`
	Gold         int `json:"gold"`
	FixedDeposit int `json:"fd"`
	Bonds        int `json:"bonds"`
	MutualFunds  int `json:"mutualFunds"`
}

// AllocationForScore maps a risk score to an allocation band
// (conservative <= 3, moderate <= 6, aggressive above). Equity is split
// 75/25 between stocks and mutual funds.
func AllocationForScore(score float64) AllocationPlan {
	var bonds, cash, gold, equity float64
	switch {
	case score <= 3:
		bonds, cash, gold, equity = 0.30, 0.30, 0.10, 0.20
	case score <= 6:
		bonds, cash, gold, equity = 0.20, 0.15, 0.10, 0.40
	default:
		bonds, cash, gold, equity = 0.10, 0.05, 0.05, 0.65
	}

	return AllocationPlan{
		Bonds:        roundPct(bonds * 100),
		FixedDeposit: roundPct(cash * 100),
		Gold:         roundPct(gold * 100),
		Stocks:       roundPct(equity * 75),
		MutualFunds:  roundPct(equity * 25),
	}
}

func roundPct(v float64) int {
	return int(math.Round(v))
}
