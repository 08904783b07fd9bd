package assessment

import "fmt"

// PortfolioAllocation is the request shape for portfolio-based
// assessments: five asset values plus the total.
type PortfolioAllocation struct {
	Stocks       float64 `json:"stocks"`
	Gold         float64 `json:"gold"`
	FixedDeposit float64 `json:"fixedDeposit"`
	Bonds        float64 `json:"bonds"`
	MutualFunds  float64 `json:"mutualFunds"`
	TotalValue   float64 `json:"totalValue"`
}

// BaselineScore is the documented linear risk formula over asset-class
// percentages: equity (stocks + mutual funds) weighted 10, bonds 5, safe
// assets (gold + fixed deposit) 1, clamped to [1, 10] and rounded to one
// decimal. It supplies the prior score for portfolio assessments and the
// deterministic fallback when generation output is unusable.
func (p PortfolioAllocation) BaselineScore() float64 {
	if p.TotalValue <= 0 {
		return NeutralScore
	}

	equity := (p.Stocks + p.MutualFunds) / p.TotalValue * 100
	bonds := p.Bonds / p.TotalValue * 100
	safe := (p.Gold + p.FixedDeposit) / p.TotalValue * 100

	return clampScore((equity*10 + bonds*5 + safe*1) / 100)
}

// Describe renders the allocation as query text for retrieval and prompt
// composition.
func (p PortfolioAllocation) Describe() string {
	return fmt.Sprintf(
		"Assess the risk of a portfolio with stocks %.2f, gold %.2f, fixed deposit %.2f, bonds %.2f, mutual funds %.2f, total value %.2f",
		p.Stocks, p.Gold, p.FixedDeposit, p.Bonds, p.MutualFunds, p.TotalValue,
	)
}
