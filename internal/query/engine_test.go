package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parastopwal07/dezerv-backend/internal/assessment"
	"github.com/parastopwal07/dezerv-backend/internal/corpus"
	"github.com/parastopwal07/dezerv-backend/internal/embedding"
	"github.com/parastopwal07/dezerv-backend/internal/records"
	"github.com/parastopwal07/dezerv-backend/internal/storage/memory"
	"github.com/parastopwal07/dezerv-backend/internal/vector/flat"
)

type stubGenerator struct {
	output  string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

type failingIndex struct{}

func (failingIndex) Build(context.Context, []corpus.Entry) error { return nil }

func (failingIndex) Retrieve(context.Context, string, int) ([]corpus.Entry, error) {
	return nil, errors.New("index unavailable")
}

func buildEngine(t *testing.T, gen *stubGenerator) *Engine {
	t.Helper()

	store := memory.NewStore()
	err := store.InsertMany(context.Background(), records.CategoryBanking, []records.StructuredRecord{
		{UserID: 1, Category: records.CategoryBanking, Body: "account ending in 4321 overdrawn by $120.00"},
		{UserID: 1, Category: records.CategoryBanking, Body: "salary of $5,000.00 credited"},
	})
	require.NoError(t, err)

	entries, err := corpus.Build(context.Background(), store)
	require.NoError(t, err)

	index := flat.NewIndex(embedding.NewHashingEmbedder(128))
	require.NoError(t, index.Build(context.Background(), entries))

	return NewEngine(index, assessment.NewSynthesizer(gen), 2)
}

func TestAssess_EndToEnd(t *testing.T) {
	gen := &stubGenerator{output: `{"risk_score": 6.5, "reason": "Recent overdraft"}`}
	engine := buildEngine(t, gen)

	result, err := engine.Assess(context.Background(), AssessmentRequest{Query: "account overdrawn"})
	require.NoError(t, err)

	assert.Equal(t, 6.5, result.RiskScore)
	assert.Equal(t, "Recent overdraft", result.Message)
	assert.False(t, result.Fallback)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "overdrawn")
}

func TestAssess_RetrievalFailureDegrades(t *testing.T) {
	gen := &stubGenerator{output: `{"risk_score": 5, "reason": "No context"}`}
	engine := NewEngine(failingIndex{}, assessment.NewSynthesizer(gen), 3)

	result, err := engine.Assess(context.Background(), AssessmentRequest{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, 5.0, result.RiskScore)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "(no records available)")
}

func TestAssess_GenerationErrorPropagates(t *testing.T) {
	gen := &stubGenerator{err: errors.New("timeout")}
	engine := buildEngine(t, gen)

	_, err := engine.Assess(context.Background(), AssessmentRequest{Query: "q"})
	require.Error(t, err)
}

func TestAssess_MalformedOutputUsesPrior(t *testing.T) {
	gen := &stubGenerator{output: "no json at all"}
	engine := buildEngine(t, gen)

	prior := 8.0
	result, err := engine.Assess(context.Background(), AssessmentRequest{Query: "q", PriorScore: &prior})
	require.NoError(t, err)

	assert.Equal(t, 8.0, result.RiskScore)
	assert.Equal(t, assessment.FallbackMessage, result.Message)
	assert.True(t, result.Fallback)
}

func TestAssessPortfolio_UsesBaselineAsPrior(t *testing.T) {
	gen := &stubGenerator{output: "unusable output"}
	engine := buildEngine(t, gen)

	result, err := engine.AssessPortfolio(context.Background(), assessment.PortfolioAllocation{
		Stocks:       50,
		Gold:         10,
		FixedDeposit: 20,
		Bonds:        10,
		MutualFunds:  10,
		TotalValue:   100,
	})
	require.NoError(t, err)

	assert.Equal(t, 6.8, result.RiskScore)
	assert.True(t, result.Fallback)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Current risk score: 6.8")
}

func TestHistory_NoStoreConfigured(t *testing.T) {
	gen := &stubGenerator{output: `{"risk_score": 5, "reason": "r"}`}
	engine := buildEngine(t, gen)

	history, err := engine.History(10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
