package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/assessment"
	"github.com/parastopwal07/dezerv-backend/internal/metrics"
	"github.com/parastopwal07/dezerv-backend/internal/storage/sqlite"
	"github.com/parastopwal07/dezerv-backend/internal/vector"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
	"github.com/parastopwal07/dezerv-backend/pkg/utils"
)

// ResultCache stores finished assessments keyed by query hash.
type ResultCache interface {
	GetAssessment(ctx context.Context, queryHash string) (assessment.Result, bool, error)
	SetAssessment(ctx context.Context, queryHash string, result assessment.Result) error
}

// AssessmentRequest carries a free-form query and an optional prior score
// supplied by the caller.
type AssessmentRequest struct {
	Query      string
	PriorScore *float64
}

// Engine ties retrieval and synthesis together. Retrieval failures degrade
// to an empty context; synthesis failures propagate to the caller.
type Engine struct {
	index   vector.Index
	synth   *assessment.Synthesizer
	history *sqlite.Client
	cache   ResultCache
	topK    int
}

type Option func(*Engine)

func WithHistory(h *sqlite.Client) Option {
	return func(e *Engine) { e.history = h }
}

func WithCache(c ResultCache) Option {
	return func(e *Engine) { e.cache = c }
}

func NewEngine(index vector.Index, synth *assessment.Synthesizer, topK int, opts ...Option) *Engine {
	if topK <= 0 {
		topK = 3
	}
	e := &Engine{
		index: index,
		synth: synth,
		topK:  topK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Assess retrieves the top-k context snippets for the query and synthesizes
// a risk assessment from them.
func (e *Engine) Assess(ctx context.Context, req AssessmentRequest) (assessment.Result, error) {
	start := time.Now()

	cacheKey := e.cacheKey(req)
	if e.cache != nil {
		cached, found, err := e.cache.GetAssessment(ctx, cacheKey)
		if err != nil {
			logger.Warn("Assessment cache lookup failed", zap.Error(err))
		} else if found {
			metrics.CacheRequests.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.CacheRequests.WithLabelValues("miss").Inc()
	}

	var snippets []string
	entries, err := e.index.Retrieve(ctx, req.Query, e.topK)
	if err != nil {
		logger.Warn("Retrieval failed, assessing without context", zap.Error(err))
	} else {
		snippets = make([]string, 0, len(entries))
		for _, entry := range entries {
			snippets = append(snippets, entry.Text)
		}
	}
	metrics.RetrievalResults.Observe(float64(len(snippets)))

	result, err := e.synth.Assess(ctx, req.Query, snippets, req.PriorScore)
	if err != nil {
		metrics.AssessmentTotal.WithLabelValues("error").Inc()
		return assessment.Result{}, err
	}

	if result.Fallback {
		metrics.FallbackTotal.Inc()
		metrics.AssessmentTotal.WithLabelValues("fallback").Inc()
	} else {
		metrics.AssessmentTotal.WithLabelValues("success").Inc()
	}
	metrics.AssessmentDuration.Observe(time.Since(start).Seconds())

	e.record(req.Query, result, len(snippets), time.Since(start))

	if e.cache != nil {
		if err := e.cache.SetAssessment(ctx, cacheKey, result); err != nil {
			logger.Warn("Failed to cache assessment", zap.Error(err))
		}
	}

	return result, nil
}

// AssessPortfolio evaluates an allocation, using its deterministic baseline
// score as the prior for synthesis.
func (e *Engine) AssessPortfolio(ctx context.Context, alloc assessment.PortfolioAllocation) (assessment.Result, error) {
	baseline := alloc.BaselineScore()
	return e.Assess(ctx, AssessmentRequest{
		Query:      alloc.Describe(),
		PriorScore: &baseline,
	})
}

// History returns recent stored assessments, newest first. Returns an empty
// slice when no history store is configured.
func (e *Engine) History(limit int) ([]sqlite.Assessment, error) {
	if e.history == nil {
		return []sqlite.Assessment{}, nil
	}
	return e.history.ListAssessments(limit)
}

func (e *Engine) cacheKey(req AssessmentRequest) string {
	var b strings.Builder
	b.WriteString(req.Query)
	if req.PriorScore != nil {
		fmt.Fprintf(&b, "|%.1f", *req.PriorScore)
	}
	return utils.HashString(b.String())
}

func (e *Engine) record(query string, result assessment.Result, retrieved int, elapsed time.Duration) {
	if e.history == nil {
		return
	}

	rec := &sqlite.Assessment{
		ID:             uuid.New().String(),
		Query:          query,
		RiskScore:      result.RiskScore,
		Message:        result.Message,
		Fallback:       result.Fallback,
		RetrievedCount: retrieved,
		LatencyMS:      int(elapsed.Milliseconds()),
		CreatedAt:      time.Now().UTC(),
	}
	if err := e.history.InsertAssessment(rec); err != nil {
		logger.Warn("Failed to record assessment", zap.Error(err))
	}
}
