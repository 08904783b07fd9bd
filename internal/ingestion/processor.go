package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/corpus"
	"github.com/parastopwal07/dezerv-backend/internal/metrics"
	"github.com/parastopwal07/dezerv-backend/internal/records"
	"github.com/parastopwal07/dezerv-backend/internal/storage"
	"github.com/parastopwal07/dezerv-backend/internal/storage/sqlite"
	"github.com/parastopwal07/dezerv-backend/internal/vector"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Summary reports what a single ingestion run produced.
type Summary struct {
	TotalRecords      int            `json:"totalRecords"`
	RecordsByCategory map[string]int `json:"recordsByCategory"`
	CorpusSize        int            `json:"corpusSize"`
	DurationMs        int64          `json:"durationMs"`
}

// Invalidator clears derived caches after the corpus changes.
type Invalidator interface {
	InvalidateAssessments(ctx context.Context) error
}

// Processor turns raw notification text into structured records and a fresh
// vector index. Each run replaces all prior state.
type Processor struct {
	store       storage.RecordStore
	index       vector.Index
	history     *sqlite.Client
	extractor   *records.Extractor
	invalidator Invalidator
}

type Option func(*Processor)

func WithHistory(h *sqlite.Client) Option {
	return func(p *Processor) { p.history = h }
}

func WithInvalidator(inv Invalidator) Option {
	return func(p *Processor) { p.invalidator = inv }
}

func NewProcessor(store storage.RecordStore, index vector.Index, extractor *records.Extractor, opts ...Option) *Processor {
	p := &Processor{
		store:     store,
		index:     index,
		extractor: extractor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest extracts records from raw text, replaces the stored collections and
// rebuilds the vector index from the resulting corpus.
func (p *Processor) Ingest(ctx context.Context, raw string) (Summary, error) {
	start := time.Now()
	logger.Info("Ingestion started", zap.Int("input_bytes", len(raw)))

	if looksLikeHTML(raw) {
		raw = stripHTML(raw)
	}

	ids := records.NewIdentityTable()
	extracted := p.extractor.Extract(raw, ids)

	if err := p.store.DropAll(ctx, records.AllCategories); err != nil {
		return Summary{}, fmt.Errorf("failed to drop collections: %w", err)
	}

	summary := Summary{RecordsByCategory: make(map[string]int, len(extracted))}
	for _, category := range records.StructuredCategories {
		recs := extracted[category]
		if err := p.store.InsertMany(ctx, category, recs); err != nil {
			return Summary{}, fmt.Errorf("failed to insert %s records: %w", category, err)
		}
		summary.RecordsByCategory[category] = len(recs)
		summary.TotalRecords += len(recs)
		metrics.RecordsIngested.WithLabelValues(category).Add(float64(len(recs)))
	}

	entries, err := corpus.Build(ctx, p.store)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to build corpus: %w", err)
	}
	summary.CorpusSize = len(entries)

	if err := p.index.Build(ctx, entries); err != nil {
		return Summary{}, fmt.Errorf("failed to build index: %w", err)
	}

	if p.invalidator != nil {
		if err := p.invalidator.InvalidateAssessments(ctx); err != nil {
			logger.Warn("Failed to invalidate assessment cache", zap.Error(err))
		}
	}

	elapsed := time.Since(start)
	summary.DurationMs = elapsed.Milliseconds()

	metrics.CorpusSize.Set(float64(summary.CorpusSize))
	metrics.IngestionDuration.Observe(elapsed.Seconds())

	p.record(summary)

	logger.Info("Ingestion completed",
		zap.Int("total_records", summary.TotalRecords),
		zap.Int("corpus_size", summary.CorpusSize),
		zap.Int("users", ids.Len()),
		zap.Duration("duration", elapsed),
	)

	return summary, nil
}

func (p *Processor) record(summary Summary) {
	if p.history == nil {
		return
	}

	run := &sqlite.IngestionRun{
		TotalRecords: summary.TotalRecords,
		CorpusSize:   summary.CorpusSize,
		ByCategory:   summary.RecordsByCategory,
		DurationMS:   int(summary.DurationMs),
		CreatedAt:    time.Now().UTC(),
	}
	if err := p.history.InsertIngestionRun(run); err != nil {
		logger.Warn("Failed to record ingestion run", zap.Error(err))
	}
}

func looksLikeHTML(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">")
}

func stripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	text = whitespaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
