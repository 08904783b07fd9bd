package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

// Client records assessment history and ingestion runs. The core never
// reads this data back except for the history endpoint.
type Client struct {
	db *sql.DB
}

type Assessment struct {
	ID             string
	Query          string
	RiskScore      float64
	Message        string
	Fallback       bool
	RetrievedCount int
	LatencyMS      int
	CreatedAt      time.Time
}

type IngestionRun struct {
	ID           int
	TotalRecords int
	CorpusSize   int
	ByCategory   map[string]int
	DurationMS   int
	CreatedAt    time.Time
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		risk_score REAL NOT NULL,
		message TEXT,
		fallback INTEGER DEFAULT 0,
		retrieved_count INTEGER,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_assessments_created ON assessments(created_at);

	CREATE TABLE IF NOT EXISTS ingestion_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		total_records INTEGER NOT NULL,
		corpus_size INTEGER NOT NULL,
		by_category TEXT,
		duration_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ingestion_created ON ingestion_runs(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertAssessment(a *Assessment) error {
	query := `
		INSERT INTO assessments (id, query, risk_score, message, fallback, retrieved_count, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	fallback := 0
	if a.Fallback {
		fallback = 1
	}

	_, err := c.db.Exec(
		query,
		a.ID,
		a.Query,
		a.RiskScore,
		a.Message,
		fallback,
		a.RetrievedCount,
		a.LatencyMS,
		a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}

	logger.Debug("Assessment recorded",
		zap.String("id", a.ID),
		zap.Float64("risk_score", a.RiskScore),
	)
	return nil
}

func (c *Client) ListAssessments(limit int) ([]Assessment, error) {
	query := `
		SELECT id, query, risk_score, message, fallback, retrieved_count, latency_ms, created_at
		FROM assessments
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		var a Assessment
		var fallback int
		var createdAt int64

		err := rows.Scan(&a.ID, &a.Query, &a.RiskScore, &a.Message, &fallback, &a.RetrievedCount, &a.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		a.Fallback = fallback == 1
		a.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, a)
	}

	return out, nil
}

func (c *Client) InsertIngestionRun(run *IngestionRun) error {
	byCategory, _ := json.Marshal(run.ByCategory)

	query := `
		INSERT INTO ingestion_runs (total_records, corpus_size, by_category, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		run.TotalRecords,
		run.CorpusSize,
		string(byCategory),
		run.DurationMS,
		run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingestion run: %w", err)
	}

	logger.Info("Ingestion run recorded",
		zap.Int("total_records", run.TotalRecords),
		zap.Int("corpus_size", run.CorpusSize),
	)
	return nil
}
