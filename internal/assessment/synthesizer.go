package assessment

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/llm"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

const (
	MinScore     = 1.0
	MaxScore     = 10.0
	NeutralScore = 5.0

	// FallbackMessage is the fixed explanation returned when generated
	// text cannot be parsed into the expected structure.
	FallbackMessage = "Risk assessment could not be processed; using fallback score."
)

// Result is the structured risk assessment. Fallback marks results built
// from the deterministic fallback path rather than generated output.
type Result struct {
	RiskScore float64 `json:"riskScore"`
	Message   string  `json:"message"`
	Fallback  bool    `json:"-"`
}

// Synthesizer composes the advisor prompt, invokes the generation
// backend exactly once, and extracts a structured result from its
// free-form output.
type Synthesizer struct {
	gen llm.Generator
}

func NewSynthesizer(gen llm.Generator) *Synthesizer {
	return &Synthesizer{gen: gen}
}

// Assess runs one synthesis round. Malformed generation output never
// surfaces as an error: it degrades to the prior score (or the neutral
// default) with the fixed fallback message. Only a failing backend call
// propagates.
func (s *Synthesizer) Assess(ctx context.Context, query string, retrieved []string, priorScore *float64) (Result, error) {
	prompt := buildPrompt(query, retrieved, priorScore)

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("generation backend failed: %w", err)
	}

	if result, ok := extractResult(raw); ok {
		return result, nil
	}

	logger.Warn("Generated output could not be parsed, using fallback",
		zap.Int("raw_length", len(raw)),
	)

	return Fallback(priorScore), nil
}

// Fallback builds the deterministic substitute result: the prior score
// clamped and rounded, or the neutral default when none was supplied.
func Fallback(priorScore *float64) Result {
	score := NeutralScore
	if priorScore != nil {
		score = clampScore(*priorScore)
	}
	return Result{
		RiskScore: score,
		Message:   FallbackMessage,
		Fallback:  true,
	}
}

func buildPrompt(query string, retrieved []string, priorScore *float64) string {
	var b strings.Builder

	b.WriteString("You are a financial advisor assessing investment risk. ")
	b.WriteString("Use the following context about the user's financial history to respond.\n\n")

	b.WriteString("Context:\n")
	if len(retrieved) == 0 {
		b.WriteString("(no records available)\n")
	} else {
		for _, entry := range retrieved {
			b.WriteString(entry)
			b.WriteString("\n")
		}
	}

	if priorScore != nil {
		fmt.Fprintf(&b, "\nCurrent risk score: %.1f\n", *priorScore)
	} else {
		b.WriteString("\nCurrent risk score: not available\n")
	}

	fmt.Fprintf(&b, "\nQuery: %s\n", query)

	b.WriteString("\nRespond with a JSON object containing exactly two keys, ")
	b.WriteString(`"risk_score" (a number between 1 and 10) and "reason" `)
	b.WriteString("(a short explanation), in that order. Do not include any other text.")

	return b.String()
}
