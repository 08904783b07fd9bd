package assessment

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// extractResult scans raw generated text for the structured assessment.
// It takes the largest brace-delimited span (first "{" to last "}"),
// strict-parses it, and on failure cleans the span once (strip non-ASCII,
// collapse whitespace, trim) and reparses. Known limitation carried over
// from the original behavior: a reason containing literal braces widens
// the span past valid JSON and lands in the fallback path.
func extractResult(raw string) (Result, bool) {
	obj, ok := extractObject(raw)
	if !ok {
		return Result{}, false
	}

	scoreRaw, hasScore := obj["risk_score"]
	reasonRaw, hasReason := obj["reason"]
	if !hasScore || !hasReason {
		return Result{}, false
	}

	score, ok := coerceScore(scoreRaw)
	if !ok {
		return Result{}, false
	}

	reason, ok := reasonRaw.(string)
	if !ok {
		return Result{}, false
	}

	return Result{
		RiskScore: clampScore(score),
		Message:   reason,
	}, true
}

func extractObject(raw string) (map[string]interface{}, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	span := raw[start : end+1]

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(span), &obj); err == nil {
		return obj, true
	}

	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(stripNonASCII(span), " "))
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, true
	}

	return nil, false
}

func stripNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// coerceScore accepts a JSON number or a numeric string.
func coerceScore(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return f, true
		}
	}
	return 0, false
}

// clampScore bounds the score to [1.0, 10.0] and rounds to one decimal.
func clampScore(v float64) float64 {
	if v < MinScore {
		v = MinScore
	}
	if v > MaxScore {
		v = MaxScore
	}
	return math.Round(v*10) / 10
}
