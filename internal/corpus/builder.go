package corpus

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/internal/records"
	"github.com/parastopwal07/dezerv-backend/internal/storage"
	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

// Entry is one retrievable text snippet. Position is the entry's index in
// the corpus and must match its slot in the vector index.
type Entry struct {
	Position int
	Text     string
}

// Build flattens the record store into the ordered corpus: legacy
// collections first (messages, emails, personal_data), then the
// structured categories in declaration order. An empty store yields an
// empty corpus.
func Build(ctx context.Context, store storage.RecordStore) ([]Entry, error) {
	var texts []string

	messages, err := store.FindMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	for _, m := range messages {
		texts = append(texts, m.Content)
	}

	emails, err := store.FindEmails(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read emails: %w", err)
	}
	for _, e := range emails {
		texts = append(texts, e.Body)
	}

	profiles, err := store.FindProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read personal data: %w", err)
	}
	for _, p := range profiles {
		texts = append(texts, fmt.Sprintf("User %d is %d years old with %s risk profile",
			p.UserID, p.Age, p.RiskProfile))
	}

	for _, category := range records.StructuredCategories {
		recs, err := store.FindAll(ctx, category)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", category, err)
		}
		for _, rec := range recs {
			texts = append(texts, rec.Body)
		}
	}

	entries := make([]Entry, len(texts))
	for i, text := range texts {
		entries[i] = Entry{Position: i, Text: text}
	}

	logger.Info("Corpus built", zap.Int("entries", len(entries)))

	return entries, nil
}
