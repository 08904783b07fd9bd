package storage

import (
	"context"

	"github.com/parastopwal07/dezerv-backend/internal/records"
)

// RecordStore is the persistence collaborator for extracted records.
// Ingestion uses drop-and-rebuild semantics: DropAll on every category,
// then InsertMany per category. The legacy collections are read-only from
// the core's perspective but are still purged on ingestion.
type RecordStore interface {
	DropAll(ctx context.Context, categories []string) error
	InsertMany(ctx context.Context, category string, recs []records.StructuredRecord) error
	FindAll(ctx context.Context, category string) ([]records.StructuredRecord, error)

	FindMessages(ctx context.Context) ([]records.Message, error)
	FindEmails(ctx context.Context) ([]records.Email, error)
	FindProfiles(ctx context.Context) ([]records.PersonalProfile, error)
}
