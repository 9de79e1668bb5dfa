package driven

import (
	"context"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// DocumentStore defines the driven port for the local ledger of
// requisitions created through this service.
type DocumentStore interface {
	// Record stores a created document. Recording the same code twice
	// overwrites the earlier row.
	Record(ctx context.Context, doc model.Document) error

	// GetByCode returns model.ErrNotFound when no document has the code.
	GetByCode(ctx context.Context, code string) (*model.Document, error)

	// ListRecent returns up to limit documents, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Document, error)
}
