package driven

import (
	"context"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// TokenIssuer defines the driven port for the platform's auth endpoints.
type TokenIssuer interface {
	// IssueToken requests a brand-new token pair with the static application
	// credentials.
	IssueToken(ctx context.Context) (*model.Credential, error)

	// RefreshToken exchanges the current pair for a new one.
	RefreshToken(ctx context.Context, current model.Credential) (*model.Credential, error)
}
