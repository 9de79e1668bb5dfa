package driven

import (
	"context"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// CredentialStore persists the platform credential between process runs.
type CredentialStore interface {
	// Load returns the cached credential, or (nil, nil) when nothing usable
	// is cached.
	Load(ctx context.Context) (*model.Credential, error)

	// Save replaces the cached credential.
	Save(ctx context.Context, cred model.Credential) error
}
