// Package credentialfile implements the CredentialStore port as a single
// JSON file on disk.
package credentialfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*Store)(nil)

// cacheFile is the on-disk shape. The key names are shared with other tools
// that read the same cache.
type cacheFile struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpireTime   int64  `json:"expireTime"`
}

// Store reads and writes the credential cache file.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store for the file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Load returns the cached credential. A missing file yields (nil, nil). A
// corrupt file is logged and treated as missing so the caller falls back to
// issuing a new token.
func (s *Store) Load(_ context.Context) (*model.Credential, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("token cache file does not exist", "path", s.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token cache %s: %w", s.path, err)
	}

	var cf cacheFile
	if err := json.Unmarshal(data, &cf); err != nil {
		s.logger.Error("token cache is corrupt, ignoring", "path", s.path, "error", err)
		return nil, nil
	}
	if cf.AccessToken == "" && cf.RefreshToken == "" {
		return nil, nil
	}

	return &model.Credential{
		AccessToken:  cf.AccessToken,
		RefreshToken: cf.RefreshToken,
		ExpiresAtMs:  cf.ExpireTime,
	}, nil
}

// Save replaces the cache file atomically.
func (s *Store) Save(_ context.Context, cred model.Credential) error {
	data, err := json.Marshal(cacheFile{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpireTime:   cred.ExpiresAtMs,
	})
	if err != nil {
		return fmt.Errorf("marshal token cache: %w", err)
	}

	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write token cache %s: %w", s.path, err)
	}
	return nil
}
