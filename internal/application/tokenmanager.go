// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// TokenSafetyMargin is how long before expiry a cached token stops being used.
const TokenSafetyMargin = 300 * time.Second

// TokenProvider supplies platform access tokens to the other services.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
	ForceRefresh(ctx context.Context) (string, error)
}

// Compile-time interface satisfaction check.
var _ TokenProvider = (*TokenManager)(nil)

// TokenManager owns the platform credential for the process. The first call
// always renews the credential; later calls reuse it until it is within
// TokenSafetyMargin of expiry.
//
// The mutex guards the in-memory holder only and is never held across a
// network call, so concurrent callers may each renew. The platform tolerates
// that and the last writer wins.
type TokenManager struct {
	issuer driven.TokenIssuer
	store  driven.CredentialStore
	logger *slog.Logger
	now    func() time.Time

	mu             sync.Mutex
	current        *model.Credential
	hasInitialized bool
}

// NewTokenManager creates a TokenManager with the required dependencies.
func NewTokenManager(issuer driven.TokenIssuer, store driven.CredentialStore, logger *slog.Logger) *TokenManager {
	return &TokenManager{
		issuer: issuer,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for expiry checks.
func (m *TokenManager) SetClock(now func() time.Time) {
	m.now = now
}

// AccessToken returns a usable access token, renewing it when needed.
// It fails with *model.AuthError when both refresh and reissue fail.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	firstCall := !m.hasInitialized
	m.hasInitialized = true
	current := m.current
	m.mu.Unlock()

	if firstCall {
		m.logger.Info("renewing platform token on first use")
		current = m.loadCached(ctx)
		return m.renew(ctx, current)
	}

	if current != nil && current.ValidAt(m.now(), TokenSafetyMargin) {
		return current.AccessToken, nil
	}

	m.logger.Info("platform token expired or about to expire",
		"has_credential", current != nil,
	)
	return m.renew(ctx, current)
}

// ForceRefresh renews the credential regardless of its expiry.
func (m *TokenManager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if !m.hasInitialized {
		m.mu.Unlock()
		return m.AccessToken(ctx)
	}
	current := m.current
	m.mu.Unlock()

	return m.renew(ctx, current)
}

// CheckConnection reports whether a token can be obtained.
func (m *TokenManager) CheckConnection(ctx context.Context) error {
	if _, err := m.AccessToken(ctx); err != nil {
		return fmt.Errorf("platform auth: %w", err)
	}
	return nil
}

func (m *TokenManager) loadCached(ctx context.Context) *model.Credential {
	cached, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("load cached credential", "error", err)
		return nil
	}

	m.mu.Lock()
	m.current = cached
	m.mu.Unlock()

	return cached
}

// renew refreshes with the stored refresh token and falls back to a reissue.
func (m *TokenManager) renew(ctx context.Context, current *model.Credential) (string, error) {
	var refreshErr error

	if current != nil && current.CanRefresh() {
		cred, err := m.issuer.RefreshToken(ctx, *current)
		if err == nil {
			m.install(ctx, cred)
			return cred.AccessToken, nil
		}
		refreshErr = err
		m.logger.Warn("refresh token failed, reissuing", "error", err)
	}

	cred, err := m.issuer.IssueToken(ctx)
	if err != nil {
		m.logger.Error("issue token failed", "error", err)
		return "", &model.AuthError{RefreshErr: refreshErr, IssueErr: err}
	}

	m.install(ctx, cred)
	return cred.AccessToken, nil
}

// install makes cred current and persists it. Persistence failures are
// logged only.
func (m *TokenManager) install(ctx context.Context, cred *model.Credential) {
	m.mu.Lock()
	m.current = cred
	m.mu.Unlock()

	if err := m.store.Save(ctx, *cred); err != nil {
		m.logger.Warn("save credential cache", "error", err)
	}
}
