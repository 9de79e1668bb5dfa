package model

import "time"

// Credential is the bearer token pair issued by the expense platform.
// ExpiresAtMs is the absolute expiry in epoch milliseconds, as the platform
// reports it.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAtMs  int64
}

// ExpiresAt returns the expiry as a time.Time.
func (c Credential) ExpiresAt() time.Time {
	return time.UnixMilli(c.ExpiresAtMs)
}

// ValidAt reports whether the access token is still usable at now with at
// least margin left before expiry.
func (c Credential) ValidAt(now time.Time, margin time.Duration) bool {
	if c.AccessToken == "" {
		return false
	}
	return now.Add(margin).Before(c.ExpiresAt())
}

// CanRefresh reports whether a refresh token is available.
func (c Credential) CanRefresh() bool {
	return c.RefreshToken != ""
}
