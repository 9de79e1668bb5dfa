package ekuaibao

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

type tokenValue struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpireTime   int64  `json:"expireTime"`
}

type tokenResponse struct {
	Value *tokenValue `json:"value"`
}

// IssueToken requests a new token pair with the application key and secret.
func (c *Client) IssueToken(ctx context.Context) (*model.Credential, error) {
	body := map[string]string{
		"appKey":      c.appKey,
		"appSecurity": c.appSecurity,
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/auth/getAccessToken", nil, body)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return parseTokenResponse("issue token", resp)
}

// RefreshToken exchanges the current token pair for a new one.
func (c *Client) RefreshToken(ctx context.Context, current model.Credential) (*model.Credential, error) {
	if current.RefreshToken == "" {
		return nil, errors.New("refresh token: no refresh token cached")
	}

	q := url.Values{}
	q.Set("accessToken", current.AccessToken)
	q.Set("refreshToken", current.RefreshToken)
	q.Set("powerCode", c.powerCode)

	resp, err := c.do(ctx, http.MethodPost, "/v2/auth/refreshToken", q, nil)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	return parseTokenResponse("refresh token", resp)
}

func parseTokenResponse(op string, resp *response) (*model.Credential, error) {
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s failed (status %d): %s", op, resp.StatusCode, truncate(resp.Body))
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", op, err)
	}
	if tr.Value == nil || tr.Value.AccessToken == "" {
		return nil, fmt.Errorf("%s: response has no access token", op)
	}

	return &model.Credential{
		AccessToken:  tr.Value.AccessToken,
		RefreshToken: tr.Value.RefreshToken,
		ExpiresAtMs:  tr.Value.ExpireTime,
	}, nil
}
