package ekuaibao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// dimensionItemPaths are tried in order; the next one is used only when the
// previous answered 404.
var dimensionItemPaths = []string{
	"/v1/dimensions/items",
	"/v1/dimension/items",
	"/v1/basedata/dimension/items",
}

// dimensionEntry is shared by categories and items. enabled defaults to true
// when the platform omits it.
type dimensionEntry struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Enabled *bool  `json:"enabled"`
}

func (e dimensionEntry) enabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// listEnvelope is the paged list shape. Some endpoints omit success.
type listEnvelope struct {
	Success *bool            `json:"success"`
	Message string           `json:"message"`
	Items   []dimensionEntry `json:"items"`
}

func (e listEnvelope) failed() bool {
	return e.Success != nil && !*e.Success
}

func pageQuery(token string) url.Values {
	q := tokenQuery(token)
	q.Set("start", "0")
	q.Set("count", "100")
	return q
}

// ListDimensions lists the custom dimension categories (first page of 100).
func (c *Client) ListDimensions(ctx context.Context, token string) ([]model.DimensionCategory, error) {
	var env listEnvelope
	if err := c.getJSON(ctx, "/v1/dimensions", pageQuery(token), &env); err != nil {
		return nil, fmt.Errorf("list dimensions: %w", err)
	}
	if env.failed() {
		return nil, fmt.Errorf("list dimensions: %s", env.Message)
	}

	categories := make([]model.DimensionCategory, 0, len(env.Items))
	for _, e := range env.Items {
		categories = append(categories, model.DimensionCategory{
			ID: e.ID, Name: e.Name, Code: e.Code, Enabled: e.enabled(),
		})
	}
	return categories, nil
}

// ListDimensionItems lists the items of one dimension category (first page
// of 100). The items endpoint has moved between API revisions, so known
// paths are tried in order while the platform answers 404.
func (c *Client) ListDimensionItems(ctx context.Context, token, dimensionID string) ([]model.DimensionItem, error) {
	q := pageQuery(token)
	q.Set("dimensionId", dimensionID)

	var resp *response
	for _, path := range dimensionItemPaths {
		var err error
		resp, err = c.do(ctx, http.MethodGet, path, q, nil)
		if err != nil {
			return nil, fmt.Errorf("list dimension items %s: %w", dimensionID, err)
		}
		if resp.StatusCode != http.StatusNotFound {
			break
		}
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("list dimension items %s failed (status %d): %s", dimensionID, resp.StatusCode, truncate(resp.Body))
	}

	var env listEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return nil, fmt.Errorf("list dimension items %s: decode response: %w", dimensionID, err)
	}
	if env.failed() {
		return nil, fmt.Errorf("list dimension items %s: %s", dimensionID, env.Message)
	}

	items := make([]model.DimensionItem, 0, len(env.Items))
	for _, e := range env.Items {
		items = append(items, model.DimensionItem{
			ID: e.ID, Name: e.Name, Code: e.Code, Enabled: e.enabled(),
		})
	}
	return items, nil
}
