package ekuaibao

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

type templateListResponse struct {
	Items []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Active bool   `json:"active"`
	} `json:"items"`
}

type templateDetail struct {
	ID   string          `json:"id"`
	Form json.RawMessage `json:"form"`
}

// templateDetailResponse accepts both envelopes the detail endpoint has
// been seen to use.
type templateDetailResponse struct {
	Items []templateDetail `json:"items"`
	Value []templateDetail `json:"value"`
}

// ListTemplates lists the latest version of every template of templateType
// across all specification groups.
func (c *Client) ListTemplates(ctx context.Context, token, templateType string) ([]model.TemplateSummary, error) {
	q := tokenQuery(token)
	q.Set("type", templateType)
	q.Set("specificationGroupId", "")

	var resp templateListResponse
	if err := c.getJSON(ctx, "/v1/specifications/latestByType", q, &resp); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	templates := make([]model.TemplateSummary, 0, len(resp.Items))
	for _, item := range resp.Items {
		templates = append(templates, model.TemplateSummary{
			ID:     item.ID,
			Name:   item.Name,
			Active: item.Active,
		})
	}
	return templates, nil
}

// GetTemplateDetail fetches the editable view of a template. The returned ID
// carries the version suffix and falls back to templateID when absent.
func (c *Client) GetTemplateDetail(ctx context.Context, token, templateID string) (*model.TemplateDetail, error) {
	path := "/v2/specifications/byIds/editable/[" + templateID + "]"

	var resp templateDetailResponse
	if err := c.getJSON(ctx, path, tokenQuery(token), &resp); err != nil {
		return nil, fmt.Errorf("get template detail %s: %w", templateID, err)
	}

	details := resp.Items
	if len(details) == 0 {
		details = resp.Value
	}
	if len(details) == 0 {
		return nil, fmt.Errorf("get template detail %s: response has no template", templateID)
	}
	detail := details[0]

	fields, err := decodeForm(detail.Form)
	if err != nil {
		return nil, fmt.Errorf("get template detail %s: %w", templateID, err)
	}

	id := detail.ID
	if id == "" {
		id = templateID
	}
	return &model.TemplateDetail{ID: id, Fields: fields}, nil
}
