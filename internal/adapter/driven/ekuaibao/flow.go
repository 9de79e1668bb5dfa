package ekuaibao

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

type createFlowResponse struct {
	Flow struct {
		ID   string         `json:"id"`
		Form map[string]any `json:"form"`
	} `json:"flow"`
}

// CreateRequisition posts a new requisition document. Any non-2xx answer is
// returned as *model.SubmissionError with the raw body so the caller can
// surface platform validation messages verbatim.
func (c *Client) CreateRequisition(ctx context.Context, token string, body map[string]any) (*model.CreatedFlow, error) {
	resp, err := c.do(ctx, http.MethodPost, "/v2.2/flow/data", tokenQuery(token), body)
	if err != nil {
		return nil, fmt.Errorf("create requisition: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, &model.SubmissionError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var cr createFlowResponse
	if err := json.Unmarshal(resp.Body, &cr); err != nil {
		return nil, fmt.Errorf("create requisition: decode response: %w", err)
	}

	code, _ := cr.Flow.Form["code"].(string)
	title, _ := cr.Flow.Form["title"].(string)
	return &model.CreatedFlow{
		FlowID: cr.Flow.ID,
		Code:   code,
		Title:  title,
		Form:   cr.Flow.Form,
	}, nil
}
