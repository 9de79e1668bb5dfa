package driven

import (
	"context"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

// ExpensePlatform defines the driven port for the expense platform's data
// endpoints. Every method takes the bearer token explicitly; obtaining it is
// the caller's concern.
type ExpensePlatform interface {
	ListTemplates(ctx context.Context, token, templateType string) ([]model.TemplateSummary, error)
	// GetTemplateDetail returns the editable view of one template with its
	// form normalised to a flat field list.
	GetTemplateDetail(ctx context.Context, token, templateID string) (*model.TemplateDetail, error)

	ListDimensions(ctx context.Context, token string) ([]model.DimensionCategory, error)
	ListDimensionItems(ctx context.Context, token, dimensionID string) ([]model.DimensionItem, error)

	// CreateRequisition posts a create-request body. A platform rejection is
	// reported as *model.SubmissionError.
	CreateRequisition(ctx context.Context, token string, body map[string]any) (*model.CreatedFlow, error)
}
