package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// TemplateResolver finds the requisition template to submit against and
// rebuilds its field schema from the platform on every call.
type TemplateResolver struct {
	tokens        TokenProvider
	platform      driven.ExpensePlatform
	templateType  string
	preferredName string
	logger        *slog.Logger
}

// NewTemplateResolver creates a TemplateResolver. preferredName is the
// template picked when several are active.
func NewTemplateResolver(
	tokens TokenProvider,
	platform driven.ExpensePlatform,
	templateType string,
	preferredName string,
	logger *slog.Logger,
) *TemplateResolver {
	return &TemplateResolver{
		tokens:        tokens,
		platform:      platform,
		templateType:  templateType,
		preferredName: preferredName,
		logger:        logger,
	}
}

// ResolveTemplate returns the active template and its live field set. The
// token is renewed before each platform call so edits made on the platform
// are visible immediately. It fails with *model.TemplateError when no active
// template exists.
func (r *TemplateResolver) ResolveTemplate(ctx context.Context) (*model.Template, error) {
	token, err := r.tokens.ForceRefresh(ctx)
	if err != nil {
		return nil, err
	}

	summaries, err := r.platform.ListTemplates(ctx, token, r.templateType)
	if err != nil {
		return nil, &model.TemplateError{Reason: "list templates", Err: err}
	}
	r.logger.Debug("templates listed", "count", len(summaries), "type", r.templateType)

	chosen := pickTemplate(summaries, r.preferredName)
	if chosen == nil {
		return nil, &model.TemplateError{Reason: "no active " + r.templateType + " template"}
	}

	token, err = r.tokens.ForceRefresh(ctx)
	if err != nil {
		return nil, err
	}

	detail, err := r.platform.GetTemplateDetail(ctx, token, chosen.ID)
	if err != nil {
		return nil, &model.TemplateError{Reason: "get template detail", Err: err}
	}

	fields := make([]model.FieldDescriptor, 0, len(detail.Fields))
	for _, raw := range detail.Fields {
		if raw.Config == nil {
			r.logger.Warn("template field has no usable config",
				"field", raw.Name,
				"degraded", true,
			)
		}
		fields = append(fields, describeField(raw))
	}

	r.logger.Info("template resolved",
		"template", chosen.Name,
		"id", detail.ID,
		"fields", len(fields),
	)

	return &model.Template{
		ID:     detail.ID,
		Name:   chosen.Name,
		Fields: fields,
	}, nil
}

// pickTemplate prefers the active template named preferred, then the first
// active one.
func pickTemplate(summaries []model.TemplateSummary, preferred string) *model.TemplateSummary {
	for i := range summaries {
		if summaries[i].Active && summaries[i].Name == preferred {
			return &summaries[i]
		}
	}
	for i := range summaries {
		if summaries[i].Active {
			return &summaries[i]
		}
	}
	return nil
}

// describeField builds a descriptor from the platform's field config. A
// missing config yields a required text field labelled with its name.
func describeField(raw model.RawField) model.FieldDescriptor {
	field := model.FieldDescriptor{
		Name:     raw.Name,
		Label:    raw.Name,
		Type:     model.FieldTypeText,
		Required: true,
	}
	if raw.Config == nil {
		return field
	}

	if label, ok := raw.Config["label"].(string); ok && label != "" {
		field.Label = label
	}
	if typ, ok := raw.Config["type"].(string); ok {
		field.Type = translateFieldType(typ)
	}
	if optional, ok := raw.Config["optional"].(bool); ok {
		field.Required = !optional
	}
	if valueFrom, ok := raw.Config["valueFrom"].(string); ok {
		field.ValueFrom = valueFrom
		field.DimensionName = model.DimensionNameFromValueFrom(valueFrom)
	}

	return field
}

func translateFieldType(raw string) model.FieldType {
	switch raw {
	case "money":
		return model.FieldTypeMoney
	case "date":
		return model.FieldTypeDate
	case "select":
		return model.FieldTypeSelect
	case "number":
		return model.FieldTypeNumber
	case "checkbox":
		return model.FieldTypeCheckbox
	case "textarea":
		return model.FieldTypeLongText
	default:
		return model.FieldTypeText
	}
}
