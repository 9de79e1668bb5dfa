package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/requisitionbot/internal/application"
	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

func newResolver(tokens application.TokenProvider, platform *mockPlatform) *application.TemplateResolver {
	return application.NewTemplateResolver(tokens, platform, "requisition", "AI申请单", discardLogger())
}

func TestResolveTemplate_PicksTemplate(t *testing.T) {
	tests := []struct {
		name      string
		templates []model.TemplateSummary
		wantID    string
	}{
		{
			name: "preferred active template",
			templates: []model.TemplateSummary{
				{ID: "spec-1", Name: "差旅申请", Active: true},
				{ID: "spec-2", Name: "AI申请单", Active: true},
			},
			wantID: "spec-2",
		},
		{
			name: "inactive preferred falls back to first active",
			templates: []model.TemplateSummary{
				{ID: "spec-1", Name: "AI申请单", Active: false},
				{ID: "spec-2", Name: "培训申请", Active: false},
				{ID: "spec-3", Name: "采购申请", Active: true},
			},
			wantID: "spec-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform := &mockPlatform{
				templates: tt.templates,
				detail:    &model.TemplateDetail{ID: tt.wantID + ":v1"},
			}
			resolver := newResolver(&stubTokens{token: "tok"}, platform)

			tmpl, err := resolver.ResolveTemplate(context.Background())

			require.NoError(t, err)
			assert.Equal(t, []string{tt.wantID}, platform.detailRequests)
			assert.Equal(t, tt.wantID+":v1", tmpl.ID)
		})
	}
}

func TestResolveTemplate_NoActiveTemplate(t *testing.T) {
	platform := &mockPlatform{templates: []model.TemplateSummary{{ID: "spec-1", Name: "AI申请单", Active: false}}}
	tokens := &stubTokens{token: "tok"}
	resolver := newResolver(tokens, platform)

	tmpl, err := resolver.ResolveTemplate(context.Background())

	assert.Nil(t, tmpl)
	var tmplErr *model.TemplateError
	require.True(t, errors.As(err, &tmplErr))
	assert.Nil(t, tmplErr.Err)
	assert.Empty(t, platform.detailRequests)
	assert.Equal(t, 1, tokens.forceCalls)
}

func TestResolveTemplate_ForcesRefreshBeforeEachCall(t *testing.T) {
	platform := &mockPlatform{
		templates: []model.TemplateSummary{{ID: "spec-2", Name: "AI申请单", Active: true}},
		detail:    &model.TemplateDetail{ID: "spec-2:v3"},
	}
	tokens := &stubTokens{token: "tok"}
	resolver := newResolver(tokens, platform)

	_, err := resolver.ResolveTemplate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, tokens.forceCalls)
	assert.Equal(t, 0, tokens.accessCalls)
}

func TestResolveTemplate_BuildsFieldDescriptors(t *testing.T) {
	platform := &mockPlatform{
		templates: []model.TemplateSummary{{ID: "spec-2", Name: "AI申请单", Active: true}},
		detail: &model.TemplateDetail{ID: "spec-2:v7", Fields: []model.RawField{
			{Name: "title", Config: map[string]any{"label": "标题", "type": "text"}},
			{Name: "requisitionMoney", Config: map[string]any{"label": "申请金额", "type": "money", "optional": false}},
			{Name: "description", Config: map[string]any{"label": "描述", "type": "textarea", "optional": true}},
			{Name: "u_员工", Config: map[string]any{"type": "staff"}},
			{Name: "u_部门", Config: map[string]any{"label": "部门", "type": "text", "valueFrom": "basedata.Dimension.部门"}},
			{Name: "broken", Config: nil},
		}},
	}
	resolver := newResolver(&stubTokens{token: "tok"}, platform)

	tmpl, err := resolver.ResolveTemplate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "AI申请单", tmpl.Name)
	assert.Equal(t, []model.FieldDescriptor{
		{Name: "title", Label: "标题", Type: model.FieldTypeText, Required: true},
		{Name: "requisitionMoney", Label: "申请金额", Type: model.FieldTypeMoney, Required: true},
		{Name: "description", Label: "描述", Type: model.FieldTypeLongText, Required: false},
		{Name: "u_员工", Label: "u_员工", Type: model.FieldTypeText, Required: true},
		{
			Name: "u_部门", Label: "部门", Type: model.FieldTypeText, Required: true,
			ValueFrom: "basedata.Dimension.部门", DimensionName: "部门",
		},
		{Name: "broken", Label: "broken", Type: model.FieldTypeText, Required: true},
	}, tmpl.Fields)

	require.NotNil(t, tmpl.Field("u_部门"))
	assert.True(t, tmpl.Field("u_部门").IsDimension())
	assert.Nil(t, tmpl.Field("missing"))
}

func TestResolveTemplate_PlatformErrors(t *testing.T) {
	listErr := errors.New("list down")
	detailErr := errors.New("detail down")

	tests := []struct {
		name     string
		platform *mockPlatform
		wantErr  error
	}{
		{
			name:     "list fails",
			platform: &mockPlatform{templatesErr: listErr},
			wantErr:  listErr,
		},
		{
			name: "detail fails",
			platform: &mockPlatform{
				templates: []model.TemplateSummary{{ID: "spec-2", Name: "AI申请单", Active: true}},
				detailErr: detailErr,
			},
			wantErr: detailErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newResolver(&stubTokens{token: "tok"}, tt.platform)

			_, err := resolver.ResolveTemplate(context.Background())

			var tmplErr *model.TemplateError
			require.True(t, errors.As(err, &tmplErr))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestResolveTemplate_TokenFailure(t *testing.T) {
	authErr := &model.AuthError{IssueErr: errors.New("bad secret")}
	platform := &mockPlatform{}
	resolver := newResolver(&stubTokens{err: authErr}, platform)

	_, err := resolver.ResolveTemplate(context.Background())

	var got *model.AuthError
	require.True(t, errors.As(err, &got))
	assert.Empty(t, platform.detailRequests)
}
