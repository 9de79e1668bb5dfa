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

func departmentPlatform() *mockPlatform {
	return &mockPlatform{
		categories: []model.DimensionCategory{
			{ID: "dim-proj", Name: "项目", Enabled: true},
			{ID: "dim-dept", Name: "部门", Enabled: true},
		},
		items: map[string][]model.DimensionItem{
			"dim-dept": {
				{ID: "D1", Name: "财务部", Enabled: true},
				{ID: "D2", Name: "市场部", Enabled: true},
			},
			"dim-proj": {
				{ID: "P1", Name: "财务系统升级项目", Enabled: true},
				{ID: "P2", Name: "财务系统", Enabled: true},
			},
		},
	}
}

func TestResolveItemID(t *testing.T) {
	tests := []struct {
		name      string
		dimension string
		raw       any
		want      string
	}{
		{name: "value contained in item name", dimension: "部门", raw: "财务", want: "D1"},
		{name: "item name contained in value", dimension: "部门", raw: "市场部华东组", want: "D2"},
		{name: "exact match beats earlier substring", dimension: "项目", raw: "财务系统", want: "P2"},
		{name: "surrounding space ignored", dimension: "部门", raw: " 市场部 ", want: "D2"},
		{name: "no match uses first item", dimension: "部门", raw: "研发部", want: "D1"},
		{name: "missing category keeps raw text", dimension: "成本中心", raw: "财务", want: "财务"},
		{name: "missing category renders numbers", dimension: "成本中心", raw: float64(42), want: "42"},
		{name: "empty value", dimension: "部门", raw: "", want: ""},
		{name: "nil value", dimension: "部门", raw: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := application.NewDimensionService(&stubTokens{token: "tok"}, departmentPlatform(), discardLogger())

			assert.Equal(t, tt.want, svc.ResolveItemID(context.Background(), tt.dimension, tt.raw))
		})
	}
}

func TestResolveItemID_EmptyValueSkipsLookup(t *testing.T) {
	tokens := &stubTokens{token: "tok"}
	platform := departmentPlatform()
	svc := application.NewDimensionService(tokens, platform, discardLogger())

	assert.Empty(t, svc.ResolveItemID(context.Background(), "部门", "  "))
	assert.Equal(t, 0, tokens.accessCalls)
	assert.Empty(t, platform.itemRequests)
}

func TestResolveItemID_DegradesToRawValue(t *testing.T) {
	tests := []struct {
		name     string
		tokens   *stubTokens
		platform *mockPlatform
	}{
		{
			name:     "token failure",
			tokens:   &stubTokens{err: errors.New("auth down")},
			platform: departmentPlatform(),
		},
		{
			name:     "categories failure",
			tokens:   &stubTokens{token: "tok"},
			platform: &mockPlatform{categoriesErr: errors.New("down")},
		},
		{
			name:   "items failure",
			tokens: &stubTokens{token: "tok"},
			platform: &mockPlatform{
				categories: []model.DimensionCategory{{ID: "dim-dept", Name: "部门"}},
				itemsErr:   errors.New("down"),
			},
		},
		{
			name:   "category without items",
			tokens: &stubTokens{token: "tok"},
			platform: &mockPlatform{
				categories: []model.DimensionCategory{{ID: "dim-dept", Name: "部门"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := application.NewDimensionService(tt.tokens, tt.platform, discardLogger())

			assert.Equal(t, "财务", svc.ResolveItemID(context.Background(), "部门", "财务"))
		})
	}
}

func TestArchiveOptions(t *testing.T) {
	platform := departmentPlatform()
	platform.categories = platform.categories[1:] // only 部门
	svc := application.NewDimensionService(&stubTokens{token: "tok"}, platform, discardLogger())
	tmpl := &model.Template{Fields: []model.FieldDescriptor{
		{Name: "title", Label: "标题", Required: true},
		{Name: "u_部门", Label: "部门", Required: true, ValueFrom: "basedata.Dimension.部门", DimensionName: "部门"},
		{Name: "u_项目", Label: "项目", ValueFrom: "basedata.Dimension.项目", DimensionName: "项目"},
	}}

	options, err := svc.ArchiveOptions(context.Background(), tmpl)

	require.NoError(t, err)
	require.Len(t, options, 2)

	assert.Equal(t, "u_部门", options[0].FieldName)
	assert.Equal(t, "dim-dept", options[0].CategoryID)
	assert.True(t, options[0].Required)
	assert.Empty(t, options[0].Error)
	require.Len(t, options[0].Options, 2)
	assert.Equal(t, "财务部", options[0].Options[0].Name)

	assert.Equal(t, "u_项目", options[1].FieldName)
	assert.Empty(t, options[1].CategoryID)
	assert.Empty(t, options[1].Options)
	assert.Contains(t, options[1].Error, "项目")
}

func TestArchiveOptions_ItemsFailureIsPerField(t *testing.T) {
	platform := departmentPlatform()
	platform.itemsErr = errors.New("down")
	svc := application.NewDimensionService(&stubTokens{token: "tok"}, platform, discardLogger())
	tmpl := &model.Template{Fields: []model.FieldDescriptor{
		{Name: "u_部门", Label: "部门", DimensionName: "部门"},
	}}

	options, err := svc.ArchiveOptions(context.Background(), tmpl)

	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "dim-dept", options[0].CategoryID)
	assert.NotEmpty(t, options[0].Error)
}

func TestArchiveOptions_NoDimensionFields(t *testing.T) {
	tokens := &stubTokens{token: "tok"}
	svc := application.NewDimensionService(tokens, &mockPlatform{}, discardLogger())

	options, err := svc.ArchiveOptions(context.Background(), &model.Template{Fields: []model.FieldDescriptor{{Name: "title"}}})

	require.NoError(t, err)
	assert.Empty(t, options)
	assert.Equal(t, 0, tokens.accessCalls)
}

func TestArchiveOptions_CategoriesFailure(t *testing.T) {
	svc := application.NewDimensionService(&stubTokens{token: "tok"}, &mockPlatform{categoriesErr: errors.New("down")}, discardLogger())
	tmpl := &model.Template{Fields: []model.FieldDescriptor{{Name: "u_部门", DimensionName: "部门"}}}

	_, err := svc.ArchiveOptions(context.Background(), tmpl)

	require.Error(t, err)
}
