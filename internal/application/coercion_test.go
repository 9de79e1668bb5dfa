package application_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/requisitionbot/internal/application"
	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

var (
	cst       = time.FixedZone("CST", 8*3600)
	coerceNow = time.Date(2026, 3, 1, 10, 30, 0, 0, cst)
)

func newCoercer(resolver application.DimensionResolver) *application.FieldCoercer {
	c := application.NewFieldCoercer(resolver, discardLogger())
	c.SetClock(fixedClock(coerceNow))
	return c
}

func midnight(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 0, 0, 0, 0, cst).UnixMilli()
}

func TestCoerceDate(t *testing.T) {
	nowMs := coerceNow.UnixMilli()

	tests := []struct {
		name string
		raw  any
		want int64
	}{
		{name: "seconds", raw: float64(1718000000), want: 1718000000000},
		{name: "milliseconds", raw: float64(1718000000000), want: 1718000000000},
		{name: "int seconds", raw: 1718000000, want: 1718000000000},
		{name: "json number", raw: json.Number("1718000000"), want: 1718000000000},
		{name: "numeric string", raw: "1718000000", want: 1718000000000},
		{name: "iso date", raw: "2024-01-15", want: midnight(2024, time.January, 15)},
		{name: "slashed date", raw: "2024/1/5", want: midnight(2024, time.January, 5)},
		{name: "label prefix stripped", raw: "申请日期：2024-01-15", want: midnight(2024, time.January, 15)},
		{name: "month-day uses current year", raw: "03-08", want: midnight(2026, time.March, 8)},
		{name: "month/day uses current year", raw: "3/8", want: midnight(2026, time.March, 8)},
		{name: "chinese month day", raw: "5月20日", want: midnight(2026, time.May, 20)},
		{name: "invalid chinese date", raw: "13月99日", want: nowMs},
		{name: "first match decides", raw: "2024-02-30", want: nowMs},
		{name: "relative words", raw: "下周一", want: nowMs},
		{name: "empty string", raw: "", want: nowMs},
		{name: "nil", raw: nil, want: nowMs},
		{name: "bool", raw: true, want: nowMs},
		{name: "nan string", raw: "NaN", want: nowMs},
		{name: "inf string", raw: "Inf", want: nowMs},
		{name: "infinity string", raw: "infinity", want: nowMs},
		{name: "exponent string", raw: "1e30", want: nowMs},
		{name: "overflowing float", raw: float64(1e30), want: nowMs},
		{name: "nan float", raw: math.NaN(), want: nowMs},
		{name: "inf float", raw: math.Inf(-1), want: nowMs},
		{name: "overflowing digits", raw: "99999999999999999999", want: nowMs},
		{name: "compact date", raw: "20240115", want: nowMs},
	}

	c := newCoercer(&recordingResolver{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.CoerceDate(tt.raw))
		})
	}
}

func TestCoerce_Money(t *testing.T) {
	composite := map[string]any{"standard": "12.00", "standardUnit": "元"}

	tests := []struct {
		name string
		raw  any
		want any
	}{
		{name: "composite map passes through", raw: composite, want: composite},
		{name: "money value passes through", raw: model.NewCNY("9.90"), want: model.NewCNY("9.90")},
		{name: "bare number is wrapped", raw: float64(500), want: model.NewCNY("500.00")},
		{name: "numeric string is wrapped", raw: " 88.5 ", want: model.NewCNY("88.50")},
		{name: "text passes through", raw: "五百", want: "五百"},
		{name: "nan string passes through", raw: "NaN", want: "NaN"},
		{name: "inf string passes through", raw: "Inf", want: "Inf"},
		{name: "exponent string passes through", raw: "5e2", want: "5e2"},
	}

	c := newCoercer(&recordingResolver{})
	field := &model.FieldDescriptor{Name: "requisitionMoney", Type: model.FieldTypeMoney}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Coerce(context.Background(), field.Name, tt.raw, field))
		})
	}
}

func TestCoerce_Passthrough(t *testing.T) {
	c := newCoercer(&recordingResolver{})
	ctx := context.Background()

	assert.Equal(t, "anything", c.Coerce(ctx, "unknown", "anything", nil))
	assert.Equal(t, "备注", c.Coerce(ctx, "description", "备注", &model.FieldDescriptor{Type: model.FieldTypeLongText}))
	assert.Equal(t, true, c.Coerce(ctx, "flag", true, &model.FieldDescriptor{Type: model.FieldTypeCheckbox}))
}

func TestCoerce_DateField(t *testing.T) {
	c := newCoercer(&recordingResolver{})

	got := c.Coerce(context.Background(), "requisitionDate", "2024-01-15", &model.FieldDescriptor{Type: model.FieldTypeDate})

	assert.Equal(t, midnight(2024, time.January, 15), got)
}

func TestCoerce_DimensionTakesPrecedence(t *testing.T) {
	resolver := &recordingResolver{id: "D1"}
	c := newCoercer(resolver)
	field := &model.FieldDescriptor{
		Name:          "u_部门",
		Type:          model.FieldTypeDate,
		ValueFrom:     "basedata.Dimension.部门",
		DimensionName: "部门",
	}

	got := c.Coerce(context.Background(), field.Name, "财务", field)

	assert.Equal(t, "D1", got)
	assert.Equal(t, []string{"部门"}, resolver.calls)
}

func TestValidateRequired(t *testing.T) {
	fields := []model.FieldDescriptor{
		{Name: "title", Label: "标题", Required: true},
		{Name: "requisitionMoney", Label: "申请金额", Required: true},
		{Name: "requisitionDate", Label: "申请日期", Required: true},
		{Name: "description", Label: "描述", Required: false},
	}

	tests := []struct {
		name      string
		mapping   model.FieldMapping
		wantField string
	}{
		{
			name:    "complete mapping",
			mapping: model.FieldMapping{"title": "培训费", "requisitionMoney": "500", "requisitionDate": 1},
		},
		{
			name:      "missing money",
			mapping:   model.FieldMapping{"title": "培训费", "requisitionDate": 1},
			wantField: "requisitionMoney",
		},
		{
			name:      "first missing field reported",
			mapping:   model.FieldMapping{"title": "培训费"},
			wantField: "requisitionMoney",
		},
		{
			name:      "title of fifteen characters",
			mapping:   model.FieldMapping{"title": "一二三四五六七八九十一二三四五", "requisitionMoney": "1", "requisitionDate": 1},
			wantField: "title",
		},
		{
			name:    "title of fourteen characters",
			mapping: model.FieldMapping{"title": "一二三四五六七八九十一二三四", "requisitionMoney": "1", "requisitionDate": 1},
		},
	}

	c := newCoercer(&recordingResolver{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.ValidateRequired(tt.mapping, fields)

			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var valErr *model.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.wantField, valErr.Field)
			assert.NotEmpty(t, valErr.Message)
		})
	}
}

func TestValidateRequired_MessageNamesLabel(t *testing.T) {
	c := newCoercer(&recordingResolver{})

	err := c.ValidateRequired(model.FieldMapping{}, []model.FieldDescriptor{{Name: "requisitionMoney", Label: "申请金额", Required: true}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "申请金额")
}
