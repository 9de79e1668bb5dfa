package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// DimensionService maps free-text values onto dimension item IDs. Categories
// and items are fetched on every call.
type DimensionService struct {
	tokens   TokenProvider
	platform driven.ExpensePlatform
	logger   *slog.Logger
}

// NewDimensionService creates a DimensionService with the required dependencies.
func NewDimensionService(tokens TokenProvider, platform driven.ExpensePlatform, logger *slog.Logger) *DimensionService {
	return &DimensionService{
		tokens:   tokens,
		platform: platform,
		logger:   logger,
	}
}

// ResolveItemID returns the ID of the item of category dimensionName that
// best matches raw: an exact name match, else a substring match in either
// direction, else the first item. When the category is missing, has no
// items or cannot be loaded, the raw text is returned unchanged. Empty
// values resolve to "".
func (s *DimensionService) ResolveItemID(ctx context.Context, dimensionName string, raw any) string {
	value := strings.TrimSpace(valueString(raw))
	if value == "" {
		s.logger.Warn("dimension value is empty", "dimension", dimensionName)
		return ""
	}

	items, err := s.itemsOf(ctx, dimensionName)
	if err != nil {
		s.logger.Warn("dimension lookup failed, keeping raw value",
			"dimension", dimensionName,
			"value", value,
			"error", err,
			"degraded", true,
		)
		return valueString(raw)
	}
	if len(items) == 0 {
		s.logger.Warn("dimension has no items, keeping raw value",
			"dimension", dimensionName,
			"value", value,
			"degraded", true,
		)
		return valueString(raw)
	}

	if item := matchItem(items, value); item != nil {
		s.logger.Debug("dimension value matched",
			"dimension", dimensionName,
			"value", value,
			"item", item.Name,
			"id", item.ID,
		)
		return item.ID
	}

	s.logger.Warn("no dimension item matched, using first item",
		"dimension", dimensionName,
		"value", value,
		"item", items[0].Name,
		"id", items[0].ID,
		"degraded", true,
	)
	return items[0].ID
}

// ArchiveOptions lists the selectable items of every dimension-bound field
// of tmpl. A field whose category is missing or whose items fail to load
// carries an Error instead of options.
func (s *DimensionService) ArchiveOptions(ctx context.Context, tmpl *model.Template) ([]model.ArchiveOption, error) {
	var bound []model.FieldDescriptor
	for _, f := range tmpl.Fields {
		if f.IsDimension() {
			bound = append(bound, f)
		}
	}
	if len(bound) == 0 {
		return []model.ArchiveOption{}, nil
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.platform.ListDimensions(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list dimension categories: %w", err)
	}

	options := make([]model.ArchiveOption, 0, len(bound))
	for _, f := range bound {
		opt := model.ArchiveOption{
			FieldName:   f.Name,
			FieldLabel:  f.Label,
			ArchiveName: f.DimensionName,
			Required:    f.Required,
			Options:     []model.DimensionItem{},
		}

		category := findCategory(categories, f.DimensionName)
		if category == nil {
			opt.Error = "未找到匹配的档案类别: " + f.DimensionName
			options = append(options, opt)
			continue
		}
		opt.CategoryID = category.ID

		items, err := s.platform.ListDimensionItems(ctx, token, category.ID)
		if err != nil {
			s.logger.Warn("load dimension items", "dimension", f.DimensionName, "error", err)
			opt.Error = "获取选项失败"
		} else {
			opt.Options = items
		}
		options = append(options, opt)
	}

	return options, nil
}

func (s *DimensionService) itemsOf(ctx context.Context, dimensionName string) ([]model.DimensionItem, error) {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.platform.ListDimensions(ctx, token)
	if err != nil {
		return nil, err
	}

	category := findCategory(categories, dimensionName)
	if category == nil {
		return nil, fmt.Errorf("no dimension category named %q", dimensionName)
	}

	return s.platform.ListDimensionItems(ctx, token, category.ID)
}

func findCategory(categories []model.DimensionCategory, name string) *model.DimensionCategory {
	for i := range categories {
		if categories[i].Name == name {
			return &categories[i]
		}
	}
	return nil
}

// matchItem prefers an exact name match over a substring match.
func matchItem(items []model.DimensionItem, value string) *model.DimensionItem {
	for i := range items {
		if strings.TrimSpace(items[i].Name) == value {
			return &items[i]
		}
	}
	for i := range items {
		name := strings.TrimSpace(items[i].Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, value) || strings.Contains(value, name) {
			return &items[i]
		}
	}
	return nil
}

// valueString renders a loosely typed value as text. nil is "".
func valueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
