package model

import "strings"

// DimensionValuePrefix marks a field whose value is picked from a custom
// dimension (archive) list, e.g. "basedata.Dimension.项目".
const DimensionValuePrefix = "basedata.Dimension."

// TemplateSummary is one entry of the platform's template list.
type TemplateSummary struct {
	ID     string
	Name   string
	Active bool
}

// RawField is a template field exactly as the platform described it, after
// the form shape has been normalised. Config is nil when the platform sent
// something that is not an object.
type RawField struct {
	Name   string
	Config map[string]any
}

// TemplateDetail is the editable view of one template.
type TemplateDetail struct {
	ID     string // Full versioned ID, used as specificationId.
	Fields []RawField
}

// FieldDescriptor describes one form field the AI layer may fill.
type FieldDescriptor struct {
	Name          string
	Label         string
	Type          FieldType
	Required      bool
	ValueFrom     string
	DimensionName string
}

// IsDimension reports whether the field is bound to a dimension list.
func (f FieldDescriptor) IsDimension() bool {
	return f.DimensionName != ""
}

// DimensionNameFromValueFrom extracts <Name> from "basedata.Dimension.<Name>".
// It returns "" when valueFrom does not follow that pattern.
func DimensionNameFromValueFrom(valueFrom string) string {
	if !strings.HasPrefix(valueFrom, DimensionValuePrefix) {
		return ""
	}
	return strings.TrimPrefix(valueFrom, DimensionValuePrefix)
}

// Template is a resolved requisition template with its live field set.
type Template struct {
	ID     string
	Name   string
	Fields []FieldDescriptor
}

// Field returns the descriptor with the given name, or nil.
func (t *Template) Field(name string) *FieldDescriptor {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}
