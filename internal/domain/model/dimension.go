package model

// DimensionCategory is a custom reference list defined on the platform,
// such as a department or project list.
type DimensionCategory struct {
	ID      string
	Name    string
	Code    string
	Enabled bool
}

// DimensionItem is one selectable entry of a DimensionCategory.
type DimensionItem struct {
	ID      string
	Name    string
	Code    string
	Enabled bool
}

// ArchiveOption lists the selectable items of one dimension-bound template
// field. Error is set when the category or its items could not be loaded.
type ArchiveOption struct {
	FieldName   string
	FieldLabel  string
	ArchiveName string
	Required    bool
	CategoryID  string
	Options     []DimensionItem
	Error       string
}
