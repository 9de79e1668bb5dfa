package model

// FieldType is the display taxonomy of a template field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeMoney    FieldType = "money"
	FieldTypeDate     FieldType = "date"
	FieldTypeSelect   FieldType = "select"
	FieldTypeNumber   FieldType = "number"
	FieldTypeCheckbox FieldType = "checkbox"
	FieldTypeLongText FieldType = "long-text"
)

// Label returns the Chinese display name used in prompts and chat replies.
func (t FieldType) Label() string {
	switch t {
	case FieldTypeMoney:
		return "金额"
	case FieldTypeDate:
		return "日期"
	case FieldTypeSelect:
		return "选择"
	case FieldTypeNumber:
		return "数字"
	case FieldTypeCheckbox:
		return "复选框"
	case FieldTypeLongText:
		return "长文本"
	default:
		return "文本"
	}
}

// ReplyType classifies a chat reply for the front-end.
type ReplyType string

const (
	ReplyTypeText           ReplyType = "text"
	ReplyTypeSuccess        ReplyType = "success"
	ReplyTypeError          ReplyType = "error"
	ReplyTypeTemplateFields ReplyType = "template_fields"
)
