package model

// FieldMapping maps field names to raw values produced by the AI layer.
type FieldMapping map[string]any

// CoercedPayload maps field names to platform-ready wire values.
type CoercedPayload map[string]any

// Money is the platform's composite amount object.
type Money struct {
	Standard        string `json:"standard"`
	StandardUnit    string `json:"standardUnit"`
	StandardScale   int    `json:"standardScale"`
	StandardSymbol  string `json:"standardSymbol"`
	StandardNumCode string `json:"standardNumCode"`
	StandardStrCode string `json:"standardStrCode"`
}

// NewCNY returns a renminbi Money object for an already formatted amount
// such as "500.00".
func NewCNY(standard string) Money {
	return Money{
		Standard:        standard,
		StandardUnit:    "元",
		StandardScale:   2,
		StandardSymbol:  "¥",
		StandardNumCode: "156",
		StandardStrCode: "CNY",
	}
}
