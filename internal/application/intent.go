package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

const (
	defaultTitle       = "AI申请单"
	defaultAmount      = "1000.00"
	maxDescriptionRune = 100
)

var (
	titlePatterns = []*regexp.Regexp{
		regexp.MustCompile(`标题[是为：:]\s*([^，,。\n]+)`),
		regexp.MustCompile(`申请\s*([^，,。\n]+)`),
		regexp.MustCompile(`([^，,。\n]*申请[^，,。\n]*)`),
	}
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`金额[是为：:]\s*(\d+\.?\d*)`),
		regexp.MustCompile(`(\d+\.?\d*)\s*元`),
		regexp.MustCompile(`￥\s*(\d+\.?\d*)`),
	}
)

// IntentExtractor turns free text into a field mapping for a template. An
// extractor always returns a mapping; its output is validated downstream.
type IntentExtractor interface {
	Extract(ctx context.Context, userText string, tmpl *model.Template) model.FieldMapping
}

// Compile-time interface satisfaction check.
var _ IntentExtractor = (*LLMIntentExtractor)(nil)

// LLMIntentExtractor asks the language model for a JSON field mapping and
// falls back to a regular-expression heuristic when the model fails or its
// reply holds no JSON object.
type LLMIntentExtractor struct {
	llm    driven.LanguageModel
	now    func() time.Time
	logger *slog.Logger
}

// NewLLMIntentExtractor creates an LLMIntentExtractor.
func NewLLMIntentExtractor(llm driven.LanguageModel, logger *slog.Logger) *LLMIntentExtractor {
	return &LLMIntentExtractor{
		llm:    llm,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock replaces the time source used in prompts and defaults.
func (e *LLMIntentExtractor) SetClock(now func() time.Time) {
	e.now = now
}

// Extract returns the model's mapping, or the heuristic one.
func (e *LLMIntentExtractor) Extract(ctx context.Context, userText string, tmpl *model.Template) model.FieldMapping {
	reply, err := e.llm.Complete(ctx, e.prompt(userText, tmpl))
	if err != nil {
		e.logger.Warn("ai extraction failed, using heuristic", "error", err, "degraded", true)
		return e.Fallback(userText)
	}

	mapping, err := parseMapping(reply)
	if err != nil {
		e.logger.Warn("ai reply has no field mapping, using heuristic",
			"error", err,
			"reply", truncateRunes(reply, 200),
			"degraded", true,
		)
		return e.Fallback(userText)
	}

	e.logger.Debug("ai field mapping", "fields", len(mapping))
	return mapping
}

// Fallback extracts a title and amount with fixed patterns and fills the
// remaining basics with defaults.
func (e *LLMIntentExtractor) Fallback(userText string) model.FieldMapping {
	title := defaultTitle
	for _, re := range titlePatterns {
		if m := re.FindStringSubmatch(userText); m != nil {
			if t := truncateRunes(strings.TrimSpace(m[1]), MaxTitleLength); t != "" {
				title = t
			}
			break
		}
	}

	amount := defaultAmount
	for _, re := range amountPatterns {
		if m := re.FindStringSubmatch(userText); m != nil {
			if f, err := strconv.ParseFloat(m[1], 64); err == nil {
				amount = fmt.Sprintf("%.2f", f)
			}
			break
		}
	}

	return model.FieldMapping{
		"title":            title,
		"requisitionMoney": model.NewCNY(amount),
		"description":      truncateRunes(userText, maxDescriptionRune),
		"requisitionDate":  e.now().UnixMilli(),
	}
}

func (e *LLMIntentExtractor) prompt(userText string, tmpl *model.Template) string {
	now := e.now()

	var fields strings.Builder
	for _, f := range tmpl.Fields {
		fmt.Fprintf(&fields, "- %s: %s (%s)", f.Name, f.Label, f.Type.Label())
		if f.Required {
			fields.WriteString(" [必填]")
		}
		if f.IsDimension() {
			fmt.Fprintf(&fields, " [档案: %s，填写档案项名称]", f.DimensionName)
		}
		fields.WriteByte('\n')
	}

	return fmt.Sprintf(extractionPrompt,
		userText,
		fields.String(),
		now.UnixMilli(),
		now.Add(24*time.Hour).UnixMilli(),
		MaxTitleLength,
	)
}

const extractionPrompt = `你是一个智能申请单助手。用户想要创建申请单，你需要从他们的自然语言输入中提取字段信息。

用户输入: %s

可用字段列表:
%s
字段格式要求：
- 金额类型: {"standard": "数字.00", "standardUnit": "元", "standardScale": 2, "standardSymbol": "¥", "standardNumCode": "156", "standardStrCode": "CNY"}
- 日期类型: 时间戳毫秒数。"今天" → %d，"明天" → %d；没有明确日期时使用今天
- 其他类型: 直接使用合适的值

规则：
1. 用户未提供的字段生成合理默认值
2. 标题不超过%d个字符

请直接返回JSON格式的完整字段映射，包含所有字段。`

// parseMapping accepts a bare JSON object or one embedded in prose, taking
// the span from the first '{' to the last '}'.
func parseMapping(reply string) (model.FieldMapping, error) {
	reply = strings.TrimSpace(reply)

	var mapping model.FieldMapping
	if err := json.Unmarshal([]byte(reply), &mapping); err == nil && mapping != nil {
		return mapping, nil
	}

	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in reply")
	}

	mapping = nil
	if err := json.Unmarshal([]byte(reply[start:end+1]), &mapping); err != nil {
		return nil, fmt.Errorf("decode embedded JSON: %w", err)
	}
	if mapping == nil {
		return nil, errors.New("embedded JSON is null")
	}
	return mapping, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
