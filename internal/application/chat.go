package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// Tool names offered to the language model.
const (
	ToolGetTemplateFields  = "get_template_fields"
	ToolCreateSmartExpense = "create_smart_expense"
	ToolGetDocumentByCode  = "get_document_by_code"
)

type toolHandler func(ctx context.Context, args map[string]any) model.ChatReply

// ChatService lets the language model pick a tool for each user message and
// runs it.
type ChatService struct {
	llm         driven.LanguageModel
	templates   TemplateSource
	submissions *SubmissionService
	tools       map[string]toolHandler
	logger      *slog.Logger
}

// NewChatService creates a ChatService with the required dependencies.
func NewChatService(
	llm driven.LanguageModel,
	templates TemplateSource,
	submissions *SubmissionService,
	logger *slog.Logger,
) *ChatService {
	s := &ChatService{
		llm:         llm,
		templates:   templates,
		submissions: submissions,
		logger:      logger,
	}
	s.tools = map[string]toolHandler{
		ToolGetTemplateFields:  s.templateFields,
		ToolCreateSmartExpense: s.createExpense,
		ToolGetDocumentByCode:  s.documentByCode,
	}
	return s
}

// Tools returns the tool definitions sent with every chat request.
func Tools() []model.ToolDefinition {
	return []model.ToolDefinition{
		{
			Name:        ToolGetTemplateFields,
			Description: "获取申请单模板的详细信息，包括所有可填字段及其规则。",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []string{},
			},
		},
		{
			Name:        ToolCreateSmartExpense,
			Description: "创建申请单，根据用户输入的信息智能创建申请单",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"user_input": map[string]any{
						"type":        "string",
						"description": "用户输入的申请单信息，包含标题、金额、项目等",
					},
				},
				"required": []string{"user_input"},
			},
		},
		{
			Name:        ToolGetDocumentByCode,
			Description: "根据申请单编号查询申请单详情",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code": map[string]any{
						"type":        "string",
						"description": "申请单编号，如S25000089",
					},
				},
				"required": []string{"code"},
			},
		},
	}
}

// Handle answers one user message given the prior conversation.
func (s *ChatService) Handle(ctx context.Context, message string, history []model.ChatMessage) model.ChatReply {
	messages := make([]model.ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, model.ChatMessage{Role: "user", Content: message})

	completion, err := s.llm.ChatWithTools(ctx, messages, Tools())
	if err != nil {
		s.logger.Error("chat completion", "error", err)
		return errorReply("❌ AI服务暂时无法响应，请稍后重试")
	}

	if len(completion.ToolCalls) == 0 {
		content := strings.TrimSpace(completion.Content)
		if content == "" {
			content = "抱歉，我无法理解您的请求。"
		}
		return model.ChatReply{Message: content, Type: model.ReplyTypeText}
	}

	call := completion.ToolCalls[0]
	handler, ok := s.tools[call.Name]
	if !ok {
		s.logger.Warn("model requested unknown tool", "tool", call.Name)
		return errorReply("未知的工具调用: " + call.Name)
	}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			s.logger.Warn("tool arguments are not JSON", "tool", call.Name, "error", err)
			return errorReply("❌ 无法解析工具参数")
		}
	}

	s.logger.Info("dispatching tool", "tool", call.Name)
	return handler(ctx, args)
}

func (s *ChatService) templateFields(ctx context.Context, _ map[string]any) model.ChatReply {
	tmpl, err := s.templates.ResolveTemplate(ctx)
	if err != nil {
		s.logger.Error("resolve template", "error", err)
		return errorReply(templateFailureMessage(err))
	}

	return model.ChatReply{
		Message: FormatTemplateFields(tmpl),
		Type:    model.ReplyTypeTemplateFields,
		Data: map[string]any{
			"template_id":   tmpl.ID,
			"template_name": tmpl.Name,
			"fields":        FieldViews(tmpl.Fields),
		},
	}
}

func (s *ChatService) createExpense(ctx context.Context, args map[string]any) model.ChatReply {
	input := strings.TrimSpace(valueString(args["user_input"]))
	if input == "" {
		return errorReply("❌ 请提供申请单内容")
	}

	result := s.submissions.Submit(ctx, input)
	if !result.Success {
		return errorReply(result.Message)
	}

	return model.ChatReply{
		Message: result.Message,
		Type:    model.ReplyTypeSuccess,
		Data: map[string]any{
			"document_code":  result.DocumentCode,
			"document_title": result.DocumentTitle,
			"flow_id":        result.FlowID,
		},
	}
}

func (s *ChatService) documentByCode(ctx context.Context, args map[string]any) model.ChatReply {
	code := strings.TrimSpace(valueString(args["code"]))
	if code == "" {
		return errorReply("❌ 请提供单据编号")
	}

	doc, err := s.submissions.DocumentByCode(ctx, code)
	if errors.Is(err, model.ErrNotFound) {
		return errorReply("❌ 未找到单据 " + code + "（仅能查询通过本助手创建的单据）")
	}
	if err != nil {
		s.logger.Error("look up document", "code", code, "error", err)
		return errorReply("❌ 查询单据失败，请稍后重试")
	}

	return model.ChatReply{
		Message: FormatDocument(doc),
		Type:    model.ReplyTypeSuccess,
		Data: map[string]any{
			"document_code":  doc.Code,
			"document_title": doc.Title,
			"flow_id":        doc.FlowID,
		},
	}
}

func errorReply(message string) model.ChatReply {
	return model.ChatReply{Message: message, Type: model.ReplyTypeError}
}

// FieldView is the client-facing description of a template field.
type FieldView struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Type      string `json:"type"`
	Required  bool   `json:"required"`
	ValueFrom string `json:"valueFrom,omitempty"`
}

// FieldViews renders descriptors for clients, with display type labels.
func FieldViews(fields []model.FieldDescriptor) []FieldView {
	views := make([]FieldView, 0, len(fields))
	for _, f := range fields {
		views = append(views, FieldView{
			Name:      f.Name,
			Label:     f.Label,
			Type:      f.Type.Label(),
			Required:  f.Required,
			ValueFrom: f.ValueFrom,
		})
	}
	return views
}

// FormatTemplateFields renders the template's field list as Markdown.
func FormatTemplateFields(tmpl *model.Template) string {
	var b strings.Builder
	b.WriteString("📋 **申请单模板字段信息**\n\n")
	fmt.Fprintf(&b, "**模板名称**: %s\n", tmpl.Name)
	fmt.Fprintf(&b, "**字段总数**: %d 个\n\n", len(tmpl.Fields))
	b.WriteString("**字段列表**:\n")
	for _, f := range tmpl.Fields {
		requirement := "[可选]"
		if f.Required {
			requirement = "[必填]"
		}
		fmt.Fprintf(&b, "- **%s** - %s %s\n", f.Label, f.Type.Label(), requirement)
	}
	b.WriteString("\n✅ 请提供以上字段的信息来创建申请单")
	return b.String()
}

// FormatDocument renders a ledger entry as Markdown.
func FormatDocument(doc *model.Document) string {
	amount := doc.Amount
	if amount == "" {
		amount = "N/A"
	}
	return fmt.Sprintf(`📄 **单据详情**

**单据编号**: %s
**单据标题**: %s
**申请金额**: %s元
**创建时间**: %s`,
		doc.Code, doc.Title, amount, doc.CreatedAt.Local().Format(time.DateTime))
}

// FormatArchiveOptions renders dimension options as Markdown, listing at
// most five items per field.
func FormatArchiveOptions(options []model.ArchiveOption) string {
	if len(options) == 0 {
		return "当前模板中没有档案字段"
	}

	var b strings.Builder
	b.WriteString("📋 **当前模板的档案字段选项**\n\n")
	fmt.Fprintf(&b, "找到 %d 个档案字段:\n\n", len(options))
	for _, opt := range options {
		if opt.Error != "" {
			fmt.Fprintf(&b, "- ❌ **%s**: %s\n", opt.FieldLabel, opt.Error)
			continue
		}

		names := make([]string, 0, 5)
		for i, item := range opt.Options {
			if i == 5 {
				break
			}
			names = append(names, item.Name)
		}
		list := strings.Join(names, ", ")
		if len(opt.Options) > 5 {
			list += fmt.Sprintf("...等%d个", len(opt.Options))
		}

		requirement := "[可选]"
		if opt.Required {
			requirement = "[必填]"
		}
		fmt.Fprintf(&b, "- 🗃️ **%s** %s: %s\n", opt.FieldLabel, requirement, list)
	}
	b.WriteString("\n✅ 创建申请单时，请从上述选项中选择相应的档案项")
	return b.String()
}
