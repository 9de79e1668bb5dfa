package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// TemplateSource resolves the template requisitions are created from.
type TemplateSource interface {
	ResolveTemplate(ctx context.Context) (*model.Template, error)
}

// Compile-time interface satisfaction check.
var _ TemplateSource = (*TemplateResolver)(nil)

const unknownValue = "未知"

// SubmissionDeps bundles the collaborators of a SubmissionService.
type SubmissionDeps struct {
	Templates   TemplateSource
	Extractor   IntentExtractor
	Coercer     *FieldCoercer
	Tokens      TokenProvider
	Platform    driven.ExpensePlatform
	Documents   driven.DocumentStore
	SubmitterID string
	Logger      *slog.Logger
}

// SubmissionService turns free text into a created requisition. Each call
// resolves the template afresh and sends exactly one create request.
type SubmissionService struct {
	templates   TemplateSource
	extractor   IntentExtractor
	coercer     *FieldCoercer
	tokens      TokenProvider
	platform    driven.ExpensePlatform
	documents   driven.DocumentStore
	submitterID string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSubmissionService creates a SubmissionService from deps.
func NewSubmissionService(deps SubmissionDeps) *SubmissionService {
	return &SubmissionService{
		templates:   deps.Templates,
		extractor:   deps.Extractor,
		coercer:     deps.Coercer,
		tokens:      deps.Tokens,
		platform:    deps.Platform,
		documents:   deps.Documents,
		submitterID: deps.SubmitterID,
		now:         time.Now,
		logger:      deps.Logger,
	}
}

// SetClock replaces the time source used for confirmation timestamps.
func (s *SubmissionService) SetClock(now func() time.Time) {
	s.now = now
}

// Submit runs the whole pipeline for one user request. Failures are reported
// in the result and never as raw errors, except that a platform 400 body is
// passed through verbatim.
func (s *SubmissionService) Submit(ctx context.Context, userText string) model.SubmissionResult {
	tmpl, err := s.templates.ResolveTemplate(ctx)
	if err != nil {
		s.logger.Error("resolve template", "error", err)
		return failure(templateFailureMessage(err))
	}

	mapping := s.extractor.Extract(ctx, userText, tmpl)
	mapping["submitterId"] = s.submitterID

	if err := s.coercer.ValidateRequired(mapping, tmpl.Fields); err != nil {
		s.logger.Info("field mapping rejected", "error", err)
		return failure("❌ " + err.Error())
	}

	payload := make(model.CoercedPayload, len(mapping))
	for _, name := range slices.Sorted(maps.Keys(mapping)) {
		payload[name] = s.coercer.Coerce(ctx, name, mapping[name], tmpl.Field(name))
	}

	form := make(map[string]any, len(payload)+2)
	maps.Copy(form, payload)
	form["specificationId"] = tmpl.ID
	form["submitterId"] = s.submitterID

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		s.logger.Error("obtain token for create", "error", err)
		return failure("❌ 认证失败，请稍后重试")
	}

	flow, err := s.platform.CreateRequisition(ctx, token, map[string]any{"form": form})
	if err != nil {
		s.logger.Error("create requisition", "template", tmpl.ID, "error", err)
		result := failure(createFailureMessage(err))
		result.Payload = payload
		return result
	}

	code := orDefault(flow.Code, unknownValue)
	title := orDefault(flow.Title, unknownValue)
	amount := moneyStandard(payload["requisitionMoney"])
	createdAt := s.now()

	s.logger.Info("requisition created", "code", code, "flow", flow.FlowID, "template", tmpl.ID)

	if flow.Code != "" {
		doc := model.Document{
			Code:       flow.Code,
			Title:      flow.Title,
			FlowID:     flow.FlowID,
			TemplateID: tmpl.ID,
			Amount:     amount,
			CreatedAt:  createdAt,
		}
		if err := s.documents.Record(ctx, doc); err != nil {
			s.logger.Warn("record document in ledger", "code", flow.Code, "error", err)
		}
	}

	return model.SubmissionResult{
		Success:       true,
		Message:       confirmationMessage(code, title, amount, createdAt),
		DocumentCode:  code,
		DocumentTitle: title,
		FlowID:        flow.FlowID,
		Payload:       payload,
	}
}

// DocumentByCode returns a requisition recorded in the local ledger.
func (s *SubmissionService) DocumentByCode(ctx context.Context, code string) (*model.Document, error) {
	return s.documents.GetByCode(ctx, code)
}

// RecentDocuments returns up to limit recorded requisitions, newest first.
func (s *SubmissionService) RecentDocuments(ctx context.Context, limit int) ([]model.Document, error) {
	return s.documents.ListRecent(ctx, limit)
}

func failure(message string) model.SubmissionResult {
	return model.SubmissionResult{Success: false, Message: message}
}

func templateFailureMessage(err error) string {
	var authErr *model.AuthError
	var tmplErr *model.TemplateError
	switch {
	case errors.As(err, &authErr):
		return "❌ 认证失败，请稍后重试"
	case errors.As(err, &tmplErr) && tmplErr.Err == nil:
		return "❌ 未找到申请单模板"
	default:
		return "❌ 获取模板字段失败，请稍后重试"
	}
}

func createFailureMessage(err error) string {
	var subErr *model.SubmissionError
	if errors.As(err, &subErr) && subErr.StatusCode == http.StatusBadRequest {
		return "❌ 创建申请单失败 (400错误): " + subErr.Body
	}
	return "❌ 创建申请单失败，请稍后重试"
}

func confirmationMessage(code, title, amount string, createdAt time.Time) string {
	if amount == "" {
		amount = "N/A"
	}
	return fmt.Sprintf(`🎉 **申请单创建成功！**

**单据编号**: %s
**单据标题**: %s
**申请金额**: %s元
**创建时间**: %s
**当前状态**: 草稿

✅ 申请单已成功创建，您可以登录易快报系统查看详情`,
		code, title, amount, createdAt.Format(time.DateTime))
}

// moneyStandard reads the formatted amount out of a coerced money value.
func moneyStandard(v any) string {
	switch m := v.(type) {
	case model.Money:
		return m.Standard
	case *model.Money:
		if m != nil {
			return m.Standard
		}
	case map[string]any:
		return valueString(m["standard"])
	}
	return ""
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
