package application_test

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// --- TokenIssuer ---

type mockIssuer struct {
	mu            sync.Mutex
	issueCred     *model.Credential
	issueErr      error
	refreshCred   *model.Credential
	refreshErr    error
	issueCalls    int
	refreshCalls  int
	refreshedWith []model.Credential
}

func (m *mockIssuer) IssueToken(_ context.Context) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issueCalls++
	if m.issueErr != nil {
		return nil, m.issueErr
	}
	cred := *m.issueCred
	return &cred, nil
}

func (m *mockIssuer) RefreshToken(_ context.Context, current model.Credential) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshCalls++
	m.refreshedWith = append(m.refreshedWith, current)
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	cred := *m.refreshCred
	return &cred, nil
}

func (m *mockIssuer) calls() (issue, refresh int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issueCalls, m.refreshCalls
}

// --- CredentialStore ---

type mockCredentialStore struct {
	mu      sync.Mutex
	cred    *model.Credential
	loadErr error
	saveErr error
	saved   []model.Credential
}

func (m *mockCredentialStore) Load(_ context.Context) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.cred == nil {
		return nil, nil
	}
	cred := *m.cred
	return &cred, nil
}

func (m *mockCredentialStore) Save(_ context.Context, cred model.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, cred)
	return m.saveErr
}

// --- TokenProvider ---

type stubTokens struct {
	token       string
	err         error
	accessCalls int
	forceCalls  int
}

func (s *stubTokens) AccessToken(_ context.Context) (string, error) {
	s.accessCalls++
	return s.token, s.err
}

func (s *stubTokens) ForceRefresh(_ context.Context) (string, error) {
	s.forceCalls++
	return s.token, s.err
}

// --- ExpensePlatform ---

type mockPlatform struct {
	templates     []model.TemplateSummary
	templatesErr  error
	detail        *model.TemplateDetail
	detailErr     error
	categories    []model.DimensionCategory
	categoriesErr error
	items         map[string][]model.DimensionItem
	itemsErr      error
	created       *model.CreatedFlow
	createErr     error

	detailRequests []string
	itemRequests   []string
	createBodies   []map[string]any
	createTokens   []string
}

func (m *mockPlatform) ListTemplates(_ context.Context, _, _ string) ([]model.TemplateSummary, error) {
	return m.templates, m.templatesErr
}

func (m *mockPlatform) GetTemplateDetail(_ context.Context, _, templateID string) (*model.TemplateDetail, error) {
	m.detailRequests = append(m.detailRequests, templateID)
	if m.detailErr != nil {
		return nil, m.detailErr
	}
	return m.detail, nil
}

func (m *mockPlatform) ListDimensions(_ context.Context, _ string) ([]model.DimensionCategory, error) {
	return m.categories, m.categoriesErr
}

func (m *mockPlatform) ListDimensionItems(_ context.Context, _, dimensionID string) ([]model.DimensionItem, error) {
	m.itemRequests = append(m.itemRequests, dimensionID)
	if m.itemsErr != nil {
		return nil, m.itemsErr
	}
	return m.items[dimensionID], nil
}

func (m *mockPlatform) CreateRequisition(_ context.Context, token string, body map[string]any) (*model.CreatedFlow, error) {
	m.createTokens = append(m.createTokens, token)
	m.createBodies = append(m.createBodies, body)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.created, nil
}

// --- LanguageModel ---

type mockLanguageModel struct {
	reply      string
	err        error
	completion *model.ChatCompletion
	chatErr    error

	prompts      []string
	chatMessages [][]model.ChatMessage
	chatTools    [][]model.ToolDefinition
}

func (m *mockLanguageModel) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

func (m *mockLanguageModel) ChatWithTools(_ context.Context, messages []model.ChatMessage, tools []model.ToolDefinition) (*model.ChatCompletion, error) {
	m.chatMessages = append(m.chatMessages, messages)
	m.chatTools = append(m.chatTools, tools)
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	return m.completion, nil
}

// --- DocumentStore ---

type mockDocumentStore struct {
	docs      map[string]model.Document
	recordErr error
	recorded  []model.Document
}

func (m *mockDocumentStore) Record(_ context.Context, doc model.Document) error {
	m.recorded = append(m.recorded, doc)
	if m.recordErr != nil {
		return m.recordErr
	}
	if m.docs == nil {
		m.docs = map[string]model.Document{}
	}
	m.docs[doc.Code] = doc
	return nil
}

func (m *mockDocumentStore) GetByCode(_ context.Context, code string) (*model.Document, error) {
	doc, ok := m.docs[code]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &doc, nil
}

func (m *mockDocumentStore) ListRecent(_ context.Context, limit int) ([]model.Document, error) {
	var docs []model.Document
	for _, d := range m.docs {
		if len(docs) == limit {
			break
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// --- DimensionResolver ---

type recordingResolver struct {
	id    string
	calls []string
}

func (r *recordingResolver) ResolveItemID(_ context.Context, dimensionName string, _ any) string {
	r.calls = append(r.calls, dimensionName)
	return r.id
}
