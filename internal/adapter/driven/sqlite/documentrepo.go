package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ericfisherdev/requisitionbot/internal/domain/model"
	"github.com/ericfisherdev/requisitionbot/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DocumentStore = (*DocumentRepo)(nil)

// DocumentRepo is the SQLite implementation of the DocumentStore port.
type DocumentRepo struct {
	db *DB
}

// NewDocumentRepo creates a new DocumentRepo backed by the given DB.
func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Record inserts a document, replacing any earlier row with the same code.
// A zero CreatedAt is stamped with the current time.
func (r *DocumentRepo) Record(ctx context.Context, doc model.Document) error {
	const query = `
		INSERT INTO documents (code, title, flow_id, template_id, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			title = excluded.title,
			flow_id = excluded.flow_id,
			template_id = excluded.template_id,
			amount = excluded.amount,
			created_at = excluded.created_at
	`

	if doc.Code == "" {
		return errors.New("record document: empty code")
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		doc.Code, doc.Title, doc.FlowID, doc.TemplateID, doc.Amount,
		formatTime(createdAt),
	)
	if err != nil {
		return fmt.Errorf("record document %s: %w", doc.Code, err)
	}

	return nil
}

// GetByCode retrieves one document by its platform code.
func (r *DocumentRepo) GetByCode(ctx context.Context, code string) (*model.Document, error) {
	const query = `
		SELECT id, code, title, flow_id, template_id, amount, created_at
		FROM documents
		WHERE code = ?
	`

	doc, err := scanDocument(r.db.Reader.QueryRowContext(ctx, query, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", code, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", code, err)
	}

	return doc, nil
}

// ListRecent returns up to limit documents, newest first.
func (r *DocumentRepo) ListRecent(ctx context.Context, limit int) ([]model.Document, error) {
	const query = `
		SELECT id, code, title, flow_id, template_id, amount, created_at
		FROM documents
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.Document, error) {
	var doc model.Document
	var createdAt string

	err := s.Scan(&doc.ID, &doc.Code, &doc.Title, &doc.FlowID, &doc.TemplateID, &doc.Amount, &createdAt)
	if err != nil {
		return nil, err
	}

	doc.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &doc, nil
}

// timeLayout is fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		timeLayout,
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
