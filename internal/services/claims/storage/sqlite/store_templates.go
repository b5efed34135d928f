package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

// CreateTemplate inserts a template.
func (s *Store) CreateTemplate(ctx context.Context, t storage.Template) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	t.ID = strings.TrimSpace(t.ID)
	t.UserID = strings.TrimSpace(t.UserID)
	t.Name = strings.TrimSpace(t.Name)
	switch {
	case t.ID == "":
		return fmt.Errorf("template id is required")
	case t.UserID == "":
		return fmt.Errorf("user id is required")
	case t.Name == "":
		return fmt.Errorf("template name is required")
	case t.FormData == "":
		return fmt.Errorf("form data is required")
	}
	if t.ReceiptsData == "" {
		t.ReceiptsData = "[]"
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO templates (id, user_id, template_name, form_data, receipts_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.FormData, t.ReceiptsData, toMillis(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// GetTemplate returns one of the user's templates.
func (s *Store) GetTemplate(ctx context.Context, userID, templateID string) (storage.Template, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Template{}, err
	}
	var t storage.Template
	var createdAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, template_name, form_data, receipts_data, created_at
		   FROM templates
		  WHERE id = ? AND user_id = ?`,
		strings.TrimSpace(templateID),
		strings.TrimSpace(userID),
	).Scan(&t.ID, &t.UserID, &t.Name, &t.FormData, &t.ReceiptsData, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Template{}, storage.ErrNotFound
		}
		return storage.Template{}, fmt.Errorf("get template: %w", err)
	}
	t.CreatedAt = fromMillis(createdAt)
	return t, nil
}

// ListTemplates returns the user's templates, newest first.
func (s *Store) ListTemplates(ctx context.Context, userID string) ([]storage.Template, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, user_id, template_name, form_data, receipts_data, created_at
		   FROM templates
		  WHERE user_id = ?
		  ORDER BY created_at DESC, id ASC`,
		strings.TrimSpace(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []storage.Template{}
	for rows.Next() {
		var t storage.Template
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.FormData, &t.ReceiptsData, &createdAt); err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		t.CreatedAt = fromMillis(createdAt)
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// DeleteTemplate removes one of the user's templates.
func (s *Store) DeleteTemplate(ctx context.Context, userID, templateID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.deleteOwned(ctx, "templates", userID, templateID)
}
