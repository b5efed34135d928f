package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/reimburse/internal/platform/id"
	"github.com/louisbranch/reimburse/internal/services/claims/filter"
	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

// SaveDraft writes a draft. With an ID it updates that draft, which must
// belong to the user. Without one it inserts, or replaces the user's draft of
// the same name.
func (s *Store) SaveDraft(ctx context.Context, d storage.Draft) (storage.Draft, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Draft{}, err
	}
	d.ID = strings.TrimSpace(d.ID)
	d.UserID = strings.TrimSpace(d.UserID)
	d.Name = strings.TrimSpace(d.Name)
	if d.UserID == "" {
		return storage.Draft{}, fmt.Errorf("user id is required")
	}
	if d.FormData == "" {
		return storage.Draft{}, fmt.Errorf("form data is required")
	}
	if d.Name == "" {
		d.Name = storage.DefaultDraftName
	}
	if d.ReceiptsData == "" {
		d.ReceiptsData = "[]"
	}
	if d.GrandTotal == "" {
		d.GrandTotal = "0"
	}
	now := s.now().UTC()

	if d.ID != "" {
		result, err := s.sqlDB.ExecContext(
			ctx,
			`UPDATE drafts
			    SET draft_name = ?, form_data = ?, receipts_data = ?, grand_total = ?, updated_at = ?
			  WHERE id = ? AND user_id = ?`,
			d.Name, d.FormData, d.ReceiptsData, d.GrandTotal, toMillis(now),
			d.ID, d.UserID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.Draft{}, storage.ErrAlreadyExists
			}
			return storage.Draft{}, fmt.Errorf("update draft: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return storage.Draft{}, fmt.Errorf("update draft: %w", err)
		}
		if affected == 0 {
			return storage.Draft{}, storage.ErrNotFound
		}
		return s.GetDraft(ctx, d.UserID, d.ID)
	}

	newID, err := id.NewID()
	if err != nil {
		return storage.Draft{}, fmt.Errorf("draft id: %w", err)
	}
	var createdAt int64
	err = s.sqlDB.QueryRowContext(
		ctx,
		`INSERT INTO drafts (
		   id, user_id, draft_name, form_data, receipts_data, grand_total, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, draft_name) DO UPDATE SET
		   form_data = excluded.form_data,
		   receipts_data = excluded.receipts_data,
		   grand_total = excluded.grand_total,
		   updated_at = excluded.updated_at
		 RETURNING id, created_at`,
		newID, d.UserID, d.Name, d.FormData, d.ReceiptsData, d.GrandTotal, toMillis(now), toMillis(now),
	).Scan(&d.ID, &createdAt)
	if err != nil {
		return storage.Draft{}, fmt.Errorf("save draft: %w", err)
	}
	d.CreatedAt = fromMillis(createdAt)
	d.UpdatedAt = fromMillis(toMillis(now))
	return d, nil
}

// GetDraft returns one of the user's drafts.
func (s *Store) GetDraft(ctx context.Context, userID, draftID string) (storage.Draft, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Draft{}, err
	}
	var d storage.Draft
	var createdAt, updatedAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, draft_name, form_data, receipts_data, grand_total, created_at, updated_at
		   FROM drafts
		  WHERE id = ? AND user_id = ?`,
		strings.TrimSpace(draftID),
		strings.TrimSpace(userID),
	).Scan(&d.ID, &d.UserID, &d.Name, &d.FormData, &d.ReceiptsData, &d.GrandTotal, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Draft{}, storage.ErrNotFound
		}
		return storage.Draft{}, fmt.Errorf("get draft: %w", err)
	}
	d.CreatedAt = fromMillis(createdAt)
	d.UpdatedAt = fromMillis(updatedAt)
	return d, nil
}

// ListDrafts returns the user's drafts, most recently updated first,
// narrowed by cond when it has a clause.
func (s *Store) ListDrafts(ctx context.Context, userID string, cond filter.SQLCondition) ([]storage.DraftSummary, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	query := `SELECT id, draft_name, grand_total, created_at, updated_at
	            FROM drafts
	           WHERE user_id = ?`
	args := []any{userID}
	if cond.Clause != "" {
		query += " AND " + cond.Clause
		args = append(args, cond.Params...)
	}
	query += " ORDER BY updated_at DESC, id ASC"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	drafts := []storage.DraftSummary{}
	for rows.Next() {
		var d storage.DraftSummary
		var createdAt, updatedAt int64
		if err := rows.Scan(&d.ID, &d.Name, &d.GrandTotal, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("list drafts: %w", err)
		}
		d.CreatedAt = fromMillis(createdAt)
		d.UpdatedAt = fromMillis(updatedAt)
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return drafts, nil
}

// DeleteDraft removes one of the user's drafts.
func (s *Store) DeleteDraft(ctx context.Context, userID, draftID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.deleteOwned(ctx, "drafts", userID, draftID)
}

// deleteOwned removes the row id from table when it belongs to userID.
func (s *Store) deleteOwned(ctx context.Context, table, userID, rowID string) error {
	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM `+table+` WHERE id = ? AND user_id = ?`,
		strings.TrimSpace(rowID),
		strings.TrimSpace(userID),
	)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
