package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/reimburse/internal/services/claims/storage"
)

// LearnMerchant records a corrected merchant for the user. Names match
// case-insensitively; a repeat bumps the usage count and keeps the latest
// category, amount and location.
func (s *Store) LearnMerchant(ctx context.Context, m storage.Merchant) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	m.UserID = strings.TrimSpace(m.UserID)
	m.Name = strings.TrimSpace(m.Name)
	if m.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if m.Name == "" {
		return fmt.Errorf("merchant name is required")
	}
	now := toMillis(s.now())
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO merchant_patterns (
		   user_id, merchant_name, category, last_amount, location, usage_count, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, 1, ?, ?)
		 ON CONFLICT (user_id, merchant_name) DO UPDATE SET
		   category = CASE WHEN excluded.category = '' THEN category ELSE excluded.category END,
		   last_amount = excluded.last_amount,
		   location = CASE WHEN excluded.location = '' THEN location ELSE excluded.location END,
		   usage_count = usage_count + 1,
		   updated_at = excluded.updated_at`,
		m.UserID,
		m.Name,
		strings.TrimSpace(m.Category),
		strings.TrimSpace(m.LastAmount),
		strings.TrimSpace(m.Location),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("learn merchant: %w", err)
	}
	return nil
}

// ListMerchants returns the user's learned merchants, most used first.
func (s *Store) ListMerchants(ctx context.Context, userID string) ([]storage.Merchant, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT user_id, merchant_name, category, last_amount, location, usage_count, created_at, updated_at
		   FROM merchant_patterns
		  WHERE user_id = ?
		  ORDER BY usage_count DESC, updated_at DESC, merchant_name ASC`,
		strings.TrimSpace(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	merchants := []storage.Merchant{}
	for rows.Next() {
		var m storage.Merchant
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&m.UserID,
			&m.Name,
			&m.Category,
			&m.LastAmount,
			&m.Location,
			&m.UsageCount,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("list merchants: %w", err)
		}
		m.CreatedAt = fromMillis(createdAt)
		m.UpdatedAt = fromMillis(updatedAt)
		merchants = append(merchants, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}
	return merchants, nil
}
