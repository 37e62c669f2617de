package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// CreateCategory creates a new category. Names are unique.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	category.CreatedAt = time.Now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireUniqueCategoryName(ctx, tx, category); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, icon, color, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, category.ID, category.Name, category.Icon, category.Color, category.CreatedAt)
		if err != nil {
			return storeErr("failed to create category", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("created new category", "name", category.Name, "id", category.ID)
	return nil
}

// GetCategory returns the category with the given ID.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var cat model.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, icon, color, created_at
		FROM categories
		WHERE id = ?
	`, id).Scan(&cat.ID, &cat.Name, &cat.Icon, &cat.Color, &cat.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: category %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("failed to query category", err)
	}

	return &cat, nil
}

// ListCategories returns all categories ordered by name.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, icon, color, created_at
		FROM categories
		ORDER BY name`)
	if err != nil {
		return nil, storeErr("failed to query categories", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.Name, &cat.Icon, &cat.Color, &cat.CreatedAt); err != nil {
			return nil, storeErr("failed to scan category", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating categories", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// UpdateCategory renames or restyles an existing category.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(category); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireUniqueCategoryName(ctx, tx, category); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE categories SET name = ?, icon = ?, color = ?
			WHERE id = ?
		`, category.Name, category.Icon, category.Color, category.ID)
		if err != nil {
			return storeErr("failed to update category", err)
		}
		return requireAffected(result, "category", category.ID)
	})
}

// DeleteCategory removes a category after clearing it from every
// transaction that referenced it. No transaction is deleted.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id uuid.UUID) (*service.DeleteResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	result := &service.DeleteResult{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.onDeleteCategory(ctx, tx, id, result)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("deleted category", "id", id, "transactions_cleared", result.CategoriesCleared)
	return result, nil
}

func requireUniqueCategoryName(ctx context.Context, q queryable, category *model.Category) error {
	var taken bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM categories WHERE name = ? AND id != ?)
	`, category.Name, category.ID).Scan(&taken)
	if err != nil {
		return storeErr("failed to check existing category", err)
	}
	if taken {
		return fmt.Errorf("%w: %q", ErrDuplicateCategory, category.Name)
	}
	return nil
}

func requireCategory(ctx context.Context, q queryable, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	found, err := exists(ctx, q, "categories", *categoryID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: category %s does not exist", common.ErrIntegrity, *categoryID)
	}
	return nil
}
