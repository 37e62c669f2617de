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

// CreateGroup persists a new account group, assigning an ID if it has none.
func (s *SQLiteStorage) CreateGroup(ctx context.Context, group *model.AccountGroup) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGroup(group); err != nil {
		return err
	}

	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	group.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_groups (id, name, icon, color, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, group.ID, group.Name, group.Icon, group.Color, group.CreatedAt)
	if err != nil {
		return storeErr("failed to create group", err)
	}

	slog.Info("created account group", "name", group.Name, "id", group.ID)
	return nil
}

// GetGroup returns the group with the given ID.
func (s *SQLiteStorage) GetGroup(ctx context.Context, id uuid.UUID) (*model.AccountGroup, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var group model.AccountGroup
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, icon, color, created_at
		FROM account_groups
		WHERE id = ?
	`, id).Scan(&group.ID, &group.Name, &group.Icon, &group.Color, &group.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("failed to get group", err)
	}

	return &group, nil
}

// ListGroups returns every account group ordered by name.
func (s *SQLiteStorage) ListGroups(ctx context.Context) ([]model.AccountGroup, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, icon, color, created_at
		FROM account_groups
		ORDER BY name, created_at`)
	if err != nil {
		return nil, storeErr("failed to query groups", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []model.AccountGroup
	for rows.Next() {
		var group model.AccountGroup
		if err := rows.Scan(&group.ID, &group.Name, &group.Icon, &group.Color, &group.CreatedAt); err != nil {
			return nil, storeErr("failed to scan group", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating groups", err)
	}

	slog.Debug("retrieved account groups", "count", len(groups))
	return groups, nil
}

// UpdateGroup saves the name, icon and color of an existing group.
func (s *SQLiteStorage) UpdateGroup(ctx context.Context, group *model.AccountGroup) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateGroup(group); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE account_groups SET name = ?, icon = ?, color = ?
		WHERE id = ?
	`, group.Name, group.Icon, group.Color, group.ID)
	if err != nil {
		return storeErr("failed to update group", err)
	}

	return requireAffected(result, "group", group.ID)
}

// DeleteGroup deletes a group together with its accounts and their
// transactions. The whole cascade commits or none of it does.
func (s *SQLiteStorage) DeleteGroup(ctx context.Context, id uuid.UUID) (*service.DeleteResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	result := &service.DeleteResult{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.onDeleteGroup(ctx, tx, id, result)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("deleted account group",
		"id", id,
		"accounts", result.AccountsDeleted,
		"transactions", result.TransactionsDeleted,
		"transfers_detached", result.TransfersDetached)
	return result, nil
}

// requireAffected turns an UPDATE or DELETE that matched nothing into
// common.ErrNotFound.
func requireAffected(result sql.Result, entity string, id uuid.UUID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return storeErr("failed to read affected rows", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", common.ErrNotFound, entity, id)
	}
	return nil
}
