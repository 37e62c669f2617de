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

const accountColumns = `id, name, icon, color, kind, include_in_balance, display_order, group_id, created_at`

// CreateAccount persists a new account. An account without an explicit
// display order is placed after every existing account.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireGroup(ctx, tx, account.GroupID); err != nil {
			return err
		}

		if account.Order == 0 {
			if err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(display_order) + 1, 0) FROM accounts`).Scan(&account.Order); err != nil {
				return storeErr("failed to read display order", err)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO accounts (`+accountColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, account.ID, account.Name, account.Icon, account.Color, string(account.Kind),
			account.IncludeInBalance, account.Order, account.GroupID, account.CreatedAt)
		if err != nil {
			return storeErr("failed to create account", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("created account", "name", account.Name, "id", account.ID, "kind", account.Kind)
	return nil
}

// GetAccount returns the account with the given ID.
func (s *SQLiteStorage) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	account, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeErr("failed to get account", err)
	}

	return account, nil
}

// ListAccounts returns accounts in display order. A non-nil groupID limits
// the result to that group's accounts.
func (s *SQLiteStorage) ListAccounts(ctx context.Context, groupID *uuid.UUID) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return listAccounts(ctx, s.db, groupID)
}

func listAccounts(ctx context.Context, q queryable, groupID *uuid.UUID) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	var args []any
	if groupID != nil {
		query += ` WHERE group_id = ?`
		args = append(args, *groupID)
	}
	query += ` ORDER BY display_order, name`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("failed to query accounts", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, storeErr("failed to scan account", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating accounts", err)
	}

	return accounts, nil
}

// UpdateAccount saves every mutable field of an existing account,
// including its group.
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireGroup(ctx, tx, account.GroupID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE accounts
			SET name = ?, icon = ?, color = ?, kind = ?,
			    include_in_balance = ?, display_order = ?, group_id = ?
			WHERE id = ?
		`, account.Name, account.Icon, account.Color, string(account.Kind),
			account.IncludeInBalance, account.Order, account.GroupID, account.ID)
		if err != nil {
			return storeErr("failed to update account", err)
		}
		return requireAffected(result, "account", account.ID)
	})
}

// MoveAccount reparents an account. A nil groupID makes it groupless.
func (s *SQLiteStorage) MoveAccount(ctx context.Context, id uuid.UUID, groupID *uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireGroup(ctx, tx, groupID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `UPDATE accounts SET group_id = ? WHERE id = ?`, groupID, id)
		if err != nil {
			return storeErr("failed to move account", err)
		}
		return requireAffected(result, "account", id)
	})
	if err != nil {
		return err
	}

	slog.Info("moved account", "id", id, "group_id", groupID)
	return nil
}

// SetAccountOrder assigns display positions following the order of ids.
func (s *SQLiteStorage) SetAccountOrder(ctx context.Context, ids []uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: account ids", ErrNilParameter)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			result, err := tx.ExecContext(ctx, `UPDATE accounts SET display_order = ? WHERE id = ?`, i, id)
			if err != nil {
				return storeErr("failed to reorder accounts", err)
			}
			if err := requireAffected(result, "account", id); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAccount deletes an account and the transactions posted against it,
// and clears the target of transfers into it.
func (s *SQLiteStorage) DeleteAccount(ctx context.Context, id uuid.UUID) (*service.DeleteResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	result := &service.DeleteResult{}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return s.onDeleteAccount(ctx, tx, id, accountSet{id: {}}, result)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("deleted account",
		"id", id,
		"transactions", result.TransactionsDeleted,
		"transfers_detached", result.TransfersDetached)
	return result, nil
}

// requireGroup fails with common.ErrIntegrity if groupID names a group that
// does not exist. A nil groupID is always acceptable.
func requireGroup(ctx context.Context, q queryable, groupID *uuid.UUID) error {
	if groupID == nil {
		return nil
	}
	found, err := exists(ctx, q, "account_groups", *groupID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: group %s does not exist", common.ErrIntegrity, *groupID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	var (
		account model.Account
		kind    string
		groupID uuid.NullUUID
	)
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Icon,
		&account.Color,
		&kind,
		&account.IncludeInBalance,
		&account.Order,
		&groupID,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Kind = model.AccountKind(kind)
	account.GroupID = nullableID(groupID)
	return &account, nil
}

func nullableID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}
