package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Deletion rules, applied inside the caller's transaction:
//
//	group    -> accounts:             cascade
//	account  -> transactions:         cascade
//	account  -> targeted transfers:   nullify target
//	category -> transactions:         nullify category
//
// A transfer is owned by its source account. Deleting the source deletes the
// transfer even though the target account survives, so the target loses the
// inflow from its history. Deleting the target only clears the pointer.
// Both outcomes are counted in the DeleteResult.

// onDeleteAccount removes one account. deleting holds every account removed
// by the same cascade; transfers between two of them are neither lost nor
// detached from any surviving account's point of view.
func (s *SQLiteStorage) onDeleteAccount(ctx context.Context, tx *sql.Tx, id uuid.UUID, deleting accountSet, result *service.DeleteResult) error {
	found, err := exists(ctx, tx, "accounts", id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: account %s", common.ErrNotFound, id)
	}

	lost, err := countSurvivors(ctx, tx, deleting, `
		SELECT target_account_id FROM transactions
		WHERE account_id = ? AND target_account_id IS NOT NULL AND target_account_id != account_id
	`, id)
	if err != nil {
		return storeErr("failed to count outgoing transfers", err)
	}
	if lost > 0 {
		slog.Warn("deleting account removes transfers recorded in other accounts",
			"account_id", id, "transfers", lost)
	}

	detached, err := countSurvivors(ctx, tx, deleting, `
		SELECT account_id FROM transactions WHERE target_account_id = ?
	`, id)
	if err != nil {
		return storeErr("failed to count targeted transfers", err)
	}

	deleted, err := execCount(ctx, tx, `DELETE FROM transactions WHERE account_id = ?`, id)
	if err != nil {
		return storeErr("failed to delete account transactions", err)
	}
	if err := s.injectFault("account.transactions"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE transactions SET target_account_id = NULL WHERE target_account_id = ?`, id); err != nil {
		return storeErr("failed to detach targeted transfers", err)
	}
	if err := s.injectFault("account.targets"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return storeErr("failed to delete account", err)
	}

	result.AccountsDeleted++
	result.TransactionsDeleted += deleted
	result.TransfersDetached += detached
	result.TransfersLost += lost
	return nil
}

func (s *SQLiteStorage) onDeleteGroup(ctx context.Context, tx *sql.Tx, id uuid.UUID, result *service.DeleteResult) error {
	found, err := exists(ctx, tx, "account_groups", id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: group %s", common.ErrNotFound, id)
	}

	accounts, err := listAccounts(ctx, tx, &id)
	if err != nil {
		return err
	}

	deleting := make(accountSet, len(accounts))
	for _, account := range accounts {
		deleting[account.ID] = struct{}{}
	}

	for _, account := range accounts {
		if err := s.onDeleteAccount(ctx, tx, account.ID, deleting, result); err != nil {
			return fmt.Errorf("failed to delete account %s: %w", account.ID, err)
		}
		if err := s.injectFault("group.account"); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM account_groups WHERE id = ?`, id); err != nil {
		return storeErr("failed to delete group", err)
	}

	result.GroupsDeleted++
	return nil
}

func (s *SQLiteStorage) onDeleteCategory(ctx context.Context, tx *sql.Tx, id uuid.UUID, result *service.DeleteResult) error {
	found, err := exists(ctx, tx, "categories", id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: category %s", common.ErrNotFound, id)
	}

	cleared, err := execCount(ctx, tx, `UPDATE transactions SET category_id = NULL WHERE category_id = ?`, id)
	if err != nil {
		return storeErr("failed to clear category from transactions", err)
	}
	if err := s.injectFault("category.transactions"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return storeErr("failed to delete category", err)
	}

	result.CategoriesCleared += cleared
	return nil
}

func execCount(ctx context.Context, tx *sql.Tx, query string, args ...any) (int, error) {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// accountSet is the set of accounts removed by one cascade.
type accountSet map[uuid.UUID]struct{}

// countSurvivors runs a query selecting one account ID per row and counts
// the rows whose account is not in deleting.
func countSurvivors(ctx context.Context, tx *sql.Tx, deleting accountSet, query string, args ...any) (int, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	n := 0
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		if _, gone := deleting[id]; !gone {
			n++
		}
	}
	return n, rows.Err()
}
