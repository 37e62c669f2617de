package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/service"
)

// ReassignCategory sets the category of a transaction, or clears it when
// categoryID is nil.
func (l *Ledger) ReassignCategory(ctx context.Context, txnID uuid.UUID, categoryID *uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SetTransactionCategory(ctx, txnID, categoryID); err != nil {
		return fmt.Errorf("failed to reassign category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. Transactions that used it are kept
// and become uncategorized.
func (l *Ledger) DeleteCategory(ctx context.Context, id uuid.UUID) (*service.DeleteResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.DeleteCategory(ctx, id)
}

// MoveAccount puts an account in another group, or in none when groupID is nil.
func (l *Ledger) MoveAccount(ctx context.Context, accountID uuid.UUID, groupID *uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireGroup(ctx, groupID); err != nil {
		return err
	}
	return l.store.MoveAccount(ctx, accountID, groupID)
}

// DeleteGroup deletes a group, its accounts and the transactions they own.
// Transfers elsewhere that targeted those accounts lose their destination.
// Nothing changes if any step fails.
func (l *Ledger) DeleteGroup(ctx context.Context, id uuid.UUID) (*service.DeleteResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.DeleteGroup(ctx, id)
}

// DeleteAccount deletes an account and the transactions it owns.
func (l *Ledger) DeleteAccount(ctx context.Context, id uuid.UUID) (*service.DeleteResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.DeleteAccount(ctx, id)
}

// ReorderAccounts sets the display order of the listed accounts to their
// position in ids. Accounts not listed keep their order.
func (l *Ledger) ReorderAccounts(ctx context.Context, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateAccount, id)
		}
		seen[id] = struct{}{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.SetAccountOrder(ctx, ids); err != nil {
		return err
	}
	slog.Debug("reordered accounts", "count", len(ids))
	return nil
}
