// Package ledger implements the ledger core on top of a service.Storage:
// balances, transfers, postings and re-grouping. A Ledger serializes
// mutations behind a single writer lock while balance and list reads run
// concurrently with each other.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Business-rule violations. Each wraps common.ErrValidation.
var (
	ErrSameAccount       = fmt.Errorf("%w: source and destination are the same account", common.ErrValidation)
	ErrNonPositiveAmount = fmt.Errorf("%w: amount must be greater than zero", common.ErrValidation)
	ErrUnknownAccount    = fmt.Errorf("%w: account does not exist", common.ErrValidation)
	ErrUnknownGroup      = fmt.Errorf("%w: group does not exist", common.ErrValidation)
	ErrNotTransfer       = fmt.Errorf("%w: transaction is not a transfer", common.ErrValidation)
	ErrNotPosting        = fmt.Errorf("%w: transaction is not an income or expense posting", common.ErrValidation)
	ErrDuplicateAccount  = fmt.Errorf("%w: account listed more than once", common.ErrValidation)
)

// Ledger is the entry point for every read and write against the books.
type Ledger struct {
	store service.Storage
	now   func() time.Time
	mu    sync.RWMutex
}

// New creates a ledger backed by store. The store must already be migrated.
func New(store service.Storage) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
	}
}

// PostingRequest describes a single-account income or expense.
type PostingRequest struct {
	Date               time.Time // zero means now
	Amount             decimal.Decimal
	CategoryID         *uuid.UUID
	Note               string
	Usage              string
	Type               model.TransactionType
	Account            uuid.UUID
	ExcludeFromBalance bool
}

// PostingEdit lists the fields of a posting to change. Nil fields are kept.
type PostingEdit struct {
	Amount             *decimal.Decimal
	Type               *model.TransactionType
	Date               *time.Time
	Note               *string
	Usage              *string
	ExcludeFromBalance *bool
}

// CreateGroup adds an account group.
func (l *Ledger) CreateGroup(ctx context.Context, group *model.AccountGroup) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.CreateGroup(ctx, group)
}

// UpdateGroup renames or restyles a group.
func (l *Ledger) UpdateGroup(ctx context.Context, group *model.AccountGroup) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.UpdateGroup(ctx, group)
}

// GetGroup returns a group by ID.
func (l *Ledger) GetGroup(ctx context.Context, id uuid.UUID) (*model.AccountGroup, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetGroup(ctx, id)
}

// ListGroups returns every group.
func (l *Ledger) ListGroups(ctx context.Context) ([]model.AccountGroup, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListGroups(ctx)
}

// CreateAccount adds an account. A group reference that does not resolve
// is rejected with ErrUnknownGroup.
func (l *Ledger) CreateAccount(ctx context.Context, account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account is nil", common.ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireGroup(ctx, account.GroupID); err != nil {
		return err
	}
	return l.store.CreateAccount(ctx, account)
}

// UpdateAccount saves an account's mutable fields, including its group.
func (l *Ledger) UpdateAccount(ctx context.Context, account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account is nil", common.ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireGroup(ctx, account.GroupID); err != nil {
		return err
	}
	return l.store.UpdateAccount(ctx, account)
}

// GetAccount returns an account by ID.
func (l *Ledger) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetAccount(ctx, id)
}

// ListAccounts returns accounts in display order, optionally limited to one group.
func (l *Ledger) ListAccounts(ctx context.Context, groupID *uuid.UUID) ([]model.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListAccounts(ctx, groupID)
}

// CreateCategory adds a category.
func (l *Ledger) CreateCategory(ctx context.Context, category *model.Category) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.CreateCategory(ctx, category)
}

// UpdateCategory renames or restyles a category.
func (l *Ledger) UpdateCategory(ctx context.Context, category *model.Category) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.UpdateCategory(ctx, category)
}

// GetCategory returns a category by ID.
func (l *Ledger) GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetCategory(ctx, id)
}

// ListCategories returns every category.
func (l *Ledger) ListCategories(ctx context.Context) ([]model.Category, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListCategories(ctx)
}

// GetTransaction returns a transaction by ID.
func (l *Ledger) GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.GetTransaction(ctx, id)
}

// ListTransactions returns transactions matching filter, oldest first.
func (l *Ledger) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.ListTransactions(ctx, filter)
}

// CreateSimplePosting records an income or expense against one account.
// The sign of req.Amount is ignored: income is stored positive and
// expenses negative. Zero amounts are accepted.
func (l *Ledger) CreateSimplePosting(ctx context.Context, req PostingRequest) (*model.Transaction, error) {
	if !req.Type.IsPosting() {
		return nil, fmt.Errorf("%w: got type %q", ErrNotPosting, req.Type)
	}

	date := req.Date
	if date.IsZero() {
		date = l.now()
	}

	txn := &model.Transaction{
		AccountID:          req.Account,
		CategoryID:         req.CategoryID,
		Type:               req.Type,
		Amount:             model.NormalizeAmount(req.Type, req.Amount),
		Date:               date,
		Note:               req.Note,
		Usage:              req.Usage,
		ExcludeFromBalance: req.ExcludeFromBalance,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", req.Type, err)
	}

	slog.Info("recorded posting", "id", txn.ID, "type", txn.Type, "account_id", txn.AccountID, "amount", txn.Amount)
	return txn, nil
}

// UpdatePosting changes an income or expense. Transfers are edited with
// EditTransfer.
func (l *Ledger) UpdatePosting(ctx context.Context, id uuid.UUID, edit PostingEdit) (*model.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, err := l.store.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if !txn.Type.IsPosting() {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotPosting, id, txn.Type)
	}

	if edit.Type != nil {
		if !edit.Type.IsPosting() {
			return nil, fmt.Errorf("%w: got type %q", ErrNotPosting, *edit.Type)
		}
		txn.Type = *edit.Type
	}
	if edit.Amount != nil {
		txn.Amount = *edit.Amount
	}
	txn.Amount = model.NormalizeAmount(txn.Type, txn.Amount)
	if edit.Date != nil {
		txn.Date = *edit.Date
	}
	if edit.Note != nil {
		txn.Note = *edit.Note
	}
	if edit.Usage != nil {
		txn.Usage = *edit.Usage
	}
	if edit.ExcludeFromBalance != nil {
		txn.ExcludeFromBalance = *edit.ExcludeFromBalance
	}

	if err := l.store.UpdateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to update posting: %w", err)
	}
	return txn, nil
}

// DeleteTransaction removes any single transaction, posting or transfer.
func (l *Ledger) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.DeleteTransaction(ctx, id)
}

// ImportPostings records statement lines against accountID in one commit.
// Lines already imported, matched by ExternalID, are skipped. It returns
// how many lines were new.
func (l *Ledger) ImportPostings(ctx context.Context, accountID uuid.UUID, txns []model.Transaction) (int, error) {
	for i := range txns {
		if !txns[i].Type.IsPosting() {
			return 0, fmt.Errorf("line %d: %w: got type %q", i, ErrNotPosting, txns[i].Type)
		}
		txns[i].AccountID = accountID
		txns[i].TargetAccountID = nil
		txns[i].Amount = model.NormalizeAmount(txns[i].Type, txns[i].Amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.requireAccount(ctx, accountID); err != nil {
		return 0, err
	}
	return l.store.ImportTransactions(ctx, txns)
}

// requireAccount maps a missing account to ErrUnknownAccount.
func (l *Ledger) requireAccount(ctx context.Context, id uuid.UUID) error {
	_, err := l.store.GetAccount(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	return err
}

// requireGroup maps a missing group to ErrUnknownGroup. A nil groupID
// always passes.
func (l *Ledger) requireGroup(ctx context.Context, groupID *uuid.UUID) error {
	if groupID == nil {
		return nil
	}
	_, err := l.store.GetGroup(ctx, *groupID)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, *groupID)
	}
	return err
}
