package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

// Balances are recomputed from transactions on every call; nothing is cached.
//
// An account's balance counts the transactions it owns, signed by type,
// plus the inflow of every transfer that targets it. Transactions flagged
// ExcludeFromBalance are skipped on both sides of a transfer.

// AccountBalance returns the current balance of an account. Accounts with
// IncludeInBalance unset still have a balance; only aggregates skip them.
func (l *Ledger) AccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.store.GetAccount(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	return l.balance(ctx, accountID, nil)
}

// RunningBalance returns the balance of an account counting only
// transactions dated at or before asOf.
func (l *Ledger) RunningBalance(ctx context.Context, accountID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.store.GetAccount(ctx, accountID); err != nil {
		return decimal.Zero, err
	}
	return l.balance(ctx, accountID, &asOf)
}

// GroupBalance sums the balances of the group's accounts that are
// included in balance totals.
func (l *Ledger) GroupBalance(ctx context.Context, groupID uuid.UUID) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.store.GetGroup(ctx, groupID); err != nil {
		return decimal.Zero, err
	}

	accounts, err := l.store.ListAccounts(ctx, &groupID)
	if err != nil {
		return decimal.Zero, err
	}
	return l.sumIncluded(ctx, accounts)
}

// TotalBalance sums the balances of every account included in balance
// totals, grouped or not.
func (l *Ledger) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	accounts, err := l.store.ListAccounts(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return l.sumIncluded(ctx, accounts)
}

// BalanceHistory returns one point per transaction touching the account,
// ordered by date and then insertion order. Excluded transactions appear
// with a zero change so the history stays auditable.
func (l *Ledger) BalanceHistory(ctx context.Context, accountID uuid.UUID) ([]model.BalancePoint, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.store.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}

	txns, err := l.store.ListTransactions(ctx, accountFilter(accountID, nil))
	if err != nil {
		return nil, err
	}

	points := make([]model.BalancePoint, 0, len(txns))
	running := decimal.Zero
	for i := range txns {
		txn := &txns[i]
		point := model.BalancePoint{
			Date:          txn.Date,
			TransactionID: txn.ID,
			Change:        decimal.Zero,
			Excluded:      txn.ExcludeFromBalance,
		}
		if !txn.ExcludeFromBalance {
			point.Change = signedAmount(txn, accountID)
			running = running.Add(point.Change)
		}
		point.Balance = running
		points = append(points, point)
	}
	return points, nil
}

func (l *Ledger) balance(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (decimal.Decimal, error) {
	txns, err := l.store.ListTransactions(ctx, accountFilter(accountID, asOf))
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for i := range txns {
		if txns[i].ExcludeFromBalance {
			continue
		}
		total = total.Add(signedAmount(&txns[i], accountID))
	}
	return total, nil
}

func (l *Ledger) sumIncluded(ctx context.Context, accounts []model.Account) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, account := range accounts {
		if !account.IncludeInBalance {
			continue
		}
		balance, err := l.balance(ctx, account.ID, nil)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(balance)
	}
	return total, nil
}

func accountFilter(accountID uuid.UUID, asOf *time.Time) service.TransactionFilter {
	return service.TransactionFilter{
		AccountID:       &accountID,
		IncludeTargeted: true,
		EndDate:         asOf,
	}
}

// signedAmount is the effect of txn on accountID's balance. The stored
// sign is not trusted; the type decides it. A transfer credits its target
// with the absolute amount.
func signedAmount(txn *model.Transaction, accountID uuid.UUID) decimal.Decimal {
	switch {
	case txn.AccountID == accountID:
		return model.NormalizeAmount(txn.Type, txn.Amount)
	case txn.Targets(accountID):
		return txn.Amount.Abs()
	default:
		return decimal.Zero
	}
}
