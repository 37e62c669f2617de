package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/service"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 9, 30, 0, 0, time.UTC)
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	checking := mustAccount(t, store, "Checking", nil)
	savings := mustAccount(t, store, "Savings", nil)
	food := mustCategory(t, store, "Food")

	t.Run("posting round trip", func(t *testing.T) {
		txn := &model.Transaction{
			AccountID:  checking.ID,
			CategoryID: &food.ID,
			Type:       model.TransactionTypeExpense,
			Amount:     decimal.RequireFromString("-12.34"),
			Date:       day(5),
			Note:       "Corner shop",
			Usage:      "milk",
		}
		require.NoError(t, store.CreateTransaction(ctx, txn))
		assert.NotEqual(t, uuid.Nil, txn.ID)
		assert.Positive(t, txn.Seq)

		got, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(decimal.RequireFromString("-12.34")), "amount %s", got.Amount)
		assert.True(t, got.Date.Equal(day(5)))
		assert.Equal(t, "Corner shop", got.Note)
		assert.Equal(t, "milk", got.Usage)
		require.NotNil(t, got.CategoryID)
		assert.Equal(t, food.ID, *got.CategoryID)
		assert.Nil(t, got.TargetAccountID)
	})

	t.Run("transfer round trip", func(t *testing.T) {
		txn := mustTransfer(t, store, checking, savings, "250")

		got, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.True(t, got.IsTransfer())
		require.NotNil(t, got.TargetAccountID)
		assert.Equal(t, savings.ID, *got.TargetAccountID)
		assert.True(t, got.Targets(savings.ID))
	})

	t.Run("preserves precision", func(t *testing.T) {
		txn := &model.Transaction{
			AccountID: checking.ID,
			Type:      model.TransactionTypeIncome,
			Amount:    decimal.RequireFromString("0.1"),
			Date:      day(6),
		}
		require.NoError(t, store.CreateTransaction(ctx, txn))

		got, err := store.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		sum := got.Amount.Add(decimal.RequireFromString("0.2"))
		assert.Equal(t, "0.3", sum.String())
	})
}

func TestCreateTransaction_Integrity(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	checking := mustAccount(t, store, "Checking", nil)
	missing := uuid.New()

	tests := []struct {
		txn     *model.Transaction
		wantErr error
		name    string
	}{
		{
			name: "missing account",
			txn: &model.Transaction{
				AccountID: missing, Type: model.TransactionTypeExpense,
				Amount: decimal.NewFromInt(-1), Date: day(1),
			},
			wantErr: common.ErrIntegrity,
		},
		{
			name: "missing target",
			txn: &model.Transaction{
				AccountID: checking.ID, TargetAccountID: &missing, Type: model.TransactionTypeTransfer,
				Amount: decimal.NewFromInt(-1), Date: day(1),
			},
			wantErr: common.ErrIntegrity,
		},
		{
			name: "missing category",
			txn: &model.Transaction{
				AccountID: checking.ID, CategoryID: &missing, Type: model.TransactionTypeExpense,
				Amount: decimal.NewFromInt(-1), Date: day(1),
			},
			wantErr: common.ErrIntegrity,
		},
		{
			name: "self transfer",
			txn: &model.Transaction{
				AccountID: checking.ID, TargetAccountID: &checking.ID, Type: model.TransactionTypeTransfer,
				Amount: decimal.NewFromInt(-1), Date: day(1),
			},
			wantErr: ErrInvalidTransaction,
		},
		{
			name: "posting with target",
			txn: &model.Transaction{
				AccountID: checking.ID, TargetAccountID: &missing, Type: model.TransactionTypeIncome,
				Amount: decimal.NewFromInt(1), Date: day(1),
			},
			wantErr: ErrInvalidTransaction,
		},
		{
			name: "missing date",
			txn: &model.Transaction{
				AccountID: checking.ID, Type: model.TransactionTypeIncome, Amount: decimal.NewFromInt(1),
			},
			wantErr: ErrInvalidTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.CreateTransaction(ctx, tt.txn)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	count, err := store.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestListTransactions_Ordering(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	account := mustAccount(t, store, "Checking", nil)

	insert := func(note string, date time.Time) {
		t.Helper()
		require.NoError(t, store.CreateTransaction(ctx, &model.Transaction{
			AccountID: account.ID,
			Type:      model.TransactionTypeIncome,
			Amount:    decimal.NewFromInt(1),
			Date:      date,
			Note:      note,
		}))
	}

	// Same-day rows keep insertion order regardless of IDs.
	insert("late", day(10))
	insert("first-same-day", day(3))
	insert("second-same-day", day(3))
	insert("early", day(1))
	insert("third-same-day", day(3))

	txns, err := store.ListTransactions(ctx, service.TransactionFilter{AccountID: &account.ID})
	require.NoError(t, err)

	notes := make([]string, len(txns))
	for i, txn := range txns {
		notes[i] = txn.Note
	}
	assert.Equal(t, []string{"early", "first-same-day", "second-same-day", "third-same-day", "late"}, notes)
}

func TestListTransactions_Filters(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	checking := mustAccount(t, store, "Checking", nil)
	savings := mustAccount(t, store, "Savings", nil)
	food := mustCategory(t, store, "Food")

	salary := &model.Transaction{AccountID: checking.ID, Type: model.TransactionTypeIncome, Amount: decimal.NewFromInt(1000), Date: day(1)}
	lunch := &model.Transaction{AccountID: checking.ID, CategoryID: &food.ID, Type: model.TransactionTypeExpense, Amount: decimal.NewFromInt(-15), Date: day(2)}
	move := &model.Transaction{AccountID: checking.ID, TargetAccountID: &savings.ID, Type: model.TransactionTypeTransfer, Amount: decimal.NewFromInt(-200), Date: day(3)}
	interest := &model.Transaction{AccountID: savings.ID, Type: model.TransactionTypeIncome, Amount: decimal.NewFromInt(2), Date: day(4)}
	for _, txn := range []*model.Transaction{salary, lunch, move, interest} {
		require.NoError(t, store.CreateTransaction(ctx, txn))
	}

	start, end := day(2), day(3)
	tests := []struct {
		name   string
		filter service.TransactionFilter
		want   []uuid.UUID
	}{
		{
			name:   "all",
			filter: service.TransactionFilter{},
			want:   []uuid.UUID{salary.ID, lunch.ID, move.ID, interest.ID},
		},
		{
			name:   "by source account",
			filter: service.TransactionFilter{AccountID: &savings.ID},
			want:   []uuid.UUID{interest.ID},
		},
		{
			name:   "including transfers in",
			filter: service.TransactionFilter{AccountID: &savings.ID, IncludeTargeted: true},
			want:   []uuid.UUID{move.ID, interest.ID},
		},
		{
			name:   "by target",
			filter: service.TransactionFilter{TargetAccountID: &savings.ID},
			want:   []uuid.UUID{move.ID},
		},
		{
			name:   "by category",
			filter: service.TransactionFilter{CategoryID: &food.ID},
			want:   []uuid.UUID{lunch.ID},
		},
		{
			name:   "uncategorized",
			filter: service.TransactionFilter{Uncategorized: true, AccountID: &checking.ID},
			want:   []uuid.UUID{salary.ID, move.ID},
		},
		{
			name:   "inclusive date range",
			filter: service.TransactionFilter{StartDate: &start, EndDate: &end},
			want:   []uuid.UUID{lunch.ID, move.ID},
		},
		{
			name:   "by type",
			filter: service.TransactionFilter{Types: []model.TransactionType{model.TransactionTypeIncome}},
			want:   []uuid.UUID{salary.ID, interest.ID},
		},
		{
			name:   "limit and offset",
			filter: service.TransactionFilter{Limit: 2, Offset: 1},
			want:   []uuid.UUID{lunch.ID, move.ID},
		},
		{
			name:   "offset only",
			filter: service.TransactionFilter{Offset: 3},
			want:   []uuid.UUID{interest.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txns, err := store.ListTransactions(ctx, tt.filter)
			require.NoError(t, err)

			got := make([]uuid.UUID, len(txns))
			for i, txn := range txns {
				got[i] = txn.ID
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("inverted range", func(t *testing.T) {
		_, err := store.ListTransactions(ctx, service.TransactionFilter{StartDate: &end, EndDate: &start})
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	checking := mustAccount(t, store, "Checking", nil)
	savings := mustAccount(t, store, "Savings", nil)
	txn := mustTransfer(t, store, checking, savings, "100")
	seq := txn.Seq

	txn.Amount = decimal.NewFromInt(-60)
	txn.Note = "rent share"
	require.NoError(t, store.UpdateTransaction(ctx, txn))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(-60)))
	assert.Equal(t, "rent share", got.Note)
	assert.Equal(t, seq, got.Seq)

	t.Run("unknown transaction", func(t *testing.T) {
		ghost := *txn
		ghost.ID = uuid.New()
		assert.ErrorIs(t, store.UpdateTransaction(ctx, &ghost), common.ErrNotFound)
	})

	t.Run("dangling target", func(t *testing.T) {
		missing := uuid.New()
		broken := *got
		broken.TargetAccountID = &missing
		assert.ErrorIs(t, store.UpdateTransaction(ctx, &broken), common.ErrIntegrity)
	})
}

func TestSetTransactionCategory(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	account := mustAccount(t, store, "Checking", nil)
	food := mustCategory(t, store, "Food")
	txn := mustPosting(t, store, account, model.TransactionTypeExpense, "10")

	require.NoError(t, store.SetTransactionCategory(ctx, txn.ID, &food.ID))
	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, food.ID, *got.CategoryID)

	require.NoError(t, store.SetTransactionCategory(ctx, txn.ID, nil))
	got, err = store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	missing := uuid.New()
	assert.ErrorIs(t, store.SetTransactionCategory(ctx, txn.ID, &missing), common.ErrIntegrity)
	assert.ErrorIs(t, store.SetTransactionCategory(ctx, uuid.New(), &food.ID), common.ErrNotFound)
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	account := mustAccount(t, store, "Checking", nil)
	txn := mustPosting(t, store, account, model.TransactionTypeIncome, "10")

	require.NoError(t, store.DeleteTransaction(ctx, txn.ID))
	_, err := store.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	assert.ErrorIs(t, store.DeleteTransaction(ctx, txn.ID), common.ErrNotFound)
}

func TestImportTransactions(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	checking := mustAccount(t, store, "Checking", nil)
	savings := mustAccount(t, store, "Savings", nil)

	batch := func() []model.Transaction {
		return []model.Transaction{
			{AccountID: checking.ID, Type: model.TransactionTypeExpense, Amount: decimal.NewFromInt(-5), Date: day(1), ExternalID: "FIT-1"},
			{AccountID: checking.ID, Type: model.TransactionTypeIncome, Amount: decimal.NewFromInt(50), Date: day(2), ExternalID: "FIT-2"},
			{AccountID: checking.ID, Type: model.TransactionTypeExpense, Amount: decimal.NewFromInt(-1), Date: day(3)},
		}
	}

	inserted, err := store.ImportTransactions(ctx, batch())
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	// Re-importing skips rows with known external IDs only.
	inserted, err = store.ImportTransactions(ctx, batch())
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// External IDs are scoped to an account.
	inserted, err = store.ImportTransactions(ctx, []model.Transaction{
		{AccountID: savings.ID, Type: model.TransactionTypeIncome, Amount: decimal.NewFromInt(1), Date: day(1), ExternalID: "FIT-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	count, err := store.CountTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	t.Run("failure inserts nothing", func(t *testing.T) {
		_, err := store.ImportTransactions(ctx, []model.Transaction{
			{AccountID: checking.ID, Type: model.TransactionTypeIncome, Amount: decimal.NewFromInt(1), Date: day(9), ExternalID: "FIT-9"},
			{AccountID: uuid.New(), Type: model.TransactionTypeIncome, Amount: decimal.NewFromInt(1), Date: day(9)},
		})
		assert.ErrorIs(t, err, common.ErrIntegrity)

		count, err := store.CountTransactions(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, count)
	})
}
