package ledger

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
	"github.com/Veraticus/spice-ledger/internal/testutil"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, _ := newSeededLedger(t)
	return l
}

// newSeededLedger returns a ledger over a fresh database holding the named
// categories.
func newSeededLedger(t *testing.T, categories ...string) (*Ledger, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t, categories...)
	l := New(db.Storage)
	l.now = func() time.Time { return testNow }
	return l, db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createGroup(t *testing.T, l *Ledger, name string) *model.AccountGroup {
	t.Helper()
	group := &model.AccountGroup{Name: name}
	require.NoError(t, l.CreateGroup(context.Background(), group))
	return group
}

func createAccount(t *testing.T, l *Ledger, name string, group *model.AccountGroup) *model.Account {
	t.Helper()
	account := &model.Account{Name: name, Kind: model.AccountKindOffline, IncludeInBalance: true}
	if group != nil {
		account.GroupID = &group.ID
	}
	require.NoError(t, l.CreateAccount(context.Background(), account))
	return account
}

func post(t *testing.T, l *Ledger, account *model.Account, typ model.TransactionType, amount string) *model.Transaction {
	t.Helper()
	txn, err := l.CreateSimplePosting(context.Background(), PostingRequest{
		Account: account.ID,
		Type:    typ,
		Amount:  dec(amount),
	})
	require.NoError(t, err)
	return txn
}

func assertBalance(t *testing.T, l *Ledger, account *model.Account, want string) {
	t.Helper()
	got, err := l.AccountBalance(context.Background(), account.ID)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec(want)), "%s balance: got %s, want %s", account.Name, got, want)
}

func TestCreateSimplePosting(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	checking := createAccount(t, l, "Checking", nil)

	t.Run("normalizes sign by type", func(t *testing.T) {
		income := post(t, l, checking, model.TransactionTypeIncome, "-50")
		assert.True(t, income.Amount.Equal(dec("50")))

		expense := post(t, l, checking, model.TransactionTypeExpense, "20")
		assert.True(t, expense.Amount.Equal(dec("-20")))
	})

	t.Run("defaults date to now", func(t *testing.T) {
		txn := post(t, l, checking, model.TransactionTypeIncome, "1")
		assert.True(t, txn.Date.Equal(testNow))
	})

	t.Run("zero amount is recorded", func(t *testing.T) {
		txn := post(t, l, checking, model.TransactionTypeExpense, "0")
		got, err := l.GetTransaction(ctx, txn.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.IsZero())
	})

	t.Run("rejects transfer type", func(t *testing.T) {
		_, err := l.CreateSimplePosting(ctx, PostingRequest{
			Account: checking.ID,
			Type:    model.TransactionTypeTransfer,
			Amount:  dec("5"),
		})
		assert.ErrorIs(t, err, ErrNotPosting)
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("missing account is an integrity error", func(t *testing.T) {
		_, err := l.CreateSimplePosting(ctx, PostingRequest{
			Account: uuid.New(),
			Type:    model.TransactionTypeIncome,
			Amount:  dec("5"),
		})
		assert.ErrorIs(t, err, common.ErrIntegrity)
	})

	t.Run("missing category is an integrity error", func(t *testing.T) {
		missing := uuid.New()
		_, err := l.CreateSimplePosting(ctx, PostingRequest{
			Account:    checking.ID,
			Type:       model.TransactionTypeIncome,
			Amount:     dec("5"),
			CategoryID: &missing,
		})
		assert.ErrorIs(t, err, common.ErrIntegrity)
	})
}

func TestUpdatePosting(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	checking := createAccount(t, l, "Checking", nil)
	savings := createAccount(t, l, "Savings", nil)

	txn := post(t, l, checking, model.TransactionTypeExpense, "30")

	amount := dec("45")
	note := "groceries"
	exclude := true
	updated, err := l.UpdatePosting(ctx, txn.ID, PostingEdit{Amount: &amount, Note: &note, ExcludeFromBalance: &exclude})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec("-45")))
	assert.Equal(t, "groceries", updated.Note)
	assert.True(t, updated.ExcludeFromBalance)
	assertBalance(t, l, checking, "0")

	income := model.TransactionTypeIncome
	exclude = false
	updated, err = l.UpdatePosting(ctx, txn.ID, PostingEdit{Type: &income, ExcludeFromBalance: &exclude})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(dec("45")))
	assertBalance(t, l, checking, "45")

	t.Run("rejects transfers", func(t *testing.T) {
		transfer, err := l.CreateTransfer(ctx, TransferRequest{Source: checking.ID, Destination: savings.ID, Amount: dec("5")})
		require.NoError(t, err)

		_, err = l.UpdatePosting(ctx, transfer.ID, PostingEdit{Note: &note})
		assert.ErrorIs(t, err, ErrNotPosting)
	})

	t.Run("rejects switching to transfer", func(t *testing.T) {
		transferType := model.TransactionTypeTransfer
		_, err := l.UpdatePosting(ctx, txn.ID, PostingEdit{Type: &transferType})
		assert.ErrorIs(t, err, ErrNotPosting)
	})

	t.Run("missing transaction", func(t *testing.T) {
		_, err := l.UpdatePosting(ctx, uuid.New(), PostingEdit{Note: &note})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestCreateAccount_UnknownGroup(t *testing.T) {
	l := newTestLedger(t)
	missing := uuid.New()

	err := l.CreateAccount(context.Background(), &model.Account{
		Name:    "Orphan",
		Kind:    model.AccountKindCash,
		GroupID: &missing,
	})
	assert.ErrorIs(t, err, ErrUnknownGroup)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestQuerySurface(t *testing.T) {
	ctx := context.Background()
	l, db := newSeededLedger(t, "Food")

	bank := createGroup(t, l, "Bank")
	createGroup(t, l, "Cash")
	checking := createAccount(t, l, "Checking", bank)
	createAccount(t, l, "Wallet", nil)

	groups, err := l.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)

	inBank, err := l.ListAccounts(ctx, &bank.ID)
	require.NoError(t, err)
	require.Len(t, inBank, 1)
	assert.Equal(t, checking.ID, inBank[0].ID)

	all, err := l.ListAccounts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	food := db.Category("Food")
	first, err := l.CreateSimplePosting(ctx, PostingRequest{
		Account: checking.ID, Type: model.TransactionTypeExpense, Amount: dec("8"),
		CategoryID: &food.ID, Date: testNow.AddDate(0, 0, -2),
	})
	require.NoError(t, err)
	post(t, l, checking, model.TransactionTypeIncome, "100")

	byCategory, err := l.ListTransactions(ctx, service.TransactionFilter{CategoryID: &food.ID})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, first.ID, byCategory[0].ID)

	start := testNow.AddDate(0, 0, -1)
	recent, err := l.ListTransactions(ctx, service.TransactionFilter{AccountID: &checking.ID, StartDate: &start})
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	categories, err := l.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	require.NoError(t, l.DeleteTransaction(ctx, first.ID))
	_, err = l.GetTransaction(ctx, first.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestImportPostings(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	checking := createAccount(t, l, "Checking", nil)

	lines := func() []model.Transaction {
		return []model.Transaction{
			{Type: model.TransactionTypeExpense, Amount: dec("12.50"), Date: testNow, ExternalID: "A1"},
			{Type: model.TransactionTypeIncome, Amount: dec("-100"), Date: testNow, ExternalID: "A2"},
		}
	}

	n, err := l.ImportPostings(ctx, checking.ID, lines())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assertBalance(t, l, checking, "87.50")

	n, err = l.ImportPostings(ctx, checking.ID, lines())
	require.NoError(t, err)
	assert.Zero(t, n)
	assertBalance(t, l, checking, "87.50")

	_, err = l.ImportPostings(ctx, uuid.New(), lines())
	assert.ErrorIs(t, err, ErrUnknownAccount)

	_, err = l.ImportPostings(ctx, checking.ID, []model.Transaction{{Type: model.TransactionTypeTransfer, Date: testNow}})
	assert.ErrorIs(t, err, ErrNotPosting)
}
