package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestAccountCRUD(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	bank := mustGroup(t, store, "Bank")

	account := &model.Account{
		Name:             "Checking",
		Kind:             model.AccountKindOffline,
		GroupID:          &bank.ID,
		IncludeInBalance: true,
	}
	require.NoError(t, store.CreateAccount(ctx, account))

	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Checking", got.Name)
	assert.Equal(t, model.AccountKindOffline, got.Kind)
	assert.True(t, got.IncludeInBalance)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, bank.ID, *got.GroupID)
	assert.True(t, got.InGroup(bank.ID))

	got.Name = "Everyday"
	got.IncludeInBalance = false
	got.GroupID = nil
	require.NoError(t, store.UpdateAccount(ctx, got))

	updated, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "Everyday", updated.Name)
	assert.False(t, updated.IncludeInBalance)
	assert.Nil(t, updated.GroupID)
}

func TestCreateAccount_AssignsDisplayOrder(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	first := mustAccount(t, store, "First", nil)
	second := mustAccount(t, store, "Second", nil)
	third := mustAccount(t, store, "Third", nil)

	assert.Equal(t, 0, first.Order)
	assert.Equal(t, 1, second.Order)
	assert.Equal(t, 2, third.Order)
}

func TestCreateAccount_OrderAfterDelete(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	mustAccount(t, store, "First", nil)
	second := mustAccount(t, store, "Second", nil)
	third := mustAccount(t, store, "Third", nil)

	_, err := store.DeleteAccount(ctx, second.ID)
	require.NoError(t, err)

	fourth := mustAccount(t, store, "Fourth", nil)
	assert.Equal(t, 3, fourth.Order)
	assert.NotEqual(t, third.Order, fourth.Order)
}

func TestListAccounts(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	bank := mustGroup(t, store, "Bank")
	cash := mustGroup(t, store, "Cash")
	mustAccount(t, store, "Checking", bank)
	mustAccount(t, store, "Savings", bank)
	mustAccount(t, store, "Wallet", cash)
	mustAccount(t, store, "Loose", nil)

	all, err := store.ListAccounts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	inBank, err := store.ListAccounts(ctx, &bank.ID)
	require.NoError(t, err)
	require.Len(t, inBank, 2)
	assert.Equal(t, "Checking", inBank[0].Name)
	assert.Equal(t, "Savings", inBank[1].Name)
}

func TestMoveAccount(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	bank := mustGroup(t, store, "Bank")
	account := mustAccount(t, store, "Checking", nil)

	require.NoError(t, store.MoveAccount(ctx, account.ID, &bank.ID))
	got, err := store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, got.InGroup(bank.ID))

	require.NoError(t, store.MoveAccount(ctx, account.ID, nil))
	got, err = store.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Nil(t, got.GroupID)

	missing := uuid.New()
	err = store.MoveAccount(ctx, account.ID, &missing)
	assert.ErrorIs(t, err, common.ErrIntegrity)

	err = store.MoveAccount(ctx, uuid.New(), &bank.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSetAccountOrder(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	a := mustAccount(t, store, "A", nil)
	b := mustAccount(t, store, "B", nil)
	c := mustAccount(t, store, "C", nil)

	require.NoError(t, store.SetAccountOrder(ctx, []uuid.UUID{c.ID, a.ID, b.ID}))

	accounts, err := store.ListAccounts(ctx, nil)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, []string{"C", "A", "B"}, []string{accounts[0].Name, accounts[1].Name, accounts[2].Name})

	t.Run("unknown account rolls back", func(t *testing.T) {
		err := store.SetAccountOrder(ctx, []uuid.UUID{a.ID, uuid.New()})
		assert.ErrorIs(t, err, common.ErrNotFound)

		accounts, err := store.ListAccounts(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, "C", accounts[0].Name)
	})
}

func TestAccountValidation(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	missing := uuid.New()
	tests := []struct {
		account *model.Account
		wantErr error
		name    string
	}{
		{
			name:    "empty name",
			account: &model.Account{Kind: model.AccountKindBank},
			wantErr: common.ErrValidation,
		},
		{
			name:    "unknown kind",
			account: &model.Account{Name: "Broker", Kind: "brokerage"},
			wantErr: ErrInvalidAccount,
		},
		{
			name:    "negative order",
			account: &model.Account{Name: "Broker", Kind: model.AccountKindBank, Order: -1},
			wantErr: ErrInvalidAccount,
		},
		{
			name:    "dangling group",
			account: &model.Account{Name: "Orphan", Kind: model.AccountKindBank, GroupID: &missing},
			wantErr: common.ErrIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.CreateAccount(ctx, tt.account)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	accounts, err := store.ListAccounts(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
