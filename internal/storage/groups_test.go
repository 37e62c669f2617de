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

func TestGroupCRUD(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	group := &model.AccountGroup{Name: "Bank", Icon: "building.columns", Color: "#4ECDC4"}
	require.NoError(t, store.CreateGroup(ctx, group))
	assert.NotEqual(t, uuid.Nil, group.ID)
	assert.False(t, group.CreatedAt.IsZero())

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bank", got.Name)
	assert.Equal(t, "building.columns", got.Icon)
	assert.Equal(t, "#4ECDC4", got.Color)

	group.Name = "Banks"
	require.NoError(t, store.UpdateGroup(ctx, group))

	got, err = store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "Banks", got.Name)

	mustGroup(t, store, "Cash")
	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Banks", groups[0].Name)
	assert.Equal(t, "Cash", groups[1].Name)
}

func TestGroupErrors(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	t.Run("get missing group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, uuid.New())
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("update missing group", func(t *testing.T) {
		err := store.UpdateGroup(ctx, &model.AccountGroup{ID: uuid.New(), Name: "Ghost"})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("delete missing group", func(t *testing.T) {
		_, err := store.DeleteGroup(ctx, uuid.New())
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("empty name", func(t *testing.T) {
		err := store.CreateGroup(ctx, &model.AccountGroup{Name: " "})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("nil group", func(t *testing.T) {
		err := store.CreateGroup(ctx, nil)
		assert.ErrorIs(t, err, ErrNilParameter)
	})
}
