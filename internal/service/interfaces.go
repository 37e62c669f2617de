// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/spice-ledger/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
// Zero-valued fields do not constrain the result.
type TransactionFilter struct {
	AccountID       *uuid.UUID
	TargetAccountID *uuid.UUID
	CategoryID      *uuid.UUID
	StartDate       *time.Time // inclusive
	EndDate         *time.Time // inclusive
	Types           []model.TransactionType
	Limit           int
	Offset          int
	// IncludeTargeted widens an AccountID filter to transfers whose target
	// is that account.
	IncludeTargeted bool
	Uncategorized   bool
}

// DeleteResult reports the side effects of a cascading delete.
type DeleteResult struct {
	GroupsDeleted       int
	AccountsDeleted     int
	TransactionsDeleted int
	// TransfersDetached counts transfers elsewhere whose target was cleared.
	TransfersDetached int
	// TransfersLost counts transfers out of a deleted account into a
	// surviving account. They are deleted with their source, which removes
	// the inflow from the surviving account's history.
	TransfersLost     int
	CategoriesCleared int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Group operations
	CreateGroup(ctx context.Context, group *model.AccountGroup) error
	GetGroup(ctx context.Context, id uuid.UUID) (*model.AccountGroup, error)
	ListGroups(ctx context.Context) ([]model.AccountGroup, error)
	UpdateGroup(ctx context.Context, group *model.AccountGroup) error
	DeleteGroup(ctx context.Context, id uuid.UUID) (*DeleteResult, error)

	// Account operations
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	ListAccounts(ctx context.Context, groupID *uuid.UUID) ([]model.Account, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	MoveAccount(ctx context.Context, id uuid.UUID, groupID *uuid.UUID) error
	SetAccountOrder(ctx context.Context, ids []uuid.UUID) error
	DeleteAccount(ctx context.Context, id uuid.UUID) (*DeleteResult, error)

	// Category operations
	CreateCategory(ctx context.Context, category *model.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) (*DeleteResult, error)

	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	SetTransactionCategory(ctx context.Context, id uuid.UUID, categoryID *uuid.UUID) error
	ImportTransactions(ctx context.Context, txns []model.Transaction) (int, error)
	CountTransactions(ctx context.Context) (int, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
