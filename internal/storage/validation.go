// Package storage provides the data persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/spice-ledger/internal/common"
	"github.com/Veraticus/spice-ledger/internal/model"
)

// Validation errors. Each wraps common.ErrValidation.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = fmt.Errorf("%w: string parameter cannot be empty", common.ErrValidation)
	ErrNilParameter       = fmt.Errorf("%w: parameter cannot be nil", common.ErrValidation)
	ErrInvalidDateRange   = fmt.Errorf("%w: start date must be before end date", common.ErrValidation)
	ErrInvalidAccount     = fmt.Errorf("%w: invalid account", common.ErrValidation)
	ErrInvalidTransaction = fmt.Errorf("%w: invalid transaction", common.ErrValidation)
	ErrDuplicateCategory  = fmt.Errorf("%w: category already exists", common.ErrValidation)
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateGroup(group *model.AccountGroup) error {
	if group == nil {
		return fmt.Errorf("%w: group", ErrNilParameter)
	}
	return validateString(group.Name, "group name")
}

func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if err := validateString(account.Name, "account name"); err != nil {
		return err
	}
	if !account.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAccount, account.Kind)
	}
	if account.Order < 0 {
		return fmt.Errorf("%w: negative display order", ErrInvalidAccount)
	}
	return nil
}

func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	return validateString(category.Name, "category name")
}

// validateTransaction checks the shape of a transaction. Whether the
// accounts and category it references exist is checked inside the write.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if !txn.Type.IsValid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Type.IsPosting() && txn.TargetAccountID != nil {
		return fmt.Errorf("%w: %s cannot have a target account", ErrInvalidTransaction, txn.Type)
	}
	if txn.TargetAccountID != nil && *txn.TargetAccountID == txn.AccountID {
		return fmt.Errorf("%w: source and target account are the same", ErrInvalidTransaction)
	}
	return nil
}
