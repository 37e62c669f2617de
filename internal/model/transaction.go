package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes postings from transfers.
type TransactionType string

// Transaction type constants.
const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	default:
		return false
	}
}

// IsPosting reports whether t is a single-account type.
func (t TransactionType) IsPosting() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is either a posting against one account or a transfer from
// AccountID to TargetAccountID.
type Transaction struct {
	Date               time.Time
	CreatedAt          time.Time
	Amount             decimal.Decimal // signed: negative for expenses and transfers
	CategoryID         *uuid.UUID
	TargetAccountID    *uuid.UUID // set only on transfers; cleared if the target is deleted
	Note               string
	Usage              string
	Type               TransactionType
	ExternalID         string // import dedupe key, e.g. an OFX FITID
	Seq                int64  // insertion order, breaks ties between equal dates
	ID                 uuid.UUID
	AccountID          uuid.UUID
	ExcludeFromBalance bool
}

// IsTransfer reports whether the transaction moves money between accounts.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TransactionTypeTransfer
}

// Targets reports whether the transaction is a transfer into accountID.
func (t *Transaction) Targets(accountID uuid.UUID) bool {
	return t.IsTransfer() && t.TargetAccountID != nil && *t.TargetAccountID == accountID
}

// NormalizeAmount applies the sign convention for a transaction type:
// income is stored positive, expenses and transfers negative.
func NormalizeAmount(typ TransactionType, amount decimal.Decimal) decimal.Decimal {
	if typ == TransactionTypeIncome {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

// BalancePoint is one step of an account's balance history.
type BalancePoint struct {
	Date          time.Time
	Change        decimal.Decimal
	Balance       decimal.Decimal
	TransactionID uuid.UUID
	Excluded      bool
}
