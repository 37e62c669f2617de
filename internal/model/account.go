// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/google/uuid"
)

// AccountKind distinguishes how an account is backed.
type AccountKind string

// Account kind constants.
const (
	AccountKindOffline    AccountKind = "offline"
	AccountKindBank       AccountKind = "bank"
	AccountKindCash       AccountKind = "cash"
	AccountKindCreditCard AccountKind = "credit_card"
	AccountKindSavings    AccountKind = "savings"
)

// AccountKinds lists every supported account kind.
var AccountKinds = []AccountKind{
	AccountKindOffline,
	AccountKindBank,
	AccountKindCash,
	AccountKindCreditCard,
	AccountKindSavings,
}

// IsValid reports whether k is one of the supported account kinds.
func (k AccountKind) IsValid() bool {
	for _, kind := range AccountKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// AccountGroup is a named collection of accounts, e.g. "Bank" or "Cash".
type AccountGroup struct {
	CreatedAt time.Time
	Name      string
	Icon      string
	Color     string
	ID        uuid.UUID
}

// Account holds money. Transactions posted against it are owned by it;
// transfers that merely target it are not.
type Account struct {
	CreatedAt        time.Time
	GroupID          *uuid.UUID // nil when the account is groupless
	Name             string
	Icon             string
	Color            string
	Kind             AccountKind
	Order            int
	ID               uuid.UUID
	IncludeInBalance bool
}

// InGroup reports whether the account belongs to the given group.
func (a *Account) InGroup(groupID uuid.UUID) bool {
	return a.GroupID != nil && *a.GroupID == groupID
}
