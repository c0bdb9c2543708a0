package models

import (
	"fmt"
	"time"
)

// AccountType categorizes a brokerage account for tax treatment.
type AccountType string

const (
	AccountTypeTFSA       AccountType = "tfsa"
	AccountTypeRRSP       AccountType = "rrsp"
	AccountTypeMargin     AccountType = "margin"
	AccountTypeIndividual AccountType = "individual"
)

// Valid reports whether the account type is one of the four categories.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeTFSA, AccountTypeRRSP, AccountTypeMargin, AccountTypeIndividual:
		return true
	}
	return false
}

// Account is a brokerage account owned by a single user. Accounts are only
// created by explicit user action, never automatically. Name uniqueness is
// a convenience, not enforced.
type Account struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"type"`
	CreatedAt time.Time   `json:"created_at"`
}

// Validate checks account field constraints.
func (a *Account) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("account name is required")
	}
	if !a.Type.Valid() {
		return fmt.Errorf("unknown account type %q", a.Type)
	}
	return nil
}
