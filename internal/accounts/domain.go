// Package accounts owns the per-user collection of linked bank accounts,
// keeps the aggregate balance consistent with it, and mediates all
// create/update/delete/sync traffic against the data store.
package accounts

import (
	"errors"
	"time"
)

// Mode describes where the manager sources its data from.
type Mode string

const (
	// ModeConnected serves rows from the remote data store.
	ModeConnected Mode = "connected"
	// ModeDemo serves the canned fallback set after a store failure.
	ModeDemo Mode = "demo"
	// ModeUnconfigured means the deployment has no store credentials.
	ModeUnconfigured Mode = "unconfigured"
)

// ErrDuplicateAccount indicates the aggregator account is already linked.
var ErrDuplicateAccount = errors.New("account already linked")

// Account is one linked external bank or brokerage account.
//
// Balance is nil until the first sync and mirrors whatever the aggregator
// reports, including negative values for credit and loan accounts.
type Account struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	AggregatorAccountID string    `json:"aggregator_account_id"`
	AccessToken         string    `json:"-"`
	Name                string    `json:"name"`
	Type                string    `json:"type"`
	Subtype             string    `json:"subtype"`
	Balance             *float64  `json:"balance"`
	InstitutionName     string    `json:"institution_name"`
	InstitutionID       string    `json:"institution_id"`
	Mask                string    `json:"mask"`
	IsActive            bool      `json:"is_active"`
	LastSyncedAt        time.Time `json:"last_synced_at"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Draft carries the fields needed to persist a newly linked account.
type Draft struct {
	AggregatorAccountID string
	AccessToken         string
	Name                string
	Type                string
	Subtype             string
	Balance             *float64
	InstitutionName     string
	InstitutionID       string
	Mask                string
}

// Changes is a partial update. Nil fields are left untouched.
type Changes struct {
	Name    *string
	Subtype *string
	Balance *float64
	Mask    *string
}

// DemoAccounts returns the fixed fallback set shown when the store is
// unavailable. Balances here are constants the demo sync must never change.
func DemoAccounts(userID string) []Account {
	now := time.Now().UTC()
	checking := 2850.00
	savings := 4375.00
	return []Account{
		{
			ID:                  "demo-checking",
			UserID:              userID,
			AggregatorAccountID: "demo-checking",
			AccessToken:         "demo-token",
			Name:                "Primary Checking",
			Type:                "depository",
			Subtype:             "checking",
			Balance:             &checking,
			InstitutionName:     "Demo Bank",
			InstitutionID:       "ins_demo",
			Mask:                "1234",
			IsActive:            true,
			LastSyncedAt:        now,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
		{
			ID:                  "demo-savings",
			UserID:              userID,
			AggregatorAccountID: "demo-savings",
			AccessToken:         "demo-token",
			Name:                "High Yield Savings",
			Type:                "depository",
			Subtype:             "savings",
			Balance:             &savings,
			InstitutionName:     "Demo Bank",
			InstitutionID:       "ins_demo",
			Mask:                "5678",
			IsActive:            true,
			LastSyncedAt:        now,
			CreatedAt:           now,
			UpdatedAt:           now,
		},
	}
}
