// Package models contains domain entities and business models for the account console
package models

import (
	"time"
)

// AccountOption is a single name/value preference row attached to an account.
type AccountOption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AccountID uint      `gorm:"not null;uniqueIndex:idx_account_options_account_name,priority:1" json:"account_id"`
	Account   *Account  `gorm:"foreignKey:AccountID;references:ID" json:"account,omitempty"`
	Name      string    `gorm:"size:255;not null;uniqueIndex:idx_account_options_account_name,priority:2" json:"name"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AccountOption) TableName() string {
	return "account_options"
}

// Option name constants
const (
	// OptionDisabled marks the account as disabled ("1" when set)
	OptionDisabled = "disabled"

	// OptionDisabledDate records when the account was disabled
	OptionDisabledDate = "disabled_date"

	// OptionUnsubscribed marks the account as opted out of all mail
	OptionUnsubscribed = "unsubscribed"

	// OptionNewEmail holds an address awaiting confirmation
	OptionNewEmail = "new_email"

	// OptionAllowAdoption marks wikis founded by the account as adoptable
	OptionAllowAdoption = "AllowAdoption"

	// OptionRequestedClosure is set when the owner asked for closure themselves
	OptionRequestedClosure = "requested-closure"
)

// AccountOptionFilter represents filter criteria for option queries
type AccountOptionFilter struct {
	ID        *uint
	AccountID *uint
	Name      *string
	Value     *string
}

func (o *AccountOption) IsSet() bool {
	return o != nil && o.Value != "" && o.Value != "0"
}
