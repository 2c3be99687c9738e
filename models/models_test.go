package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wikiforge/account-console/utils"
)

func TestAccountHelpers(t *testing.T) {
	t.Run("IsEmailConfirmed", func(t *testing.T) {
		account := &Account{}
		assert.False(t, account.IsEmailConfirmed())

		account.EmailConfirmedAt = utils.UTCNowPtr()
		assert.True(t, account.IsEmailConfirmed())
	})

	t.Run("UserPage", func(t *testing.T) {
		account := &Account{Name: "Some Name"}
		assert.Equal(t, "User:Some Name", account.UserPage())
	})
}

func TestAccountOptionIsSet(t *testing.T) {
	var absent *AccountOption
	assert.False(t, absent.IsSet())

	assert.False(t, (&AccountOption{Value: ""}).IsSet())
	assert.False(t, (&AccountOption{Value: "0"}).IsSet())
	assert.True(t, (&AccountOption{Value: "1"}).IsSet())
	assert.True(t, (&AccountOption{Value: "2026-01-01 00:00:00"}).IsSet())
}

func TestTempAccountIsLive(t *testing.T) {
	var absent *TempAccount
	assert.False(t, absent.IsLive())

	assert.False(t, (&TempAccount{}).IsLive())
	assert.True(t, (&TempAccount{ID: 7}).IsLive())
}

func TestAuditLogIsSecurityEvent(t *testing.T) {
	assert.True(t, (&AuditLog{Action: AuditActionPasswordChange}).IsSecurityEvent())
	assert.True(t, (&AuditLog{Action: AuditActionCloseAccount}).IsSecurityEvent())
	assert.False(t, (&AuditLog{Action: AuditActionMailChange}).IsSecurityEvent())
	assert.False(t, (&AuditLog{Action: AuditActionRealNameChange}).IsSecurityEvent())
}

func TestAccountSessionValidity(t *testing.T) {
	live := &AccountSession{
		IsActive:  utils.ToPtr(true),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	assert.True(t, live.IsValid())
	assert.False(t, live.IsExpired())

	expired := &AccountSession{
		IsActive:  utils.ToPtr(true),
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	assert.True(t, expired.IsExpired())
	assert.False(t, expired.IsValid())

	inactive := &AccountSession{
		IsActive:  utils.ToPtr(false),
		ExpiresAt: time.Now().Add(time.Hour),
	}
	assert.False(t, inactive.IsValid())
}
