// Package testing provides test utilities and database setup for testing the account console
package testing

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	mathrand "math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestAccount creates a confirmed account with a random name and email
func (tf *TestFixtures) CreateTestAccount() (*models.Account, error) {
	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := mathrand.Intn(10000000)

	account := &models.Account{
		Name:             fmt.Sprintf("Testaccount %d", suffix),
		Email:            fmt.Sprintf("test.account.%d@example.com", suffix),
		EmailConfirmedAt: utils.UTCNowPtr(),
		PasswordHash:     string(hashedPassword),
		RealName:         "Test Account",
		IsStaff:          utils.ToPtr(false),
		RegisteredAt:     utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create test account: %w", err)
	}

	return account, nil
}

// CreateStaffAccount creates a confirmed account with the staff bit set
func (tf *TestFixtures) CreateStaffAccount() (*models.Account, error) {
	account, err := tf.CreateTestAccount()
	if err != nil {
		return nil, err
	}

	account.IsStaff = utils.ToPtr(true)
	if err := tf.DB.DB.Save(account).Error; err != nil {
		return nil, fmt.Errorf("failed to promote test account to staff: %w", err)
	}

	return account, nil
}

// CreateProvisionalAccount creates an account paired with a live provisional
// registration, as registration leaves it before email confirmation
func (tf *TestFixtures) CreateProvisionalAccount() (*models.Account, *models.TempAccount, error) {
	account, err := tf.CreateTestAccount()
	if err != nil {
		return nil, nil, err
	}

	// An unconfirmed registration has no usable address yet
	account.Email = ""
	account.EmailConfirmedAt = nil
	if err := tf.DB.DB.Save(account).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to clear account email: %w", err)
	}

	temp := &models.TempAccount{
		AccountID:    account.ID,
		Name:         account.Name,
		Email:        fmt.Sprintf("pending.%d@example.com", mathrand.Intn(10000000)),
		PasswordHash: account.PasswordHash,
		CreatedAt:    utils.UTCNow(),
	}
	if err := tf.DB.DB.Create(temp).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create provisional registration: %w", err)
	}

	return account, temp, nil
}

// CreateDisabledAccount creates an account carrying both disabled markers
func (tf *TestFixtures) CreateDisabledAccount() (*models.Account, error) {
	account, err := tf.CreateTestAccount()
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	options := []*models.AccountOption{
		{AccountID: account.ID, Name: models.OptionDisabled, Value: "1"},
		{AccountID: account.ID, Name: models.OptionDisabledDate, Value: now.Format(utils.DBTimestampLayout)},
	}
	for _, opt := range options {
		if err := tf.DB.DB.Create(opt).Error; err != nil {
			return nil, fmt.Errorf("failed to create disabled option: %w", err)
		}
	}

	prefs := []*models.GlobalPreference{
		{AccountID: account.ID, Property: models.OptionDisabled, Value: "1"},
		{AccountID: account.ID, Property: models.OptionDisabledDate, Value: now.Format(utils.DBTimestampLayout)},
	}
	for _, pref := range prefs {
		if err := tf.DB.DB.Create(pref).Error; err != nil {
			return nil, fmt.Errorf("failed to create disabled preference: %w", err)
		}
	}

	return account, nil
}

// SetAccountOption writes one option row directly
func (tf *TestFixtures) SetAccountOption(accountID uint, name, value string) error {
	opt := &models.AccountOption{
		AccountID: accountID,
		Name:      name,
		Value:     value,
	}
	if err := tf.DB.DB.Create(opt).Error; err != nil {
		return fmt.Errorf("failed to create option %s: %w", name, err)
	}
	return nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// CreateTestSession creates an active session for the account
func (tf *TestFixtures) CreateTestSession(accountID uint) (*models.AccountSession, error) {
	sessionToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure session token: %w", err)
	}

	refreshToken, err := GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secure refresh token: %w", err)
	}

	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	session := &models.AccountSession{
		CorrelationID: uuid.New(),
		AccountID:     accountID,
		SessionToken:  sessionToken,
		RefreshToken:  &refreshToken,
		ExpiresAt:     time.Now().Add(24 * time.Hour),
		IsActive:      utils.ToPtr(true),
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test session: %w", err)
	}

	return session, nil
}

// CreateTestAuditLog creates one editaccnt entry
func (tf *TestFixtures) CreateTestAuditLog(performerID, targetID uint, action string) (*models.AuditLog, error) {
	reason := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		CorrelationID: uuid.New(),
		Action:        action,
		PerformerID:   performerID,
		TargetID:      targetID,
		TargetPage:    fmt.Sprintf("User:Target %d", targetID),
		Reason:        &reason,
		IPAddress:     &ipAddress,
		UserAgent:     &userAgent,
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}
