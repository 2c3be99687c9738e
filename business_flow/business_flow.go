// Package businessflow contains the core business logic and use cases for account mutation workflows
package businessflow

import (
	"time"

	"github.com/wikiforge/account-console/app/dto"
	"github.com/wikiforge/account-console/models"
	"github.com/wikiforge/account-console/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// ToAccountDTO converts an account model plus its option rows to an AccountDTO
func ToAccountDTO(account *models.Account, temp *models.TempAccount, options []*models.AccountOption) dto.AccountDTO {
	d := dto.AccountDTO{
		ID:             account.ID,
		Name:           account.Name,
		Email:          account.Email,
		EmailConfirmed: account.IsEmailConfirmed(),
		RealName:       account.RealName,
		IsStaff:        utils.IsTrue(account.IsStaff),
		RegisteredAt:   account.RegisteredAt.Format(time.RFC3339),
		AllowAdoption:  true,
		IsProvisional:  temp.IsLive(),
	}

	if temp.IsLive() {
		// The provisional identity is the one staff should see
		d.Name = temp.Name
	}

	for _, opt := range options {
		switch opt.Name {
		case models.OptionDisabled:
			d.IsDisabled = opt.IsSet()
		case models.OptionUnsubscribed:
			d.IsUnsubscribed = opt.IsSet()
		case models.OptionNewEmail:
			if opt.Value != "" {
				d.PendingEmail = utils.ToPtr(opt.Value)
			}
		case models.OptionAllowAdoption:
			d.AllowAdoption = opt.IsSet()
		}
	}

	return d
}

// ToAuditEntryDTO converts an audit log row to its transport form
func ToAuditEntryDTO(entry *models.AuditLog) dto.AuditEntryDTO {
	d := dto.AuditEntryDTO{
		ID:         entry.ID,
		Action:     entry.Action,
		TargetPage: entry.TargetPage,
		CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
	}
	if entry.Performer != nil {
		d.Performer = entry.Performer.Name
	}
	if entry.Target != nil {
		d.Target = entry.Target.Name
	}
	if entry.Reason != nil {
		d.Reason = *entry.Reason
	}
	return d
}
