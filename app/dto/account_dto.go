package dto

// AccountDTO is the staff-facing view of an account
type AccountDTO struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	EmailConfirmed bool    `json:"email_confirmed"`
	PendingEmail   *string `json:"pending_email,omitempty"`
	RealName       string  `json:"real_name"`
	IsStaff        bool    `json:"is_staff"`
	IsDisabled     bool    `json:"is_disabled"`
	IsUnsubscribed bool    `json:"is_unsubscribed"`
	AllowAdoption  bool    `json:"allow_adoption"`
	IsProvisional  bool    `json:"is_provisional"`
	RegisteredAt   string  `json:"registered_at"`
}

// GetAccountRequest looks an account up by display name
type GetAccountRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// GetAccountResponse returns the account view
type GetAccountResponse struct {
	Message string     `json:"message"`
	Account AccountDTO `json:"account"`
}

// SetEmailRequest changes or clears the target's email address
type SetEmailRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	NewEmail string `json:"new_email" validate:"omitempty,email,max=255"`
	Reason   string `json:"reason" validate:"max=500"`
}

// SetPasswordRequest sets a new password on the target account
type SetPasswordRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128,password_strength"`
	Reason      string `json:"reason" validate:"max=500"`
}

// SetRealNameRequest changes or clears the target's real name
type SetRealNameRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	NewRealName string `json:"new_real_name" validate:"max=255"`
	Reason      string `json:"reason" validate:"max=500"`
}

// CloseAccountRequest permanently deactivates an account. Name is required on
// the staff surface; the self-service surface closes the caller's own account.
type CloseAccountRequest struct {
	Name   string `json:"name" validate:"omitempty,max=255"`
	Reason string `json:"reason" validate:"max=500"`
}

// AccountFlagRequest addresses an account for flag-level operations
// (clear-unsubscribe, clear-disable, toggle-adoption)
type AccountFlagRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	Reason string `json:"reason" validate:"max=500"`
}

// MutationResponse reports a completed account mutation
type MutationResponse struct {
	Message string `json:"message"`
	Target  string `json:"target"`
	Warning string `json:"warning,omitempty"`
}

// ToggleAdoptionResponse reports the new adoption flag state
type ToggleAdoptionResponse struct {
	Message       string `json:"message"`
	Target        string `json:"target"`
	AllowAdoption bool   `json:"allow_adoption"`
}

// CloseRequestedResponse reports whether the owner asked for closure themselves
type CloseRequestedResponse struct {
	Message   string `json:"message"`
	Target    string `json:"target"`
	Requested bool   `json:"requested"`
}
