package dto

// AuditEntryDTO is one row of the editaccnt log
type AuditEntryDTO struct {
	ID         uint   `json:"id"`
	Action     string `json:"action"`
	Performer  string `json:"performer"`
	Target     string `json:"target"`
	TargetPage string `json:"target_page"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ListAuditRequest pages through the editaccnt log of one account
type ListAuditRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Page     int    `json:"page" validate:"omitempty,gte=1"`
	PageSize int    `json:"page_size" validate:"omitempty,gte=1,lte=100"`
}

// AuditListResponse returns a page of log entries
type AuditListResponse struct {
	Message string          `json:"message"`
	Entries []AuditEntryDTO `json:"entries"`
	Total   int64           `json:"total"`
	Page    int             `json:"page"`
}
