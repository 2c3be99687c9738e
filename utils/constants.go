package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Account constants
const (
	// DBTimestampLayout is the layout used for timestamp-valued account options
	DBTimestampLayout = "2006-01-02 15:04:05"

	// MaxAccountNameLength is the maximum byte length of an account name
	MaxAccountNameLength = 255
)
