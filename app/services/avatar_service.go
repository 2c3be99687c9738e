// Package services provides external service integrations and technical concerns like tokens and credentials
package services

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wikiforge/account-console/config"
)

// AvatarService removes profile images held by the media backend. Removal is
// best effort: callers surface failures as warnings, never as hard errors.
type AvatarService interface {
	RemoveAvatar(ctx context.Context, accountID uint) error
}

// HTTPAvatarService implements AvatarService against the media backend's REST API
type HTTPAvatarService struct {
	config *config.AvatarConfig
	client *http.Client
}

// NewAvatarService creates an avatar service. A disabled config yields a
// no-op implementation.
func NewAvatarService(cfg *config.AvatarConfig) AvatarService {
	if cfg == nil || !cfg.Enabled {
		return &NoopAvatarService{}
	}
	return &HTTPAvatarService{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// RemoveAvatar deletes the account's profile image from the media backend
func (s *HTTPAvatarService) RemoveAvatar(ctx context.Context, accountID uint) error {
	url := fmt.Sprintf("%s/avatars/%d", s.config.BaseURL, accountID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create avatar removal request: %w", err)
	}
	if s.config.APIKey != "" {
		req.Header.Set("X-API-Key", s.config.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("avatar removal request failed: %w", err)
	}
	defer resp.Body.Close()

	// 404 means there was nothing to remove
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("avatar removal returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// NoopAvatarService is used when no media backend is configured
type NoopAvatarService struct{}

func (s *NoopAvatarService) RemoveAvatar(ctx context.Context, accountID uint) error {
	return nil
}
