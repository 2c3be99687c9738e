// Package services provides external service integrations and technical concerns like tokens and credentials
package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wikiforge/account-console/utils"

	"github.com/golang-jwt/jwt/v5"
)

// Token service error constants
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token has been revoked")
)

// TokenService handles JWT token generation and validation
type TokenService interface {
	// GenerateTokens issues an access/refresh pair bound to the account's
	// current token seed. Rotating the seed retires the pair.
	GenerateTokens(accountID uint, staff bool, seed string) (accessToken, refreshToken string, err error)
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, err error)
	// RevokeAccountTokens invalidates every token issued to the account before
	// the moment of the call.
	RevokeAccountTokens(ctx context.Context, accountID uint) error
}

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	AccountID uint      `json:"account_id"`
	Staff     bool      `json:"staff"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	TokenType string    `json:"token_type"` // "access" or "refresh"
	TokenID   string    `json:"jti"`        // JWT ID for token revocation
	Seed      string    `json:"seed"`       // Account token seed at issue time
}

// TokenServiceImpl implements TokenService
type TokenServiceImpl struct {
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	signingMethod   jwt.SigningMethod
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	secretKey       []byte
	useRSAKeys      bool
	issuer          string
	audience        string
	cache           *redis.Client // nil disables the revocation list
}

// NewTokenService creates a new token service
func NewTokenService(accessTokenTTL, refreshTokenTTL time.Duration, issuer, audience string, useRSAKeys bool, privateKeyPEM, publicKeyPEM, secretKey string, cache *redis.Client) (TokenService, error) {
	var privateKey *rsa.PrivateKey
	var publicKey *rsa.PublicKey
	var secretKeyBytes []byte
	var signingMethod jwt.SigningMethod

	if useRSAKeys {
		// Use RSA keys
		var err error
		privateKey, publicKey, err = parseRSAKeys(privateKeyPEM, publicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RSA keys: %w", err)
		}
		signingMethod = jwt.SigningMethodRS256
	} else {
		// Use symmetric key
		if secretKey == "" {
			return nil, fmt.Errorf("secret key is required when not using RSA keys")
		}
		secretKeyBytes = []byte(secretKey)
		signingMethod = jwt.SigningMethodHS256
	}

	return &TokenServiceImpl{
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		signingMethod:   signingMethod,
		privateKey:      privateKey,
		publicKey:       publicKey,
		secretKey:       secretKeyBytes,
		useRSAKeys:      useRSAKeys,
		issuer:          issuer,
		audience:        audience,
		cache:           cache,
	}, nil
}

// parseRSAKeys parses RSA private and public keys from PEM format
func parseRSAKeys(privateKeyPEM, publicKeyPEM string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	if privateKeyPEM == "" || publicKeyPEM == "" {
		return nil, nil, fmt.Errorf("both private and public keys are required")
	}

	// Parse private key
	privateKeyBlock, _ := pem.Decode([]byte(privateKeyPEM))
	if privateKeyBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode private key")
	}

	privateKey, err := x509.ParsePKCS1PrivateKey(privateKeyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	// Parse public key
	publicKeyBlock, _ := pem.Decode([]byte(publicKeyPEM))
	if publicKeyBlock == nil {
		return nil, nil, fmt.Errorf("failed to decode public key")
	}

	publicKey, err := x509.ParsePKIXPublicKey(publicKeyBlock.Bytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	rsaPublicKey, ok := publicKey.(*rsa.PublicKey)
	if !ok {
		return nil, nil, fmt.Errorf("public key is not RSA")
	}

	return privateKey, rsaPublicKey, nil
}

// GenerateTokens generates access and refresh tokens for an account
func (s *TokenServiceImpl) GenerateTokens(accountID uint, staff bool, seed string) (accessToken, refreshToken string, err error) {
	now := utils.UTCNow()

	// Generate unique token IDs
	accessTokenID, err := generateTokenID()
	if err != nil {
		return "", "", err
	}

	refreshTokenID, err := generateTokenID()
	if err != nil {
		return "", "", err
	}

	// Generate access token
	accessClaims := jwt.MapClaims{
		"account_id": accountID,
		"staff":      staff,
		"seed":       seed,
		"token_type": "access",
		"jti":        accessTokenID,
		"iat":        now.Unix(),
		"exp":        now.Add(s.accessTokenTTL).Unix(),
		"iss":        s.issuer,
		"aud":        s.audience,
	}

	accessToken, err = s.generateToken(accessClaims)
	if err != nil {
		return "", "", err
	}

	// Generate refresh token
	refreshClaims := jwt.MapClaims{
		"account_id": accountID,
		"staff":      staff,
		"seed":       seed,
		"token_type": "refresh",
		"jti":        refreshTokenID,
		"iat":        now.Unix(),
		"exp":        now.Add(s.refreshTokenTTL).Unix(),
		"iss":        s.issuer,
		"aud":        s.audience,
	}

	refreshToken, err = s.generateToken(refreshClaims)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ValidateToken validates a JWT token and returns claims
func (s *TokenServiceImpl) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	var err error
	var parsedToken *jwt.Token

	if s.useRSAKeys {
		parsedToken, err = jwt.Parse(token, func(token *jwt.Token) (any, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}

			return s.publicKey, nil
		})
	} else {
		parsedToken, err = jwt.Parse(token, func(token *jwt.Token) (any, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}

			return s.secretKey, nil
		})
	}

	if err != nil {
		// Check if the error is due to token expiration
		if strings.Contains(err.Error(), "expired") || strings.Contains(err.Error(), "exp") {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	// Extract claims
	accountID, ok := claims["account_id"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	staff, _ := claims["staff"].(bool)
	seed, _ := claims["seed"].(string)

	tokenType, ok := claims["token_type"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	tokenID, ok := claims["jti"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}

	issuedAt, ok := claims["iat"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	expiresAt, ok := claims["exp"].(float64)
	if !ok {
		return nil, ErrTokenInvalid
	}

	// Check if token has expired
	if utils.UTCNow().After(time.Unix(int64(expiresAt), 0)) {
		return nil, ErrTokenExpired
	}

	// Check if the account's tokens have been revoked since issuance
	revoked, err := s.isRevoked(ctx, uint(accountID), time.Unix(int64(issuedAt), 0))
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return &TokenClaims{
		AccountID: uint(accountID),
		Staff:     staff,
		Seed:      seed,
		TokenType: tokenType,
		TokenID:   tokenID,
		IssuedAt:  time.Unix(int64(issuedAt), 0),
		ExpiresAt: time.Unix(int64(expiresAt), 0),
	}, nil
}

// RefreshToken generates new tokens using a refresh token
func (s *TokenServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, err error) {
	// Validate refresh token
	claims, err := s.ValidateToken(ctx, refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("invalid refresh token: %w", err)
	}

	if claims.TokenType != "refresh" {
		return "", "", fmt.Errorf("token is not a refresh token")
	}

	if utils.UTCNow().After(claims.ExpiresAt) {
		return "", "", fmt.Errorf("refresh token has expired")
	}

	// Generate new tokens bound to the same seed
	return s.GenerateTokens(claims.AccountID, claims.Staff, claims.Seed)
}

// RevokeAccountTokens records a revocation cutoff for the account. Tokens
// issued before the cutoff fail validation until the longest-lived token
// would have expired anyway.
func (s *TokenServiceImpl) RevokeAccountTokens(ctx context.Context, accountID uint) error {
	if s.cache == nil {
		return nil
	}

	key := revocationKey(accountID)
	cutoff := strconv.FormatInt(utils.UTCNowUnix(), 10)
	if err := s.cache.Set(ctx, key, cutoff, s.refreshTokenTTL).Err(); err != nil {
		return fmt.Errorf("failed to record token revocation: %w", err)
	}

	return nil
}

// isRevoked checks the revocation cutoff for the account against the token's
// issue time
func (s *TokenServiceImpl) isRevoked(ctx context.Context, accountID uint, issuedAt time.Time) (bool, error) {
	if s.cache == nil {
		return false, nil
	}

	val, err := s.cache.Get(ctx, revocationKey(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	cutoff, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("malformed revocation cutoff: %w", err)
	}

	return !issuedAt.After(time.Unix(cutoff, 0)), nil
}

func revocationKey(accountID uint) string {
	return fmt.Sprintf("token_revoked_after:%d", accountID)
}

// generateToken creates a signed JWT token
func (s *TokenServiceImpl) generateToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(s.signingMethod, claims)

	var signedString string
	var err error

	if s.useRSAKeys {
		signedString, err = token.SignedString(s.privateKey)
	} else {
		signedString, err = token.SignedString(s.secretKey)
	}

	if err != nil {
		return "", err
	}

	return signedString, nil
}

// generateTokenID generates a unique token ID
func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", bytes), nil
}
