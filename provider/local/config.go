package local

import (
	"fmt"
)

// DefaultTokenExpiration is the session token lifetime in hours.
const DefaultTokenExpiration = 24

// Config holds the settings for the local identity provider.
type Config struct {
	// SigningKey is the HMAC secret for session tokens.
	SigningKey string

	// Issuer is stamped into every minted token.
	Issuer string

	// Audience is the audience claim for minted tokens (optional).
	Audience []string

	// TokenExpiration is the token lifetime in hours.
	// Default: DefaultTokenExpiration.
	TokenExpiration int
}

// Validate checks required fields and applies defaults.
func (c *Config) Validate() error {
	if c.SigningKey == "" {
		return fmt.Errorf("local provider: signing key is required")
	}

	if c.Issuer == "" {
		return fmt.Errorf("local provider: issuer is required")
	}

	if c.TokenExpiration <= 0 {
		c.TokenExpiration = DefaultTokenExpiration
	}

	return nil
}
