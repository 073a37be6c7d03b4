package jwt

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-auth-client/internal/utils"
)

// Claims is the subset of access token claims the client needs.
// The signature is never verified here: the server is the authority, the client only reads the
// expiry to decide when to refresh.
type Claims struct {
	ID        string    // jti
	Subject   string    // Users unique ID
	Issuer    string    // Issuer of the token
	Audience  []string  // Audience the token was minted for
	Tenant    string    // Tenant
	Roles     []string  // Roles assigned to the User
	IssuedAt  time.Time // Zero when the iat claim is missing
	ExpiresAt time.Time // Zero when the exp claim is missing
}

// Expired reports whether the token expires at or before now.
// Tokens without an exp claim never expire from the client's point of view.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !c.ExpiresAt.After(now)
}

// Decoder extracts Claims from raw access tokens.
type Decoder struct {
	parser *jwtlib.Parser
	skew   time.Duration
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithExpirySkew moves the reported expiry earlier by skew so tokens are refreshed slightly before
// the server starts rejecting them.
func WithExpirySkew(skew time.Duration) DecoderOption {
	return func(d *Decoder) {
		if skew > 0 {
			d.skew = skew
		}
	}
}

// NewDecoder creates a new claims decoder
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{parser: jwtlib.NewParser()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses the token without verifying it. Any malformed input yields (nil, false).
func (d *Decoder) Decode(rawToken string) (*Claims, bool) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, false
	}

	token, _, err := d.parser.ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, false
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, false
	}

	c := &Claims{}
	c.ID, _ = claims["jti"].(string)
	c.Tenant, _ = claims["tenant"].(string)
	if sub, err := claims.GetSubject(); err == nil {
		c.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		c.Issuer = iss
	}
	if aud, err := claims.GetAudience(); err == nil {
		c.Audience = aud
	}

	// A present but malformed time claim makes the whole token unreadable.
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, false
	}
	if exp != nil {
		c.ExpiresAt = exp.Time.Add(-d.skew)
	}
	iat, err := claims.GetIssuedAt()
	if err != nil {
		return nil, false
	}
	if iat != nil {
		c.IssuedAt = iat.Time
	}

	switch roles := claims["roles"].(type) {
	case []any:
		c.Roles = utils.ToStringSlice(roles)
	case string:
		c.Roles = strings.Fields(roles)
	}

	return c, true
}
