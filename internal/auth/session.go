package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"photo-share/internal/domain"
)

// ErrInvalidSession is returned when a token is malformed, expired, or signed with another key.
var ErrInvalidSession = errors.New("invalid session token")

// SessionClaims is the payload carried by a signed session token.
// The user id travels in the registered subject claim.
type SessionClaims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// SessionUser is the user portion of a Session.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Session is the outward-facing view of a verified token.
type Session struct {
	User    SessionUser `json:"user"`
	Expires time.Time   `json:"expires"`
}

// EnrichClaims copies the verified identity onto the claims at sign-in.
// With no identity the claims pass through unchanged.
func EnrichClaims(claims SessionClaims, identity *domain.Identity) SessionClaims {
	if identity == nil {
		return claims
	}
	claims.Subject = identity.ID
	claims.Username = identity.Username
	return claims
}

// ProjectSession maps token claims onto the session shape handed to handlers.
func ProjectSession(claims SessionClaims) Session {
	session := Session{
		User: SessionUser{
			ID:       claims.Subject,
			Username: claims.Username,
		},
	}
	if claims.ExpiresAt != nil {
		session.Expires = claims.ExpiresAt.Time
	}
	return session
}

// SessionConfig parameterises a SessionIssuer.
type SessionConfig struct {
	Secret      string
	Issuer      string
	MaxAge      time.Duration
	RotateAfter time.Duration
	Now         func() time.Time
}

// SessionIssuer mints and verifies HS256 session tokens.
type SessionIssuer struct {
	secret      []byte
	issuer      string
	maxAge      time.Duration
	rotateAfter time.Duration
	now         func() time.Time
}

func NewSessionIssuer(cfg SessionConfig) (*SessionIssuer, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.MaxAge <= 0 {
		return nil, errors.New("session max age must be positive")
	}
	if cfg.RotateAfter < 0 || cfg.RotateAfter >= cfg.MaxAge {
		return nil, errors.New("session rotation age must be in [0, max age)")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &SessionIssuer{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		maxAge:      cfg.MaxAge,
		rotateAfter: cfg.RotateAfter,
		now:         cfg.Now,
	}, nil
}

// MaxAge is the lifetime of tokens minted by this issuer.
func (i *SessionIssuer) MaxAge() time.Duration {
	return i.maxAge
}

// Issue signs a fresh token for a verified identity.
func (i *SessionIssuer) Issue(identity *domain.Identity) (string, time.Time, error) {
	if identity == nil || identity.ID == "" {
		return "", time.Time{}, errors.New("identity with id is required")
	}
	return i.sign(EnrichClaims(SessionClaims{}, identity))
}

// Rotate re-signs an already verified token with fresh timestamps.
func (i *SessionIssuer) Rotate(claims SessionClaims) (string, time.Time, error) {
	return i.sign(EnrichClaims(claims, nil))
}

// NeedsRotation reports whether claims are old enough to be re-issued.
func (i *SessionIssuer) NeedsRotation(claims SessionClaims) bool {
	if i.rotateAfter <= 0 || claims.IssuedAt == nil {
		return false
	}
	return i.now().Sub(claims.IssuedAt.Time) >= i.rotateAfter
}

// Parse verifies the signature, issuer and expiry of a token.
func (i *SessionIssuer) Parse(token string) (SessionClaims, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return SessionClaims{}, ErrInvalidSession
	}
	return claims, nil
}

func (i *SessionIssuer) sign(claims SessionClaims) (string, time.Time, error) {
	now := i.now().UTC()
	expires := now.Add(i.maxAge)

	claims.Issuer = i.issuer
	claims.ID = uuid.NewString()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expires)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}
