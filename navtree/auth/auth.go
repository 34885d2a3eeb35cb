// Package auth issues and validates bearer tokens for tree editors and
// decides who may modify a tree.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/types"
)

// PermChangeNavTree grants the right to edit navigation trees
const PermChangeNavTree = "navtree.change_navtree"

// DefaultTTL is the token lifetime when none is configured
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken is returned for malformed, expired or forged tokens
var ErrInvalidToken = errors.New("invalid token")

// User is an authenticated caller
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions,omitempty"`
	Staff       bool     `json:"staff,omitempty"`
	Superuser   bool     `json:"superuser,omitempty"`
}

// HasPerm reports whether the user holds perm. Superusers hold every
// permission.
func (u User) HasPerm(perm string) bool {
	if u.Superuser {
		return true
	}
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Viewer returns the content viewer for this user on site
func (u User) Viewer(site string) content.Viewer {
	return content.Viewer{Site: site, Staff: u.Staff || u.Superuser}
}

// Claims is the JWT payload
type Claims struct {
	UserID      string   `json:"userID"`
	Username    string   `json:"username"`
	Permissions []string `json:"perms,omitempty"`
	Staff       bool     `json:"staff,omitempty"`
	Superuser   bool     `json:"superuser,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator signs and checks HS256 tokens
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Authenticator
type Option func(*Authenticator)

// WithClock sets the time used for issued-at and expiry claims
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// NewAuthenticator returns an authenticator signing with secret. A ttl of
// zero or less uses DefaultTTL.
func NewAuthenticator(secret string, ttl time.Duration, opts ...Option) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	a := &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Issue returns a signed token for u
func (a *Authenticator) Issue(u User) (string, error) {
	if u.ID == "" {
		return "", errors.New("user id is required")
	}
	now := a.now()
	claims := &Claims{
		UserID:      u.ID,
		Username:    u.Name,
		Permissions: u.Permissions,
		Staff:       u.Staff,
		Superuser:   u.Superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the token and returns its user
func (a *Authenticator) Validate(tokenString string) (User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return User{}, ErrInvalidToken
	}
	return User{
		ID:          claims.UserID,
		Name:        claims.Username,
		Permissions: claims.Permissions,
		Staff:       claims.Staff,
		Superuser:   claims.Superuser,
	}, nil
}

// PermissionChecker grants modification rights to holders of Permission
type PermissionChecker struct {
	// Permission defaults to PermChangeNavTree
	Permission string
}

// CanModify reports whether u may edit tree
func (p PermissionChecker) CanModify(u User, _ types.Tree) bool {
	perm := p.Permission
	if perm == "" {
		perm = PermChangeNavTree
	}
	return u.ID != "" && u.HasPerm(perm)
}

type contextKey string

const userKey contextKey = "navtree.user"

// WithUser stores u in ctx
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the user stored in ctx
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}
