package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skillsharecyber/courseplatform/internal/logging"
	"github.com/skillsharecyber/courseplatform/internal/models"
	"github.com/skillsharecyber/courseplatform/internal/revocation"
	"github.com/skillsharecyber/courseplatform/internal/tokens"
)

var (
	// ErrInvalidToken covers bad signatures and expired tokens.
	ErrInvalidToken = errors.New("invalid refresh token")
	// ErrTokenRevoked means the token is well-formed but was rotated or
	// logged out already. Kept distinct from ErrInvalidToken so the boundary
	// can answer 403 instead of 401.
	ErrTokenRevoked = errors.New("refresh token revoked")
	// ErrUserNotFound means the token's subject no longer resolves to a user.
	ErrUserNotFound = errors.New("user not found")
)

// UserStore resolves token subjects. FindUserByID returns (nil, nil) when no
// such user exists.
type UserStore interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
}

type TokenPair struct {
	Access  string
	Refresh string
}

// Core orchestrates refresh-token rotation and logout.
type Core struct {
	Users    UserStore
	Issuer   *tokens.Issuer
	Registry *revocation.Registry
}

// Rotate exchanges a valid refresh token for a fresh access/refresh pair,
// invalidating the presented token. A given token id rotates at most once:
// of two concurrent calls with the same token exactly one wins, the other
// fails with ErrTokenRevoked.
func (c *Core) Rotate(ctx context.Context, rawToken string) (*models.User, *TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "session.rotate")

	claims, err := tokens.ParseRefresh(rawToken, c.Issuer.RefreshSecret)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	if claims.ID == "" {
		return nil, nil, ErrInvalidToken
	}

	revoked, err := c.Registry.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("session: registry lookup: %w", err)
	}
	if revoked {
		l.Warn("rotate_rejected", "reason", "token_revoked", "jti", claims.ID)
		return nil, nil, ErrTokenRevoked
	}

	userID, err := tokens.SubjectID(claims.Subject)
	if err != nil {
		return nil, nil, ErrInvalidToken
	}
	user, err := c.Users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("session: user lookup: %w", err)
	}
	if user == nil {
		l.Warn("rotate_rejected", "reason", "user_not_found", "user_id", userID)
		return nil, nil, ErrUserNotFound
	}

	// Revoke before issuing. Issuing first would open a window where the old
	// and new refresh tokens are both valid if revocation failed or raced.
	won, err := c.Registry.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	if err != nil {
		return nil, nil, fmt.Errorf("session: revoke: %w", err)
	}
	if !won {
		l.Warn("rotate_rejected", "reason", "lost_rotation_race", "jti", claims.ID)
		return nil, nil, ErrTokenRevoked
	}

	access, err := c.Issuer.IssueAccess(user)
	if err != nil {
		return nil, nil, fmt.Errorf("session: issue access token: %w", err)
	}
	refresh, err := c.Issuer.IssueRefresh(user)
	if err != nil {
		return nil, nil, fmt.Errorf("session: issue refresh token: %w", err)
	}

	l.Info("rotate_success", "user_id", user.ID)
	return user, &TokenPair{Access: access, Refresh: refresh}, nil
}

// Logout revokes the presented refresh token's id. Verification failures are
// swallowed rather than propagated: the caller's session ends client-side
// regardless of whether the token was still valid.
func (c *Core) Logout(ctx context.Context, rawToken string) error {
	claims, err := tokens.ParseRefresh(rawToken, c.Issuer.RefreshSecret)
	if err != nil || claims.ID == "" {
		return nil
	}
	if _, err := c.Registry.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return fmt.Errorf("session: revoke on logout: %w", err)
	}
	return nil
}
