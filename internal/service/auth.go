package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/auth"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/domain"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/rs/zerolog/log"
)

// MaxFailedLogins is how many wrong passwords in a row lock an account.
const MaxFailedLogins = 5

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRevoked       = errors.New("token revoked")
)

// LockedError is returned by Login while an account is locked out.
type LockedError struct {
	Until time.Time
	Wait  time.Duration
}

func (e *LockedError) Error() string {
	minutes := int(math.Ceil(e.Wait.Minutes()))
	if minutes <= 1 {
		return "Your account is locked. Please wait 1 minute to try again."
	}
	return fmt.Sprintf("Your account is locked. Please wait %d minutes to try again.", minutes)
}

type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	RecordLogin(ctx context.Context, userID int64, at time.Time) error
	RecordFailedLogin(ctx context.Context, userID int64, attempts int, lockedUntil *time.Time) error
	RoleScopes(ctx context.Context, username string) (domain.RoleScopes, error)
	SetPassword(ctx context.Context, userID int64, hash string) error
}

// Session is what a successful login hands back to the client.
type Session struct {
	Token  string
	Claims *auth.Claims
	User   domain.User
	Scopes domain.RoleScopes
}

type AuthService struct {
	users       UserStore
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
	lockFor     time.Duration
	now         func() time.Time
}

func NewAuthService(users UserStore, tokens *auth.TokenManager, revocations auth.RevocationStore, lockFor time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, revocations: revocations, lockFor: lockFor, now: time.Now}
}

// Login checks a password, maintaining the failed attempt counter and
// lockout window on the user row.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	now := s.now()
	if u.LockedUntil != nil && u.LockedUntil.After(now) {
		return nil, &LockedError{Until: *u.LockedUntil, Wait: u.LockedUntil.Sub(now)}
	}

	if !u.IsActive || !auth.CheckPassword(u.PasswordHash, password) {
		attempts := u.FailedLoginAttempts + 1
		var until *time.Time
		if attempts >= MaxFailedLogins {
			t := now.Add(s.lockFor)
			until = &t
		}
		if err := s.users.RecordFailedLogin(ctx, u.ID, attempts, until); err != nil {
			log.Warn().Err(err).Str("username", username).Msg("record failed login")
		}
		if until != nil {
			log.Warn().Str("username", username).Time("locked_until", *until).Msg("account locked")
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.users.RecordLogin(ctx, u.ID, now); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("record login")
	}

	role := domain.RoleGuest
	if u.Role != nil && *u.Role != "" {
		role = *u.Role
	}
	token, claims, err := s.tokens.Issue(u.Username, role)
	if err != nil {
		return nil, err
	}
	scopes, err := s.users.RoleScopes(ctx, u.Username)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Claims: claims, User: u, Scopes: scopes}, nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	until := s.now().Add(time.Minute)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return s.revocations.Revoke(ctx, claims.ID, until)
}

func (s *AuthService) Scopes(ctx context.Context, username string) (domain.RoleScopes, error) {
	return s.users.RoleScopes(ctx, username)
}

// Me returns the caller's profile together with the scopes of its role.
func (s *AuthService) Me(ctx context.Context, username string) (domain.User, domain.RoleScopes, error) {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, domain.RoleScopes{}, err
	}
	scopes, err := s.users.RoleScopes(ctx, username)
	if err != nil {
		return domain.User{}, domain.RoleScopes{}, err
	}
	return u, scopes, nil
}

// ChangePassword replaces the caller's password after checking the current
// one. A wrong current password is ErrInvalidCredentials and does not count
// towards the lockout.
func (s *AuthService) ChangePassword(ctx context.Context, username, current, next string) error {
	u, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("password changed")
	return nil
}
