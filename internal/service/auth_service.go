package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"go-pos-terminal/internal/model"
	"go-pos-terminal/internal/repository"
	"go-pos-terminal/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

// SessionCloser ends the terminal session bound to a token version.
type SessionCloser interface {
	CloseSession(key string)
}

type AuthService interface {
	Login(username, password string) (*LoginResponse, error)
	Logout(principal *Principal) error
	Authenticate(tokenString string) (*Principal, error)
	ChangePassword(username, oldPassword, newPassword string) error
	Me(userID uuid.UUID) (*model.UserResponse, error)
	Heartbeat(userID uuid.UUID) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

// Principal is the authenticated caller. TokenVersion doubles as the
// terminal session key, so each login gets a fresh cart.
type Principal struct {
	UserID       uuid.UUID
	Username     string
	Role         string
	Privileges   []string
	TokenVersion string
}

func (p *Principal) HasPrivilege(code string) bool {
	for _, priv := range p.Privileges {
		if priv == code {
			return true
		}
	}
	return false
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	sessions SessionCloser
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, sessions SessionCloser) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		sessions: sessions,
	}
}

func (s *authService) Login(username, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// Single session per cashier: a new version invalidates older tokens.
	previous := user.TokenVersion
	now := time.Now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.New("failed to update session")
	}
	if previous != "" {
		s.closeSession(previous)
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Username, user.Role, user.Privileges(), user.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Privileges: user.Privileges(),
	}, nil
}

func (s *authService) Logout(principal *Principal) error {
	if err := s.userRepo.UpdateTokenVersion(principal.UserID, uuid.New().String()); err != nil {
		return err
	}
	s.closeSession(principal.TokenVersion)
	return nil
}

func (s *authService) Authenticate(tokenString string) (*Principal, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	// Privileges come from the current role, not the token, so a demotion
	// takes effect without a new login.
	return &Principal{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		Privileges:   user.Privileges(),
		TokenVersion: claims.TokenVersion,
	}, nil
}

func (s *authService) ChangePassword(username, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	return s.userRepo.Update(user)
}

func (s *authService) Me(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	resp := user.ToResponse()
	return &resp, nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	return s.userRepo.UpdateLastSeen(userID)
}

func (s *authService) closeSession(key string) {
	if s.sessions != nil {
		s.sessions.CloseSession(key)
	}
}
