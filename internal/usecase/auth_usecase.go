package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bds-sync/internal/pkg/jwt"
	"bds-sync/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = repository.ErrEmailTaken
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthUsecase interface {
	Register(ctx context.Context, email, password, name string) (*TokenPair, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
}

type DefaultAuthUsecase struct {
	users repository.UserRepository
	jwt   jwt.Service
}

func NewAuthUsecase(users repository.UserRepository, jwtSvc jwt.Service) *DefaultAuthUsecase {
	return &DefaultAuthUsecase{users: users, jwt: jwtSvc}
}

func (u *DefaultAuthUsecase) Register(ctx context.Context, email, password, name string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password too short", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	user := repository.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(name),
		CreatedAt:    time.Now().UTC(),
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return u.tokens(user.ID, user.Email)
}

func (u *DefaultAuthUsecase) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := u.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return u.tokens(user.ID, user.Email)
}

func (u *DefaultAuthUsecase) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := u.jwt.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if !u.jwt.IsRefreshToken(claims) {
		return nil, ErrUnauthorized
	}

	user, err := u.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return u.tokens(user.ID, user.Email)
}

func (u *DefaultAuthUsecase) tokens(userID uuid.UUID, email string) (*TokenPair, error) {
	access, err := u.jwt.GenerateAccessToken(userID, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	refresh, err := u.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
