package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"bds-sync/internal/pkg/jwt"
	"bds-sync/internal/repository"
)

type fakeUserRepo struct {
	byEmail map[string]repository.User
	byID    map[uuid.UUID]repository.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]repository.User{},
		byID:    map[uuid.UUID]repository.User{},
	}
}

func (r *fakeUserRepo) Create(_ context.Context, u repository.User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return repository.ErrEmailTaken
	}
	r.byEmail[u.Email] = u
	r.byID[u.ID] = u
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*repository.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*repository.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func testJWT() jwt.Service {
	return jwt.NewHMACService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
}

func TestAuthRegisterThenLogin(t *testing.T) {
	uc := NewAuthUsecase(newFakeUserRepo(), testJWT())

	pair, err := uc.Register(context.Background(), "Anh@Example.com", "s3cretpass", "Anh")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected a full token pair")
	}

	// Email lookup is case-insensitive.
	if _, err := uc.Login(context.Background(), "anh@example.com", "s3cretpass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestAuthRegisterRejectsBadInput(t *testing.T) {
	uc := NewAuthUsecase(newFakeUserRepo(), testJWT())

	if _, err := uc.Register(context.Background(), "not-an-email", "s3cretpass", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
	if _, err := uc.Register(context.Background(), "a@b.vn", "short", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	uc := NewAuthUsecase(newFakeUserRepo(), testJWT())

	if _, err := uc.Register(context.Background(), "a@b.vn", "s3cretpass", ""); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := uc.Register(context.Background(), "a@b.vn", "otherpass99", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthLoginWrongPassword(t *testing.T) {
	uc := NewAuthUsecase(newFakeUserRepo(), testJWT())

	if _, err := uc.Register(context.Background(), "a@b.vn", "s3cretpass", ""); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := uc.Login(context.Background(), "a@b.vn", "wrongpass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := uc.Login(context.Background(), "nobody@b.vn", "s3cretpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuthRefreshRejectsAccessToken(t *testing.T) {
	uc := NewAuthUsecase(newFakeUserRepo(), testJWT())

	pair, err := uc.Register(context.Background(), "a@b.vn", "s3cretpass", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := uc.Refresh(context.Background(), pair.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for access token, got %v", err)
	}

	fresh, err := uc.Refresh(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if fresh.AccessToken == "" || fresh.RefreshToken == "" {
		t.Fatal("expected a fresh token pair")
	}
}
