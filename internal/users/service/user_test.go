package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	userserrors "yellowbox/internal/users/errors"
	"yellowbox/internal/users/validator"
	"yellowbox/pkg/config"
	apperrors "yellowbox/pkg/errors"
	"yellowbox/pkg/logger"
	"yellowbox/pkg/model"
	"yellowbox/pkg/token"
)

// ────────────────────────────────────────────────
// Mock repository
// ────────────────────────────────────────────────

type mockUserRepository struct {
	createFunc      func(ctx context.Context, user *model.User) error
	findByIDFunc    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFunc func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, userserrors.ErrNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return nil, userserrors.ErrNotFound
}

func newTestService(repo *mockUserRepository) UserService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{Log: log}
	issuer := token.NewIssuer("test-secret", time.Hour)
	return NewUserService(repo, validator.NewUserValidator(log), issuer, cfg)
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreateUser_Success(t *testing.T) {
	var created *model.User
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	svc := newTestService(repo)

	user, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Email:    "Someone@Example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Email != "someone@example.com" {
		t.Errorf("emails are stored lowercase, got %q", user.Email)
	}
	if !strings.HasPrefix(user.ID, "user_") {
		t.Errorf("expected a user_ prefixed ID, got %q", user.ID)
	}
	if created.Password == "correct-horse" {
		t.Error("the password must be hashed before storage")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.Password), []byte("correct-horse")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user_existing", Email: email}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), &model.CreateUserRequest{
		Email:    "someone@example.com",
		Password: "correct-horse",
	})
	if err == nil {
		t.Fatal("expected an error for a duplicate email")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Errorf("expected conflict, got %s", appErr.Code)
	}
}

func TestCreateUser_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	tests := []struct {
		name string
		req  *model.CreateUserRequest
	}{
		{"missing email", &model.CreateUserRequest{Password: "correct-horse"}},
		{"bad email", &model.CreateUserRequest{Email: "not-an-email", Password: "correct-horse"}},
		{"short password", &model.CreateUserRequest{Email: "someone@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			appErr := apperrors.AsAppError(err)
			if appErr.Code != apperrors.CodeValidation {
				t.Errorf("expected validation error, got %s", appErr.Code)
			}
		})
	}
}

// ────────────────────────────────────────────────
// GetByID
// ────────────────────────────────────────────────

func TestGetUserByID_MissIsNotAnError(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	user, err := svc.GetByID(context.Background(), "user_missing")
	if err != nil {
		t.Fatalf("a lookup miss is not an error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil user, got %+v", user)
	}
}

func TestGetUserByID_EmptyID(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	_, err := svc.GetByID(context.Background(), "")
	if err == nil {
		t.Fatal("expected an error for an empty ID")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeInvalidInput {
		t.Errorf("expected invalid input, got %s", appErr.Code)
	}
}

// ────────────────────────────────────────────────
// Login
// ────────────────────────────────────────────────

func TestLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user_abc", Email: email, Password: string(hash)}, nil
		},
	}
	svc := newTestService(repo)

	result, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "someone@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a signed token")
	}

	issuer := token.NewIssuer("test-secret", time.Hour)
	subject, err := issuer.ExtractSubject(result.Token)
	if err != nil {
		t.Fatalf("the token does not verify: %v", err)
	}
	if subject != "user_abc" {
		t.Errorf("expected subject user_abc, got %q", subject)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestService(&mockUserRepository{})

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	if err == nil {
		t.Fatal("expected an error for an unknown email")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeNotFound {
		t.Errorf("expected not found, got %s", appErr.Code)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	repo := &mockUserRepository{
		findByEmailFunc: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user_abc", Email: email, Password: string(hash)}, nil
		},
	}
	svc := newTestService(repo)

	_, err = svc.Login(context.Background(), &model.LoginRequest{
		Email:    "someone@example.com",
		Password: "wrong-horse",
	})
	if err == nil {
		t.Fatal("expected an error for a wrong password")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeUnauthorized {
		t.Errorf("expected unauthorized, got %s", appErr.Code)
	}
}
