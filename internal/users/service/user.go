package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	userserrors "yellowbox/internal/users/errors"
	"yellowbox/internal/users/repository"
	"yellowbox/internal/users/validator"
	"yellowbox/pkg/config"
	apperrors "yellowbox/pkg/errors"
	"yellowbox/pkg/model"
	"yellowbox/pkg/token"
)

type UserService interface {
	Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	// GetByID returns the user, or nil without error when no such user
	// exists. Callers that need a 404 translate the nil themselves; the
	// booking coordinator treats a nil record as "user is not found".
	GetByID(ctx context.Context, id string) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResult, error)
}

type userService struct {
	repo      repository.UserRepository
	validator *validator.UserValidator
	issuer    *token.Issuer
	cfg       *config.Config
}

func NewUserService(
	repo repository.UserRepository,
	validator *validator.UserValidator,
	issuer *token.Issuer,
	cfg *config.Config,
) UserService {
	return &userService{
		repo:      repo,
		validator: validator,
		issuer:    issuer,
		cfg:       cfg,
	}
}

func (s *userService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("User validation failed", "error", err)
		return nil, apperrors.Validation("Invalid user input", map[string]any{"error": err.Error()})
	}

	email := strings.ToLower(req.Email)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, apperrors.Conflict("Create User failed as the user already exist")
	} else if !errors.Is(err, userserrors.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check existing user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to hash password", err)
	}

	user := &model.User{
		ID:       fmt.Sprintf("user_%s", uuid.NewString()),
		Email:    email,
		Password: string(hash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, userserrors.ErrEmailTaken) {
			return nil, apperrors.Conflict("Create User failed as the user already exist")
		}
		s.cfg.Log.Error("Failed to create user", "email", email, "error", err)
		return nil, apperrors.Internal("Failed to create user", err)
	}

	s.cfg.Log.Info("User created successfully", "user_id", user.ID)
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("User ID cannot be empty")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	return user, nil
}

func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResult, error) {
	if err := s.validator.ValidateLogin(req); err != nil {
		s.cfg.Log.Warn("Login validation failed", "error", err)
		return nil, apperrors.Validation("Invalid login input", map[string]any{"error": err.Error()})
	}

	user, err := s.repo.FindByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, userserrors.ErrNotFound) {
			return nil, apperrors.NotFound("User is not found")
		}
		return nil, apperrors.Internal("Failed to retrieve user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("Password is incorrect")
	}

	signed, err := s.issuer.Generate(user.ID, user.Email)
	if err != nil {
		s.cfg.Log.Error("Failed to sign token", "user_id", user.ID, "error", err)
		return nil, apperrors.Internal("Failed to generate token", err)
	}

	s.cfg.Log.Info("User logged in", "user_id", user.ID)
	return &model.LoginResult{Token: signed}, nil
}
