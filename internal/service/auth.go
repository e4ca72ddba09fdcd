package service

import (
	"context"
	"errors"
	"strings"

	"github.com/eatmeetclub/api/internal/database"
	"github.com/eatmeetclub/api/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt cost factor (10-14 recommended for production)
const bcryptCost = 12

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, role model.UserRole, page model.Page) ([]*model.User, bool, error)
	SetRole(ctx context.Context, userID string, role model.UserRole) error
	TouchLogin(ctx context.Context, userID string) error
}

// AuthService handles authentication operations
type AuthService struct {
	userRepo     UserRepository
	tokenService *TokenService
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo     UserRepository
	TokenService *TokenService
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	return &AuthService{
		userRepo:     cfg.UserRepo,
		tokenService: cfg.TokenService,
	}
}

// AuthResult is returned by register, login and refresh
type AuthResult struct {
	User      *model.User `json:"user"`
	TokenPair *TokenPair  `json:"tokens"`
}

// Register creates a member account with email/password
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*AuthResult, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	email := model.NormalizeEmail(req.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Hash:      &hash,
		Firstname: strings.TrimSpace(req.Firstname),
		Lastname:  strings.TrimSpace(req.Lastname),
		Phone:     req.Phone,
		Role:      model.UserRoleMember,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}

	pair, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Login authenticates a user with email/password
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, model.NormalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.Hash == nil || *user.Hash == "" {
		return nil, ErrInvalidCredentials
	}
	if !checkPassword(req.Password, *user.Hash) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	_ = s.userRepo.TouchLogin(ctx, user.ID)

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Refresh rotates a refresh token into a new token pair. The role in the
// new access token is read from the store, so role changes apply here.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.tokenService.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.tokenService.GenerateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Logout revokes every refresh token of the user
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.tokenService.RevokeAllUserTokens(ctx, userID)
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListUsers lists accounts for the back-office
func (s *AuthService) ListUsers(ctx context.Context, role model.UserRole, page model.Page) ([]*model.User, bool, error) {
	return s.userRepo.List(ctx, role, page.Normalize())
}

// SetRole changes a user's role and revokes their refresh tokens
func (s *AuthService) SetRole(ctx context.Context, userID string, req *model.UpdateUserRoleRequest) (*model.User, error) {
	if err := NewValidationError(req.Validate()); err != nil {
		return nil, err
	}
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetRole(ctx, userID, req.Role); err != nil {
		return nil, err
	}
	if err := s.tokenService.RevokeAllUserTokens(ctx, userID); err != nil {
		return nil, err
	}
	user.Role = req.Role
	return user, nil
}

// hashPassword creates a bcrypt hash of the password
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// checkPassword verifies a password against a hash
func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
