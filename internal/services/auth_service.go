package services

import (
	"strings"

	"github.com/dealflow-hq/dealflow-api/internal/auth"
	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/repository"
	"github.com/dealflow-hq/dealflow-api/pkg/config"
)

// authService implements AuthService
type authService struct {
	repos      *repository.Repositories
	jwtService *auth.JWTService
}

// newAuthService creates a new auth service implementation
func newAuthService(repos *repository.Repositories, cfg *config.Config) AuthService {
	return &authService{
		repos:      repos,
		jwtService: auth.NewJWTService(cfg.JWTSecret),
	}
}

// Login authenticates a user and returns a token pair
func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.repos.User.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, errors.Unauthorized("invalid credentials", nil)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errors.Unauthorized("invalid credentials", nil)
	}

	return s.issueTokens(user)
}

// Register creates a new user account
func (s *authService) Register(req *RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.InvalidInput("a valid email is required", nil)
	}
	if len(req.Password) < 8 {
		return nil, errors.InvalidInput("password must be at least 8 characters", nil)
	}
	if req.Role != string(models.RoleSeller) && req.Role != string(models.RoleBuyer) {
		return nil, errors.InvalidInput("role must be seller or buyer", nil)
	}

	if existing, err := s.repos.User.GetByEmail(email); err == nil && existing != nil {
		return nil, errors.Conflict("an account with this email already exists", nil)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, errors.InternalError("failed to hash password", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.repos.User.Create(user); err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

// ValidateToken validates a JWT token and returns the user it names
func (s *authService) ValidateToken(token string) (*models.User, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthorized("invalid token", err)
	}

	user, err := s.repos.User.GetByID(claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("user no longer exists", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// RefreshToken generates a new token pair from a refresh token
func (s *authService) RefreshToken(refreshToken string) (*LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid refresh token", err)
	}

	user, err := s.repos.User.GetByID(claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("user no longer exists", err)
	}

	return s.issueTokens(user)
}

func (s *authService) issueTokens(user *models.User) (*LoginResponse, error) {
	claims := auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	token, expiresAt, err := s.jwtService.GenerateToken(claims)
	if err != nil {
		return nil, errors.InternalError("failed to generate token", err)
	}

	refreshToken, _, err := s.jwtService.GenerateRefreshToken(claims)
	if err != nil {
		return nil, errors.InternalError("failed to generate refresh token", err)
	}

	sanitized := *user
	sanitized.PasswordHash = ""

	return &LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         sanitized,
		ExpiresAt:    expiresAt,
	}, nil
}
