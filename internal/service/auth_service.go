package service

import (
	"context"
	"errors"
	"fmt"
	"pajak-web/internal/config"
	"pajak-web/internal/models"
	"pajak-web/internal/utils"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already exists")
)

// AuthService authenticates the operators of the tax API.
type AuthService struct {
	users  UserStore
	cfg    *config.Config
	logger *logrus.Logger
}

func NewAuthService(users UserStore, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{
		users:  users,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.WithError(err).Error("Failed to look up user")
		}
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := utils.GenerateAccessToken(*user, s.cfg.JWTSecret, s.cfg.JWTAccessExpire)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refreshToken, err := utils.GenerateRefreshToken(*user, s.cfg.JWTSecret, s.cfg.JWTRefreshExpire)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	s.logger.WithField("username", user.Username).Info("User logged in")
	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	}, nil
}

func (s *AuthService) ValidateToken(tokenString string) (*utils.JWTClaims, error) {
	return utils.ValidateToken(tokenString, s.cfg.JWTSecret)
}

func (s *AuthService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var missing []string
	if strings.TrimSpace(req.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(req.Email) == "" {
		missing = append(missing, "email")
	}
	if len(req.Password) < 8 {
		missing = append(missing, "password of at least 8 characters")
	}
	if len(missing) > 0 {
		return nil, newValidationError("register", errors.New("missing required fields"), missing...)
	}

	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	}
	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         "user",
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
