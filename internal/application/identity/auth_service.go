package identity

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/orgdir/backend/internal/domain/identity"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/auth"
	"github.com/orgdir/backend/internal/infrastructure/telemetry"
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	policy     identity.PasswordPolicy
	metrics    *telemetry.DirectoryMetrics
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	policy identity.PasswordPolicy,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		policy:     policy,
		logger:     logger,
	}
}

// SetMetrics sets the directory metrics recorder
func (s *AuthService) SetMetrics(m *telemetry.DirectoryMetrics) {
	s.metrics = m
}

// Login authenticates a user by email and password and issues an access token.
// Unknown users, wrong passwords and inactive accounts all fail the same way.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (result *LoginResult, err error) {
	defer func() { s.metrics.RecordLogin(ctx, err == nil) }()

	email := identity.NormalizeEmail(input.Username)
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login attempt for unknown user", zap.String("email", email))
			return nil, identity.ErrBadCredentials
		}
		return nil, err
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.Int64("user_id", user.ID))
		return nil, identity.ErrBadCredentials
	}
	if !user.CanLogin() {
		s.logger.Warn("Login attempt for inactive account", zap.Int64("user_id", user.ID))
		return nil, identity.ErrBadCredentials
	}

	token, err := s.jwtService.GenerateAccessToken(auth.TokenSubject{
		UserID:      user.ID,
		Email:       user.Email,
		IsSuperuser: user.IsSuperuser,
	})
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication token")
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return &LoginResult{
		AccessToken: token.Token,
		TokenType:   token.TokenType,
		ExpiresAt:   token.ExpiresAt,
	}, nil
}

// Logout revokes the presented token until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" || input.TTL <= 0 {
		return nil
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TTL); err != nil {
		s.logger.Error("Failed to blacklist token", zap.Error(err))
		return err
	}
	s.logger.Info("User logged out", zap.Int64("user_id", input.UserID))
	return nil
}

// Register creates a regular, unverified account
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserDTO, error) {
	email := identity.NormalizeEmail(req.Email)
	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, identity.ErrUserAlreadyExists
	}

	user, err := identity.NewUser(email, req.Password, s.policy)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.metrics.RecordWrite(ctx, telemetry.EntityUser, telemetry.ActionCreate)

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return ToUserDTO(user), nil
}

// CreateFirstSuperuser creates the administrator account unless the email is
// already registered. It reports whether an account was created.
func (s *AuthService) CreateFirstSuperuser(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	exists, err := s.userRepo.ExistsByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	user, err := identity.NewSuperuser(email, password, s.policy)
	if err != nil {
		return false, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, identity.ErrUserAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info("Superuser created", zap.String("email", user.Email))
	return true, nil
}

// TokenLifetime returns how long issued tokens stay valid
func (s *AuthService) TokenLifetime() time.Duration {
	return s.jwtService.Lifetime()
}
