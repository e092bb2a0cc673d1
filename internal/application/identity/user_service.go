package identity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orgdir/backend/internal/domain/identity"
	"github.com/orgdir/backend/internal/domain/shared"
	"github.com/orgdir/backend/internal/infrastructure/auth"
	"github.com/orgdir/backend/internal/infrastructure/telemetry"
)

// ErrEmailAlreadyExists is returned when an update would duplicate an email
var ErrEmailAlreadyExists = shared.NewDomainError("UPDATE_USER_EMAIL_ALREADY_EXISTS", "User with this email already exists")

// UserService handles user account management
type UserService struct {
	userRepo      identity.UserRepository
	blacklist     auth.TokenBlacklist
	policy        identity.PasswordPolicy
	tokenLifetime time.Duration
	metrics       *telemetry.DirectoryMetrics
	logger        *zap.Logger
}

// NewUserService creates a new UserService. Tokens of a user are revoked for
// tokenLifetime when their password changes or the account is disabled.
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	policy identity.PasswordPolicy,
	tokenLifetime time.Duration,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		userRepo:      userRepo,
		blacklist:     blacklist,
		policy:        policy,
		tokenLifetime: tokenLifetime,
		logger:        logger,
	}
}

// SetMetrics sets the directory metrics recorder
func (s *UserService) SetMetrics(m *telemetry.DirectoryMetrics) {
	s.metrics = m
}

// Me returns the caller's account
func (s *UserService) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	return s.Get(ctx, userID)
}

// UpdateMe changes the caller's email or password
func (s *UserService) UpdateMe(ctx context.Context, userID int64, req UpdateMeRequest) (*UserDTO, error) {
	return s.update(ctx, userID, identity.UserPatch{Email: req.Email, Password: req.Password}, false)
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id int64) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToUserDTO(user), nil
}

// Update applies a superuser-driven update, privilege flags included
func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest) (*UserDTO, error) {
	return s.update(ctx, id, identity.UserPatch{
		Email:       req.Email,
		Password:    req.Password,
		IsActive:    req.IsActive,
		IsSuperuser: req.IsSuperuser,
		IsVerified:  req.IsVerified,
	}, true)
}

// Delete removes a user and revokes their tokens
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.revokeTokens(ctx, id)
	s.metrics.RecordWrite(ctx, telemetry.EntityUser, telemetry.ActionDelete)
	s.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

func (s *UserService) update(ctx context.Context, id int64, patch identity.UserPatch, privileged bool) (*UserDTO, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Email != nil {
		email := identity.NormalizeEmail(*patch.Email)
		if email != user.Email {
			exists, err := s.userRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrEmailAlreadyExists
			}
		}
	}

	wasActive := user.IsActive
	if err := user.Apply(patch, s.policy, privileged); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.metrics.RecordWrite(ctx, telemetry.EntityUser, telemetry.ActionUpdate)

	if patch.Password != nil || (wasActive && !user.IsActive) {
		s.revokeTokens(ctx, id)
	}
	return ToUserDTO(user), nil
}

// revokeTokens invalidates every token issued to the user so far. Failures
// are logged; the account change itself has already been stored.
func (s *UserService) revokeTokens(ctx context.Context, userID int64) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.InvalidateUserTokens(ctx, userID, s.tokenLifetime); err != nil {
		s.logger.Error("Failed to revoke user tokens", zap.Int64("user_id", userID), zap.Error(err))
	}
}
