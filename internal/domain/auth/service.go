package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fiskalis/internal/core/apperror"
	"fiskalis/internal/core/id"
	"fiskalis/internal/core/tx"
	"fiskalis/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// Service provides authentication operations.
type Service struct {
	users       UserRepository
	roles       RoleRepository
	permissions PermissionRepository
	tokens      TokenRepository
	jwtService  *JWTService
	txManager   tx.Manager
	config      ServiceConfig
	logger      *logger.Logger
}

// NewService creates a new auth service.
func NewService(
	users UserRepository,
	roles RoleRepository,
	permissions PermissionRepository,
	tokens TokenRepository,
	jwtService *JWTService,
	txManager tx.Manager,
	config ServiceConfig,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		users:       users,
		roles:       roles,
		permissions: permissions,
		tokens:      tokens,
		jwtService:  jwtService,
		txManager:   txManager,
		config:      config,
		logger:      log.WithComponent("auth.service"),
	}
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength))
	}

	exists, err := s.users.Exists(ctx, req.Email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("failed to check email: %w", err))
	}
	if exists {
		return nil, apperror.NewDuplicate("user", "email", req.Email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := NewUser(req.Email, string(passwordHash))
	user.FirstName = req.FirstName
	user.LastName = req.LastName
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			return err
		}
		// New accounts start as viewers until an admin grants more.
		role, err := s.roles.GetByCode(txCtx, "viewer")
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil
			}
			return err
		}
		return s.users.AssignRole(txCtx, user.ID, role.ID, user.ID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Login authenticates a user and issues a token pair.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if user.IsLocked() {
		return nil, apperror.NewUnauthorized("account is temporarily locked")
	}
	if !user.IsActive {
		return nil, apperror.NewUnauthorized("account is disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		if updErr := s.users.Update(ctx, user); updErr != nil {
			s.logger.Error(ctx, "failed to record failed login", "error", updErr, "user_id", user.ID)
		}
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	user.RecordSuccessfulLogin()
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error(ctx, "failed to record successful login", "error", err, "user_id", user.ID)
	}

	if err := s.loadUserRelations(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return pair, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)

	stored, err := s.tokens.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid refresh token")
		}
		return nil, err
	}
	if !stored.IsValid() {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user.CanLogin() != nil {
		return nil, apperror.NewUnauthorized("account is disabled")
	}
	if err := s.loadUserRelations(ctx, user); err != nil {
		return nil, err
	}

	// Rotate: the old token is single-use.
	if err := s.tokens.RevokeRefreshToken(ctx, stored.ID, "rotated"); err != nil {
		s.logger.Error(ctx, "failed to revoke rotated token", "error", err, "token_id", stored.ID)
	}

	return s.generateTokenPair(ctx, user)
}

// Logout revokes all refresh tokens for the user.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	if err := s.tokens.RevokeAllUserTokens(ctx, userID, "logout"); err != nil {
		return apperror.NewInternal(fmt.Errorf("failed to revoke tokens: %w", err))
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// AssignRole assigns a role to a user.
func (s *Service) AssignRole(ctx context.Context, userID, roleID, grantedBy id.ID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		return err
	}
	if err := s.users.AssignRole(ctx, userID, roleID, grantedBy); err != nil {
		return apperror.NewInternal(fmt.Errorf("failed to assign role: %w", err))
	}
	s.logger.Info(ctx, "role assigned", "user_id", userID, "role_id", roleID, "granted_by", grantedBy)
	return nil
}

// RevokeRole revokes a role from a user.
func (s *Service) RevokeRole(ctx context.Context, userID, roleID id.ID) error {
	if err := s.users.RevokeRole(ctx, userID, roleID); err != nil {
		return apperror.NewInternal(fmt.Errorf("failed to revoke role: %w", err))
	}
	s.logger.Info(ctx, "role revoked", "user_id", userID, "role_id", roleID)
	return nil
}

// GrantCompanyAccess grants the user the right to act on a company.
func (s *Service) GrantCompanyAccess(ctx context.Context, userID, companyID id.ID) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return err
	}
	if err := s.users.GrantCompany(ctx, userID, companyID); err != nil {
		return apperror.NewInternal(fmt.Errorf("failed to grant company access: %w", err))
	}
	s.logger.Info(ctx, "company access granted", "user_id", userID, "company_id", companyID)
	return nil
}

// GetUserByID retrieves a user with roles and permissions loaded.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.loadUserRelations(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers retrieves users by filter.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]User, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.users.List(ctx, filter)
}

// ListRoles retrieves all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.roles.List(ctx)
}

// ListPermissions retrieves all permissions.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.permissions.List(ctx)
}

// CreateRole creates a custom role.
func (s *Service) CreateRole(ctx context.Context, role *Role) error {
	if role.Code == "" || role.Name == "" {
		return apperror.NewValidation("role code and name are required")
	}
	existing, err := s.roles.GetByCode(ctx, role.Code)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}
	if existing != nil {
		return apperror.NewDuplicate("role", "code", role.Code)
	}
	now := time.Now()
	role.ID = id.New()
	role.IsSystem = false
	role.CreatedAt = now
	role.UpdatedAt = now
	return s.roles.Create(ctx, role)
}

// CleanupExpiredTokens removes stale refresh tokens. Intended for a cron hook.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int, error) {
	n, err := s.tokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return 0, apperror.NewInternal(fmt.Errorf("failed to cleanup tokens: %w", err))
	}
	if n > 0 {
		s.logger.Info(ctx, "expired tokens removed", "count", n)
	}
	return n, nil
}

func (s *Service) loadUserRelations(ctx context.Context, user *User) error {
	roles, err := s.users.LoadRoles(ctx, user.ID)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("failed to load roles: %w", err))
	}
	user.Roles = roles

	perms, err := s.users.LoadPermissions(ctx, user.ID)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("failed to load permissions: %w", err))
	}
	user.Permissions = perms

	companies, err := s.users.LoadCompanies(ctx, user.ID)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("failed to load companies: %w", err))
	}
	user.CompanyIDs = companies
	return nil
}

func (s *Service) generateTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	roleCodes := make([]string, 0, len(user.Roles))
	isAdmin := false
	for _, r := range user.Roles {
		roleCodes = append(roleCodes, r.Code)
		if r.Code == "admin" {
			isAdmin = true
		}
	}

	accessToken, _, err := s.jwtService.GenerateAccessToken(
		user.ID.String(), user.Email, roleCodes, user.Permissions, user.CompanyIDs, isAdmin,
	)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("failed to generate access token: %w", err))
	}

	rawRefresh, err := generateRandomToken()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("failed to generate refresh token: %w", err))
	}

	refresh := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(rawRefresh),
		ExpiresAt: time.Now().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}
	if err := s.tokens.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("failed to save refresh token: %w", err))
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		ExpiresAt:    time.Now().Add(s.jwtService.config.AccessTokenTTL),
		TokenType:    "Bearer",
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateRandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.New("entropy source unavailable")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
