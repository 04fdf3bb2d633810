package users

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"callpulse/internal/auth"
	"callpulse/internal/config"
	"callpulse/internal/rbac"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("users: invalid email or password")
	ErrAccountInactive    = errors.New("users: account is inactive")
	ErrSelfRoleChange     = errors.New("users: cannot change your own role")
	ErrSelfDelete         = errors.New("users: cannot delete your own account")
	ErrInvalidRole        = errors.New("users: invalid role")
)

// Service owns account lifecycle: registration, login, token refresh,
// admin management and the one-time super admin bootstrap.
type Service struct {
	repo   Repository
	tokens *auth.Manager
	// clock is injectable for deterministic tests.
	clock func() time.Time
}

func NewService(repo Repository, tokens *auth.Manager) *Service {
	return &Service{repo: repo, tokens: tokens, clock: time.Now}
}

func (s *Service) Register(ctx context.Context, email, password, name string) (User, auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}

	u, err := s.repo.Create(ctx, User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         rbac.RoleUser,
		Status:       StatusActive,
	})
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}

	pair, err := s.tokens.IssuePair(s.clock(), u.ID, u.Email, u.Role)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	return u, pair, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (User, auth.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, auth.TokenPair{}, ErrInvalidCredentials
		}
		return User{}, auth.TokenPair{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return User{}, auth.TokenPair{}, ErrInvalidCredentials
	}
	if u.Status != StatusActive {
		return User{}, auth.TokenPair{}, ErrAccountInactive
	}

	pair, err := s.tokens.IssuePair(s.clock(), u.ID, u.Email, u.Role)
	if err != nil {
		return User{}, auth.TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a refresh token for a new pair. The role on the new
// access token is read from storage, not the old token, so role changes
// take effect on the next refresh.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (auth.TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken, auth.TokenTypeRefresh, s.clock())
	if err != nil {
		return auth.TokenPair{}, err
	}

	u, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		return auth.TokenPair{}, err
	}
	if u.Status != StatusActive {
		return auth.TokenPair{}, ErrAccountInactive
	}

	return s.tokens.IssuePair(s.clock(), u.ID, u.Email, u.Role)
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, p ListParams) ([]User, int, error) {
	return s.repo.List(ctx, p)
}

// UpdateUser applies an admin update. actorID identifies the caller;
// changing one's own role is rejected regardless of role.
func (s *Service) UpdateUser(ctx context.Context, actorID, targetID string, upd Update) (User, error) {
	if upd.Role != nil {
		if !rbac.IsValidRole(*upd.Role) {
			return User{}, ErrInvalidRole
		}
		if actorID == targetID {
			return User{}, ErrSelfRoleChange
		}
	}
	return s.repo.Update(ctx, targetID, upd)
}

// DeleteUser removes an account. Self-deletion is rejected regardless
// of role.
func (s *Service) DeleteUser(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, targetID)
}

// EnsureBootstrapAdmin guarantees exactly one SUPERADMIN account exists
// for the configured email. Idempotent: re-running never duplicates.
//   - account absent: create it with role SUPERADMIN
//   - account present with lesser role: promote it
//   - account already SUPERADMIN: no-op
func (s *Service) EnsureBootstrapAdmin(ctx context.Context, log *slog.Logger, cfg config.BootstrapConfig) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))

	existing, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == rbac.RoleSuperAdmin {
			log.Info("bootstrap admin already present", "email", email)
			return nil
		}
		role := rbac.RoleSuperAdmin
		if _, err := s.repo.Update(ctx, existing.ID, Update{Role: &role}); err != nil {
			return err
		}
		log.Info("bootstrap admin promoted", "email", email)
		return nil

	case errors.Is(err, ErrNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		name := cfg.AdminName
		if name == "" {
			name = "Administrator"
		}
		_, err = s.repo.Create(ctx, User{
			ID:           uuid.NewString(),
			Email:        email,
			PasswordHash: string(hash),
			Name:         name,
			Role:         rbac.RoleSuperAdmin,
			Status:       StatusActive,
		})
		if errors.Is(err, ErrEmailTaken) {
			// Lost a race with a concurrent bootstrap; the row exists now.
			return nil
		}
		if err != nil {
			return err
		}
		log.Info("bootstrap admin created", "email", email)
		return nil

	default:
		return err
	}
}
