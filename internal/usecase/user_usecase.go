package usecase

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"civicfix/internal/domain/entity"
	"civicfix/internal/domain/repository"
	"civicfix/internal/domain/service"
	"civicfix/pkg/errors"
	"civicfix/pkg/logger"
)

// RoleClaimSetter mirrors a role change into the identity provider.
type RoleClaimSetter interface {
	SetRoleClaim(ctx context.Context, uid, role string) error
}

type UserUseCase struct {
	userRepo    repository.UserRepository
	reportRepo  repository.ReportRepository
	messageRepo repository.MessageRepository
	upvoteRepo  repository.UpvoteRepository
	cache       service.SessionCache
	claims      RoleClaimSetter
	now         func() time.Time
}

// NewUserUseCase builds the use case. cache and claims may be nil.
func NewUserUseCase(
	userRepo repository.UserRepository,
	reportRepo repository.ReportRepository,
	messageRepo repository.MessageRepository,
	upvoteRepo repository.UpvoteRepository,
	cache service.SessionCache,
	claims RoleClaimSetter,
) *UserUseCase {
	return &UserUseCase{
		userRepo:    userRepo,
		reportRepo:  reportRepo,
		messageRepo: messageRepo,
		upvoteRepo:  upvoteRepo,
		cache:       cache,
		claims:      claims,
		now:         time.Now,
	}
}

// ResolveSession builds the caller's session from a verified identity. The role comes from
// the session cache when present, else from the stored profile. Users without a profile
// yet are plain users.
func (uc *UserUseCase) ResolveSession(ctx context.Context, uid, email string) (entity.Session, error) {
	session := entity.Session{UserID: uid, Email: email, Role: entity.RoleUser}

	if uc.cache != nil {
		role, ok, err := uc.cache.GetRole(ctx, uid)
		if err != nil {
			logger.Warn("Session cache read failed for %s: %v", uid, err)
		} else if ok {
			session.Role = role
			return session, nil
		}
	}

	user, err := uc.userRepo.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return session, nil
		}
		return session, err
	}
	if user.Role.Valid() {
		session.Role = user.Role
	}

	if uc.cache != nil {
		if err := uc.cache.SetRole(ctx, uid, session.Role); err != nil {
			logger.Warn("Session cache write failed for %s: %v", uid, err)
		}
	}

	return session, nil
}

// EnsureProfile returns the caller's profile, creating it with the user role on first call.
func (uc *UserUseCase) EnsureProfile(ctx context.Context, session entity.Session, displayName string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, session.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.Split(session.Email, "@")[0]
	}

	user = &entity.User{
		ID:          session.UserID,
		Email:       session.Email,
		DisplayName: displayName,
		Role:        entity.RoleUser,
		CreatedAt:   uc.now(),
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, "CONFLICT") {
			return uc.userRepo.GetByID(ctx, session.UserID)
		}
		return nil, err
	}

	return user, nil
}

func (uc *UserUseCase) GetProfile(ctx context.Context, session entity.Session) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, session.UserID)
}

type Dashboard struct {
	Reports   []*entity.Report    `json:"reports"`
	Messages  []*entity.Message   `json:"messages"`
	Upvotes   *entity.UserUpvotes `json:"upvotes"`
	CanSubmit bool                `json:"canSubmit"`
}

// Dashboard reads the caller's reports, messages, upvotes and pending lock concurrently.
// CanSubmit follows the same lock as ReportUseCase.CanSubmit.
func (uc *UserUseCase) Dashboard(ctx context.Context, session entity.Session) (*Dashboard, error) {
	dashboard := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		reports, _, err := uc.reportRepo.List(gctx, entity.ReportFilter{UserID: session.UserID})
		if err != nil {
			return err
		}
		dashboard.Reports = reports
		return nil
	})
	g.Go(func() error {
		locked, err := uc.reportRepo.HasPendingLock(gctx, session.UserID)
		if err != nil {
			return err
		}
		dashboard.CanSubmit = !locked
		return nil
	})
	g.Go(func() error {
		messages, err := uc.messageRepo.ListByUser(gctx, session.UserID, uc.now())
		if err != nil {
			return err
		}
		dashboard.Messages = messages
		return nil
	})
	g.Go(func() error {
		upvotes, err := uc.upvoteRepo.Get(gctx, session.UserID)
		if err != nil {
			return err
		}
		dashboard.Upvotes = upvotes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dashboard, nil
}

// ChangeRole sets another user's role. Admins only; the target's cached session is dropped.
func (uc *UserUseCase) ChangeRole(ctx context.Context, session entity.Session, targetID string, role entity.Role) (*entity.User, error) {
	if session.Role != entity.RoleAdmin {
		return nil, errors.Forbidden("Admin access required", nil)
	}
	if !role.Valid() {
		return nil, errors.Validation("role", "Role must be user, moderator or admin")
	}
	if targetID == session.UserID && role != entity.RoleAdmin {
		return nil, errors.BadRequest("Admins cannot demote themselves", nil)
	}

	if err := uc.userRepo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, targetID); err != nil {
			logger.Warn("Failed to invalidate session cache for %s: %v", targetID, err)
		}
	}
	if uc.claims != nil {
		if err := uc.claims.SetRoleClaim(ctx, targetID, string(role)); err != nil {
			logger.Warn("Failed to set role claim for %s: %v", targetID, err)
		}
	}

	logger.Info("User %s role changed to %s by %s", targetID, role, session.UserID)
	return uc.userRepo.GetByID(ctx, targetID)
}
