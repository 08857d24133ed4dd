package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/clinic-admin-api/internal/models"
	appErrors "github.com/noah-isme/clinic-admin-api/pkg/errors"
	"github.com/noah-isme/clinic-admin-api/pkg/validation"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, clinicID, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

// UserService manages the accounts of one clinic.
type UserService struct {
	repo      userRepository
	audit     auditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit auditRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validation.New()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns a page of the actor's clinic accounts.
func (s *UserService) List(ctx context.Context, actor Actor, filter models.UserFilter) (models.PagedResult[models.User], error) {
	if err := actor.requireClinic(); err != nil {
		return models.PagedResult[models.User]{}, err
	}
	filter.ClinicID = actor.ClinicID
	filter.PageQuery = filter.PageQuery.Normalize()
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.PagedResult[models.User]{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return models.NewPagedResult(users, total, filter.PageQuery), nil
}

// Get returns a user of the actor's clinic.
func (s *UserService) Get(ctx context.Context, actor Actor, id string) (*models.User, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.ClinicID != actor.ClinicID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

// Create adds an account to the actor's clinic.
func (s *UserService) Create(ctx context.Context, actor Actor, req models.CreateUserRequest, meta models.LoginRequest) (*models.User, error) {
	if err := actor.requireClinic(); err != nil {
		return nil, err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(s.validator, req, "invalid create user payload"); err != nil {
		return nil, err
	}
	if err := requireSubject(req.Role, req.SubjectID); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		ClinicID:     actor.ClinicID,
		Email:        req.Email,
		FullName:     req.FullName,
		Role:         req.Role,
		SubjectID:    req.SubjectID,
		Active:       true,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.record(ctx, actor, models.AuditActionCreate, user.ID, nil, map[string]interface{}{"email": user.Email, "role": user.Role}, meta)
	return user, nil
}

// Update modifies profile fields. Deactivating an account ends its sessions.
func (s *UserService) Update(ctx context.Context, actor Actor, id string, req models.UpdateUserRequest, meta models.LoginRequest) (*models.User, error) {
	if err := validation.Struct(s.validator, req, "invalid update user payload"); err != nil {
		return nil, err
	}
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	old := map[string]interface{}{"role": user.Role, "active": user.Active}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.SubjectID != nil {
		user.SubjectID = req.SubjectID
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	if err := requireSubject(user.Role, user.SubjectID); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	if !user.Active {
		s.revokeSessions(ctx, user.ID)
	}

	s.record(ctx, actor, models.AuditActionUpdate, user.ID, old, map[string]interface{}{"role": user.Role, "active": user.Active}, meta)
	return user, nil
}

// Delete deactivates a user. Callers cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, actor Actor, id string, meta models.LoginRequest) error {
	if err := actor.requireClinic(); err != nil {
		return err
	}
	if id == actor.UserID {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, actor.ClinicID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.revokeSessions(ctx, id)
	s.record(ctx, actor, models.AuditActionDelete, id, nil, map[string]interface{}{"active": false}, meta)
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID string) {
	if err := s.repo.RevokeUserRefreshTokens(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *UserService) record(ctx context.Context, actor Actor, action, userID string, oldValues, newValues map[string]interface{}, meta models.LoginRequest) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ClinicID:   &actor.ClinicID,
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "users",
		ResourceID: &userID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	entry.NewValues, _ = json.Marshal(newValues)
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record user audit log", zap.String("action", action), zap.Error(err))
	}
}

// requireSubject enforces that doctor and patient accounts point at the record they act for.
func requireSubject(role models.UserRole, subjectID *string) error {
	if role != models.RoleDoctor && role != models.RolePatient {
		return nil
	}
	if subjectID == nil || *subjectID == "" {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid user payload"), map[string]string{"subject_id": "is required for " + strings.ToLower(string(role)) + " accounts"})
	}
	return nil
}
