package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/crm-backend/internal/auth"
	"github.com/nekogravitycat/crm-backend/internal/logger"
	"github.com/nekogravitycat/crm-backend/internal/notify"
	"github.com/nekogravitycat/crm-backend/internal/pkg/validate"
)

const (
	// ResetTokenTTL is how long a password reset link stays usable.
	ResetTokenTTL     = time.Hour
	minPasswordLength = 6
)

// RegisterRequest carries the sign-up form.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// UpdateProfileRequest lists the profile fields a user may change.
type UpdateProfileRequest struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirmPassword string) error
	ChangePassword(ctx context.Context, actor auth.Identity, currentPassword, newPassword string) error
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, actor auth.Identity, req UpdateProfileRequest) (*User, error)
	LoadIdentity(ctx context.Context, id int64) (auth.Identity, error)
}

type service struct {
	repo        Repository
	hasher      auth.PasswordHasher
	notifier    notify.Notifier
	frontendURL string
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new user Service. Reset links point at frontendURL.
func NewService(repo Repository, hasher auth.PasswordHasher, notifier notify.Notifier, frontendURL string) Service {
	return &service{
		repo:        repo,
		hasher:      hasher,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := normalizeEmail(req.Email)

	var v validate.Collector
	v.Length("firstName", firstName, 2, 50)
	v.Length("lastName", lastName, 2, 50)
	v.Check(validate.IsEmail(email), "email", "Valid email is required")
	v.Check(len(req.Password) >= minPasswordLength, "password", "Password must be at least 6 characters long")

	role := auth.DefaultRole
	if req.Role != "" {
		role = auth.Role(req.Role)
		v.Check(role.Valid(), "role", "Invalid role")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailAlreadyUsed
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing email: %w", err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("user registered",
		zap.Int64("user_id", u.ID),
		zap.String("email", logger.MaskEmail(u.Email)),
		zap.String("role", string(u.Role)),
	)
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	if u == nil || !u.IsActive {
		// Spend the same bcrypt work as a real check so response time does
		// not reveal whether the account exists.
		_ = s.hasher.Compare(s.placeholderHash(), password)
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		logger.WithContext(ctx).Warn("failed to update last login", zap.Int64("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin = &now
	}

	return u, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	cleanEmail := normalizeEmail(email)
	if !validate.IsEmail(cleanEmail) {
		return validate.Errors{{Param: "email", Msg: "Valid email is required"}}
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch user by email: %w", err)
	}

	token, tokenHash, err := newResetToken()
	if err != nil {
		return err
	}
	expires := s.now().Add(ResetTokenTTL)

	// Storing a new hash replaces any earlier token.
	if err := s.repo.SetResetToken(ctx, u.ID, tokenHash, expires); err != nil {
		return err
	}

	msg := notify.PasswordReset{
		UserID:    u.ID,
		Email:     u.Email,
		ResetURL:  s.frontendURL + "/reset-password/" + token,
		ExpiresAt: expires,
	}
	if err := s.notifier.NotifyPasswordReset(ctx, msg); err != nil {
		// The caller gets the same answer either way.
		logger.WithContext(ctx).Error("failed to dispatch password reset", zap.Int64("user_id", u.ID), zap.Error(err))
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, token, password, confirmPassword string) error {
	var v validate.Collector
	v.Check(len(password) >= minPasswordLength, "password", "Password must be at least 6 characters long")
	v.Check(password == confirmPassword, "confirmPassword", "Password confirmation does not match password")
	if err := v.Err(); err != nil {
		return err
	}
	if token == "" {
		return ErrInvalidResetToken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.repo.ConsumeResetToken(ctx, hashResetToken(token), hash, s.now())
	if err != nil {
		return err
	}

	logger.WithContext(ctx).Info("password reset completed", zap.Int64("user_id", id))
	return nil
}

func (s *service) ChangePassword(ctx context.Context, actor auth.Identity, currentPassword, newPassword string) error {
	var v validate.Collector
	v.Check(currentPassword != "", "currentPassword", "Current password is required")
	v.Check(len(newPassword) >= minPasswordLength, "newPassword", "New password must be at least 6 characters long")
	if err := v.Err(); err != nil {
		return err
	}

	u, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(u.PasswordHash, currentPassword); err != nil {
		return ErrCurrentPasswordIncorrect
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, u.ID, u.PasswordHash, hash); err != nil {
		if errors.Is(err, errStaleHash) {
			return ErrCurrentPasswordIncorrect
		}
		return err
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, actor auth.Identity, req UpdateProfileRequest) (*User, error) {
	var changes ProfileChanges
	var v validate.Collector

	if req.FirstName != nil {
		name := strings.TrimSpace(*req.FirstName)
		v.Length("firstName", name, 2, 50)
		changes.FirstName = &name
	}
	if req.LastName != nil {
		name := strings.TrimSpace(*req.LastName)
		v.Length("lastName", name, 2, 50)
		changes.LastName = &name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		v.Check(validate.IsEmail(email), "email", "Valid email is required")
		changes.Email = &email
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if changes.Email != nil && *changes.Email != current.Email {
		existing, err := s.repo.GetByEmail(ctx, *changes.Email)
		switch {
		case err == nil && existing.ID != current.ID:
			return nil, ErrEmailInUse
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("failed to check existing email: %w", err)
		}
	}

	if changes.FirstName == nil && changes.LastName == nil && changes.Email == nil {
		return current, nil
	}

	if err := s.repo.UpdateProfile(ctx, current.ID, changes); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, current.ID)
}

func (s *service) LoadIdentity(ctx context.Context, id int64) (auth.Identity, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return auth.Identity{}, auth.ErrUnauthenticated
		}
		return auth.Identity{}, err
	}
	if !u.IsActive {
		return auth.Identity{}, auth.ErrUnauthenticated
	}
	return u.Identity(), nil
}

// placeholderHash is compared against when no account matches, so that
// unknown emails cost as much as wrong passwords.
func (s *service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("placeholder-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
