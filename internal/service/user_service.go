package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/service/auth"
	"github.com/phrazzld/tasker-api/internal/store"
)

// RegisterInput carries the fields needed to open an account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
}

// ProfileUpdate carries the editable profile fields. Empty fields are kept.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
}

// Session is the result of a successful login.
type Session struct {
	User  *domain.User
	Token string
}

// UserService provides account operations: registration, login, profile
// management and password changes.
type UserService interface {
	// Register creates a new account. Returns store.ErrEmailExists or
	// store.ErrUsernameExists when either value is already taken.
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)

	// Login verifies a username/password pair and issues a session token.
	// Returns ErrInvalidCredentials on any mismatch.
	Login(ctx context.Context, username, password string) (*Session, error)

	// GetProfile retrieves the account of userID.
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// UpdateProfile changes names, email or username. Returns
	// store.ErrEmailExists or store.ErrUsernameExists when a new value
	// belongs to another account.
	UpdateProfile(ctx context.Context, userID uuid.UUID, update ProfileUpdate) (*domain.User, error)

	// ChangePassword replaces the password after checking the current one.
	// Returns ErrInvalidCredentials when current does not match.
	ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	userStore  store.UserStore
	db         *sql.DB
	hasher     auth.PasswordHasher
	verifier   auth.PasswordVerifier
	jwtService auth.JWTService
	logger     *slog.Logger
}

// Ensure UserServiceImpl implements UserService
var _ UserService = (*UserServiceImpl)(nil)

// NewUserService creates a new UserService
func NewUserService(
	userStore store.UserStore,
	db *sql.DB,
	passwords interface {
		auth.PasswordHasher
		auth.PasswordVerifier
	},
	jwtService auth.JWTService,
	logger *slog.Logger,
) (*UserServiceImpl, error) {
	if userStore == nil {
		return nil, fmt.Errorf("userStore cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if passwords == nil {
		return nil, fmt.Errorf("passwords cannot be nil")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("jwtService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &UserServiceImpl{
		userStore:  userStore,
		db:         db,
		hasher:     passwords,
		verifier:   passwords,
		jwtService: jwtService,
		logger:     logger.With(slog.String("component", "user_service")),
	}, nil
}

// Register implements UserService.Register
func (s *UserServiceImpl) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidatePassword(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	user, err := domain.NewUser(in.FirstName, in.LastName, in.Email, in.Username, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		if err := checkAvailable(ctx, txStore, uuid.Nil, user.Email, user.Username); err != nil {
			return err
		}
		return txStore.Create(ctx, user)
	})
	if err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("registration conflict", slog.String("error", err.Error()))
		} else {
			log.Error("failed to register user", slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// checkAvailable reports ErrEmailExists or ErrUsernameExists when another
// account (not self) already holds either value. The unique indexes still
// back this up against concurrent registrations.
func checkAvailable(ctx context.Context, users store.UserStore, self uuid.UUID, email, username string) error {
	existing, err := users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != self:
		return store.ErrEmailExists
	case err != nil && !errors.Is(err, store.ErrUserNotFound):
		return err
	}

	existing, err = users.GetByUsername(ctx, username)
	switch {
	case err == nil && existing.ID != self:
		return store.ErrUsernameExists
	case err != nil && !errors.Is(err, store.ErrUserNotFound):
		return err
	}
	return nil
}

// Login implements UserService.Login
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (*Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown username")
			return nil, ErrInvalidCredentials
		}
		log.Error("failed to look up user for login", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	if err := s.verifier.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login password mismatch", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(ctx, user.ID)
	if err != nil {
		log.Error("failed to generate session token",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	log.Info("user logged in", slog.String("user_id", user.ID.String()))
	return &Session{User: user, Token: token}, nil
}

// GetProfile implements UserService.GetProfile
func (s *UserServiceImpl) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return user, nil
}

// UpdateProfile implements UserService.UpdateProfile
func (s *UserServiceImpl) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	update ProfileUpdate,
) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.User
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if v := strings.TrimSpace(update.FirstName); v != "" {
			user.FirstName = v
		}
		if v := strings.TrimSpace(update.LastName); v != "" {
			user.LastName = v
		}
		if v := domain.NormalizeEmail(update.Email); v != "" {
			user.Email = v
		}
		if v := strings.TrimSpace(update.Username); v != "" {
			user.Username = v
		}
		if err := user.Validate(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}

		if err := checkAvailable(ctx, txStore, user.ID, user.Email, user.Username); err != nil {
			return err
		}
		if err := txStore.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		if store.IsDuplicateError(err) {
			log.Debug("profile update conflict",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	log.Info("profile updated", slog.String("user_id", userID.String()))
	return updated, nil
}

// ChangePassword implements UserService.ChangePassword
func (s *UserServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := domain.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.userStore.WithTx(tx)

		user, err := txStore.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if err := s.verifier.Compare(user.HashedPassword, current); err != nil {
			return ErrInvalidCredentials
		}

		hash, err := s.hasher.Hash(next)
		if err != nil {
			return err
		}
		user.HashedPassword = hash
		return txStore.Update(ctx, user)
	})
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Error("failed to change password",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		}
		return fmt.Errorf("failed to change password: %w", err)
	}

	log.Info("password changed", slog.String("user_id", userID.String()))
	return nil
}
