package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/expiry-tracker/internal/auth"
	"github.com/mamadbah2/expiry-tracker/internal/domain/models"
	"github.com/mamadbah2/expiry-tracker/internal/repository"
)

// MinPasswordLength matches the identity provider's minimum.
const MinPasswordLength = 6

// errorPrefix is the provider tag every account error starts with.
const errorPrefix = "accounts: "

var (
	ErrInvalidEmail       = errors.New(errorPrefix + "invalid email address")
	ErrWeakPassword       = fmt.Errorf(errorPrefix+"password should be at least %d characters", MinPasswordLength)
	ErrEmailExists        = errors.New(errorPrefix + "email already in use")
	ErrInvalidCredentials = errors.New(errorPrefix + "invalid email or password")
)

// Service creates accounts and signs users in.
type Service struct {
	users      repository.UserRepository
	pantries   repository.PantryRepository
	tokens     *auth.TokenManager
	hashParams auth.HashParams
	logger     *zap.Logger
	now        func() time.Time
}

// NewService wires a new accounts service.
func NewService(users repository.UserRepository, pantries repository.PantryRepository, tokens *auth.TokenManager, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:      users,
		pantries:   pantries,
		tokens:     tokens,
		hashParams: auth.DefaultHashParams,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateUser stores a new account and its empty pantry. A blank userID is
// replaced with a generated one.
func (s *Service) CreateUser(ctx context.Context, userID, email, password, name string) (models.UserRecord, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Name != "" {
		return models.UserRecord{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return models.UserRecord{}, ErrWeakPassword
	}

	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = uuid.NewString()
	}

	hash, err := auth.HashPassword(password, s.hashParams)
	if err != nil {
		return models.UserRecord{}, fmt.Errorf(errorPrefix+"hash password: %w", err)
	}

	now := s.now().UTC()
	user := models.User{
		UserID:       userID,
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(addr.Address),
		PasswordHash: hash,
		CreatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.UserRecord{}, ErrEmailExists
		}
		return models.UserRecord{}, fmt.Errorf(errorPrefix+"create user: %w", err)
	}

	pantry := models.Pantry{
		UserID:       userID,
		ReminderDays: models.DefaultReminderDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.pantries.CreatePantry(ctx, pantry); err != nil && !errors.Is(err, repository.ErrDuplicate) {
		s.logger.Error("user created without pantry", zap.String("user_id", userID), zap.Error(err))
		return models.UserRecord{}, fmt.Errorf(errorPrefix+"create pantry: %w", err)
	}

	s.logger.Info("user created", zap.String("user_id", userID))
	return models.UserRecord{UserID: user.UserID, Email: user.Email, Name: user.Name}, nil
}

// Signup creates the account and signs the new user in.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (models.AuthResponse, error) {
	record, err := s.CreateUser(ctx, req.UserID, req.Email, req.Password, req.Name)
	if err != nil {
		return models.AuthResponse{}, err
	}
	return s.issue(record)
}

// Login checks the credentials and returns a bearer token.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.AuthResponse{}, ErrInvalidCredentials
		}
		return models.AuthResponse{}, fmt.Errorf(errorPrefix+"load user: %w", err)
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash unreadable", zap.String("user_id", user.UserID), zap.Error(err))
		return models.AuthResponse{}, ErrInvalidCredentials
	}
	if !ok {
		return models.AuthResponse{}, ErrInvalidCredentials
	}

	return s.issue(models.UserRecord{UserID: user.UserID, Email: user.Email, Name: user.Name})
}

func (s *Service) issue(record models.UserRecord) (models.AuthResponse, error) {
	token, err := s.tokens.Generate(record.UserID, record.Email)
	if err != nil {
		return models.AuthResponse{}, fmt.Errorf(errorPrefix+"issue token: %w", err)
	}
	return models.AuthResponse{Token: token, User: record}, nil
}

// DisplayMessage is the text shown to the user for an account error: the
// first ten characters are cut from messages longer than ten.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > len(errorPrefix) {
		return msg[len(errorPrefix):]
	}
	return msg
}
