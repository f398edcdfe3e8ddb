package users

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"pantrypal/apperr"
	"pantrypal/models"
)

const (
	MessageUserNotFound    = "User not found"
	MessageEmailTaken      = "Email is already registered"
	MessageBadCredentials  = "Email or Password is not correct"
	MessagePasswordTooLong = "Password must be at most 72 bytes"
)

// bcrypt only reads the first 72 bytes of a password.
const maxPasswordBytes = 72

// Service is the user directory: every other component resolves the
// authenticated email through it before touching per-account documents.
type Service struct {
	repo       Repository
	bcryptCost int
	logger     *logrus.Logger
}

func NewService(repo Repository, bcryptCost int, logger *logrus.Logger) *Service {
	return &Service{repo: repo, bcryptCost: bcryptCost, logger: logger}
}

// NormalizeEmail trims surrounding space. Case is kept: stored accounts
// are matched exactly as they were registered.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// FindByEmail returns a NotFound error when no account matches.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, apperr.Internal("Error looking up user", err)
	}
	if account == nil {
		return nil, apperr.NotFound(MessageUserNotFound)
	}
	return account, nil
}

// Register hashes the password and creates the account. A taken email is a
// Conflict whether the pre-check or the unique index catches it.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.Account, error) {
	email = NormalizeEmail(email)
	if len(password) > maxPasswordBytes {
		return nil, apperr.BadRequest(MessagePasswordTooLong)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Internal("Error creating user", err)
	}
	if existing != nil {
		return nil, apperr.Conflict(MessageEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.BadRequest(MessagePasswordTooLong)
	}
	if err != nil {
		return nil, apperr.Internal("Error creating user", err)
	}

	account, err := s.repo.Create(ctx, &models.Account{
		Username:     strings.TrimSpace(username),
		Email:        email,
		PasswordHash: string(hash),
	})
	if errors.Is(err, ErrDuplicateEmail) {
		return nil, apperr.Conflict(MessageEmailTaken)
	}
	if err != nil {
		return nil, apperr.Internal("Error creating user", err)
	}

	s.logger.WithField("user_id", account.ID.Hex()).Info("Created new user")
	return account, nil
}

// Authenticate checks credentials. Unknown email and wrong password are the
// same Unauthorized error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, apperr.Internal("Error logging in", err)
	}
	if account == nil {
		return nil, apperr.Unauthorized(MessageBadCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized(MessageBadCredentials)
	}
	return account, nil
}
