package services

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tandem-server/models"
	"tandem-server/repositories"
	"tandem-server/utils/errors"
)

type SignupInput struct {
	Name        string              `json:"name" validate:"required,max=100"`
	Email       string              `json:"email" validate:"required,email"`
	Password    string              `json:"password" validate:"required,min=6,max=72"`
	Description string              `json:"description" validate:"required,max=1000"`
	Country     string              `json:"country" validate:"required"`
	Speaks      models.LanguageList `json:"speaks" validate:"min=1"`
	Learns      models.LanguageList `json:"learns" validate:"min=1"`
	Image       string              `json:"image" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Account *models.Account
	Member  *models.Member
	Token   string
}

type AuthService struct {
	accounts repositories.AccountStore
	members  repositories.MemberStore
	tokens   *TokenService
	logger   *zap.Logger
	hashCost int
}

type AuthOption func(*AuthService)

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) AuthOption {
	return func(s *AuthService) { s.hashCost = cost }
}

func NewAuthService(accounts repositories.AccountStore, members repositories.MemberStore, tokens *TokenService, logger *zap.Logger, opts ...AuthOption) *AuthService {
	s := &AuthService{
		accounts: accounts,
		members:  members,
		tokens:   tokens,
		logger:   logger,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the Account and its Member, then issues a token. If the
// Member cannot be stored the Account is removed again.
func (s *AuthService) Register(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	_, err := s.accounts.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, errors.ErrUserExists
	case !stderrors.Is(err, repositories.ErrNotFound):
		return nil, errors.Internal(err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, errors.Wrap(err, "HASH_ERROR", "failed to hash password", errors.ErrInternal.Status)
	}

	account := &models.Account{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(passwordHash),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if stderrors.Is(err, repositories.ErrDuplicate) {
			return nil, errors.ErrUserExists
		}
		return nil, errors.Internal(err)
	}

	member := &models.Member{
		ID:          uuid.NewString(),
		AccountID:   account.ID,
		Name:        account.Name,
		Description: strings.TrimSpace(in.Description),
		Country:     strings.TrimSpace(in.Country),
		Speaks:      []string(in.Speaks),
		Learns:      []string(in.Learns),
		Image:       strings.TrimSpace(in.Image),
		Status:      models.StatusOffline,
	}
	if err := s.members.Create(ctx, member); err != nil {
		s.logger.Error("Failed to create member, rolling back account",
			zap.String("account_id", account.ID), zap.Error(err))
		if delErr := s.accounts.Delete(context.WithoutCancel(ctx), account.ID); delErr != nil {
			s.logger.Error("Failed to roll back account",
				zap.String("account_id", account.ID), zap.Error(delErr))
		}
		return nil, errors.Internal(err)
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account registered", zap.String("account_id", account.ID))
	return &AuthResult{Account: account, Member: member, Token: token}, nil
}

// Login checks the credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByEmail(ctx, in.Email)
	if err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, errors.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: account, Token: token}, nil
}

// Me returns the account behind a verified token.
func (s *AuthService) Me(ctx context.Context, accountID string) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if stderrors.Is(err, repositories.ErrNotFound) {
			return nil, errors.ErrUnauthorized
		}
		return nil, errors.Internal(err)
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
