package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"edublog/internal/domain"
	"edublog/internal/validate"
)

type AccountForm struct {
	Name   string `json:"name" validate:"notblank"`
	Email  string `json:"email" validate:"notblank"`
	Secret string `json:"password" validate:"notblank"`
}

// AccountUpdateForm leaves the password unchanged when Secret is nil or empty.
type AccountUpdateForm struct {
	Name   string  `json:"name" validate:"notblank"`
	Email  string  `json:"email" validate:"notblank"`
	Secret *string `json:"password" validate:"omitempty,notblank"`
}

type AccountService struct {
	api     AccountAPI
	session Session
	notify  notifier
	logger  *slog.Logger
}

// NewAccountService creates an account service. publisher may be nil.
func NewAccountService(api AccountAPI, session Session, publisher Publisher, logger *slog.Logger) *AccountService {
	logger = logger.With("component", "accounts")

	return &AccountService{
		api:     api,
		session: session,
		notify:  notifier{publisher: publisher, logger: logger, now: time.Now},
		logger:  logger,
	}
}

// Register creates an account without a session.
func (s *AccountService) Register(ctx context.Context, form AccountForm) (*domain.Account, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}
	return s.create(ctx, form, nil)
}

// Create creates an account on behalf of the logged-in user.
func (s *AccountService) Create(ctx context.Context, form AccountForm) (*domain.Account, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	sess, err := requireSession(ctx, s.session)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, form, sess)
}

func (s *AccountService) create(ctx context.Context, form AccountForm, sess *domain.Session) (*domain.Account, error) {
	a, err := s.api.Register(ctx, strings.TrimSpace(form.Name), strings.TrimSpace(form.Email), form.Secret)
	if err != nil {
		return nil, fmt.Errorf("register account: %w", err)
	}

	s.logger.Info("account created", "id", a.ID, "email", a.Email)
	s.notify.emit(ctx, domain.EventAccountCreated, a.ID, actor(sess))
	return a, nil
}

func (s *AccountService) List(ctx context.Context) ([]domain.Account, error) {
	if _, err := requireSession(ctx, s.session); err != nil {
		return nil, err
	}

	accounts, err := s.api.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	if _, err := requireSession(ctx, s.session); err != nil {
		return nil, err
	}

	a, err := s.api.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	return a, nil
}

func (s *AccountService) Update(ctx context.Context, id string, form AccountUpdateForm) (*domain.Account, error) {
	if err := validate.Struct(form); err != nil {
		return nil, err
	}

	sess, err := requireSession(ctx, s.session)
	if err != nil {
		return nil, err
	}

	secret := form.Secret
	if secret != nil && *secret == "" {
		secret = nil
	}

	a, err := s.api.UpdateAccount(ctx, id, strings.TrimSpace(form.Name), strings.TrimSpace(form.Email), secret)
	if err != nil {
		return nil, fmt.Errorf("update account %s: %w", id, err)
	}

	s.notify.emit(ctx, domain.EventAccountUpdated, id, actor(sess))
	return a, nil
}

func (s *AccountService) Delete(ctx context.Context, id string) error {
	sess, err := requireSession(ctx, s.session)
	if err != nil {
		return err
	}

	if err := s.api.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}

	s.logger.Info("account deleted", "id", id)
	s.notify.emit(ctx, domain.EventAccountDeleted, id, actor(sess))
	return nil
}
