package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naira-pay/naira_pay/internal/adjutor"
	"github.com/naira-pay/naira_pay/internal/store"
	"github.com/naira-pay/naira_pay/internal/wallet"
)

var (
	// ErrEmailTaken indicates the email is already registered.
	ErrEmailTaken = errors.New("user already exists")
	// ErrBlacklisted indicates the identity is on the Karma blacklist.
	ErrBlacklisted = errors.New("user is blacklisted")
	// ErrBlacklistUnavailable indicates the blacklist could not be consulted
	// and policy forbids registering without a verdict.
	ErrBlacklistUnavailable = errors.New("blacklist check unavailable")
)

// Blacklist yields a tri-state verdict for an identity.
type Blacklist interface {
	Check(ctx context.Context, identity string) adjutor.Verdict
}

// Service manages user onboarding and receiver resolution. A user and their
// wallet are created together in one atomic unit; a wallet therefore exists
// for every account from the moment it registers.
type Service struct {
	repo      Repository
	wallets   wallet.Repository
	units     store.Manager
	blacklist Blacklist
	failOpen  bool
	currency  string
	logger    *slog.Logger
}

// NewService creates the identity service. blacklist may be nil to skip the
// check entirely; failOpen controls whether an Unknown verdict admits the
// registration or rejects it.
func NewService(repo Repository, wallets wallet.Repository, units store.Manager, blacklist Blacklist, failOpen bool, currency string, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		wallets:   wallets,
		units:     units,
		blacklist: blacklist,
		failOpen:  failOpen,
		currency:  currency,
		logger:    logger,
	}
}

// Register onboards a user and provisions their zero-balance wallet.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return User{}, errors.New("valid email is required")
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	if s.blacklist != nil {
		switch s.blacklist.Check(ctx, email) {
		case adjutor.VerdictBlocked:
			return User{}, ErrBlacklisted
		case adjutor.VerdictUnknown:
			if !s.failOpen {
				return User{}, ErrBlacklistUnavailable
			}
			s.logger.Warn("registering without blacklist verdict", "email", email)
		}
	}

	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		CreatedAt: time.Now().UTC(),
	}

	err := s.units.Run(ctx, func(ctx context.Context, u store.Unit) error {
		if err := s.repo.Create(ctx, user, u); err != nil {
			return err
		}
		return s.wallets.Create(ctx, wallet.Wallet{
			ID:        uuid.NewString(),
			AccountID: user.ID,
			Balance:   decimal.Zero,
			Currency:  s.currency,
			CreatedAt: user.CreatedAt,
		}, u)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// ResolveEmail maps a receiver email to its account identifier.
func (s *Service) ResolveEmail(ctx context.Context, email string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Profile returns the user and their wallet summary.
func (s *Service) Profile(ctx context.Context, accountID string) (User, wallet.Wallet, error) {
	user, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		return User{}, wallet.Wallet{}, err
	}
	w, err := s.wallets.GetByAccount(ctx, accountID)
	if err != nil {
		return User{}, wallet.Wallet{}, err
	}
	return user, w, nil
}
