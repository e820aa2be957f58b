package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/pkg/db"
	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/feed"
)

// Topic carries profile snapshots through the feed broker. A nil snapshot
// means no account is registered.
const Topic = "user_profile"

const minPasswordLength = 6

// txRunner runs a function inside a single database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RegisterInput is the payload for creating the device account.
type RegisterInput struct {
	DisplayName string
	Email       string
	Password    string
}

// Service manages the singleton device account and its session flag.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.UserProfile, error)
	Login(ctx context.Context, email, password string) (*models.UserProfile, error)
	Logout(ctx context.Context) error
	SetLoginFlag(ctx context.Context, loggedIn bool) error
	Get(ctx context.Context) (*models.UserProfile, error)
	Watch(ctx context.Context) (<-chan *models.UserProfile, error)
}

type service struct {
	repo *Repository
	tx   txRunner
	feed *feed.Broker[*models.UserProfile]
}

// NewService builds the account service.
func NewService(repo *Repository, tx txRunner, broker *feed.Broker[*models.UserProfile]) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repository is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner is required")
	}
	if broker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "feed broker is required")
	}
	return &service{repo: repo, tx: tx, feed: broker}, nil
}

// Register creates the device account. The check for an existing profile and
// the insert run in one transaction, so a second registration fails with a
// conflict and never alters the stored profile.
//
// The password is stored verbatim. The store is device-local and the source
// system behaves the same way; hashing here would break credential
// compatibility with existing rows.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.UserProfile, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		ID:          models.PrincipalUserID,
		DisplayName: input.DisplayName,
		Email:       input.Email,
		Password:    input.Password,
		IsLoggedIn:  true,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		_, err := repo.Get(ctx)
		if err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "an account is already registered on this device")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load profile")
		}
		if err := repo.Create(ctx, profile); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "an account is already registered on this device")
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx)
	return profile, nil
}

// Login matches the supplied credentials against the stored profile and marks
// the session active. A missing profile and a credential mismatch produce the
// same unauthorized error so callers cannot probe which one failed.
func (s *service) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	profile, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load profile")
	}

	if profile.Email != email || profile.Password != password {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}

	if err := s.repo.SetLoginFlag(ctx, true); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "mark session active")
	}
	profile.IsLoggedIn = true

	s.notify(ctx)
	return profile, nil
}

// Logout clears the session flag. Logging out with no registered account is a
// no-op.
func (s *service) Logout(ctx context.Context) error {
	return s.SetLoginFlag(ctx, false)
}

// SetLoginFlag writes the session flag directly. Updating without a
// registered account is a no-op.
func (s *service) SetLoginFlag(ctx context.Context, loggedIn bool) error {
	if err := s.repo.SetLoginFlag(ctx, loggedIn); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "write session flag")
	}
	s.notify(ctx)
	return nil
}

// Get returns the registered profile or a not-found error.
func (s *service) Get(ctx context.Context) (*models.UserProfile, error) {
	profile, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no account registered")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load profile")
	}
	return profile, nil
}

// Watch delivers the current profile snapshot followed by a fresh snapshot
// after every committed mutation, until ctx is cancelled. A nil snapshot means
// no account is registered.
func (s *service) Watch(ctx context.Context) (<-chan *models.UserProfile, error) {
	sub := s.feed.Subscribe(ctx, Topic)

	initial, err := s.Get(ctx)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	out := make(chan *models.UserProfile, 1)
	out <- initial
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case snapshot, ok := <-sub:
				if !ok {
					return
				}
				select {
				case out <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func validateRegisterInput(input RegisterInput) error {
	if input.DisplayName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}
	if input.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is not a valid address")
	}
	if len(input.Password) < minPasswordLength {
		return pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 6 characters")
	}
	return nil
}

// notify publishes a fresh profile snapshot to subscribers. Delivery is
// best-effort; the mutation that triggered it has already committed.
func (s *service) notify(ctx context.Context) {
	profile, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.feed.Publish(Topic, nil)
		return
	}
	if err != nil {
		return
	}
	s.feed.Publish(Topic, profile)
}
