package address

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/feed"
)

// topicPrefix namespaces address snapshots per owner on the feed broker.
const topicPrefix = "addresses:"

const minPhoneDigits = 10

// Topic returns the feed topic carrying one owner's address snapshots.
func Topic(ownerID string) string {
	return topicPrefix + ownerID
}

// txRunner runs a function inside a single database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input is the payload for creating or rewriting a saved address.
type Input struct {
	FullName    string
	Phone       string
	FullAddress string
	IsDefault   bool
}

// Service manages an owner's saved addresses and keeps the single-default
// invariant: at most one address per owner carries the default flag.
type Service interface {
	List(ctx context.Context, ownerID string) ([]models.Address, error)
	Get(ctx context.Context, id string) (*models.Address, error)
	GetDefault(ctx context.Context, ownerID string) (*models.Address, error)
	Create(ctx context.Context, ownerID string, input Input) (*models.Address, error)
	Update(ctx context.Context, ownerID, id string, input Input) error
	SetDefault(ctx context.Context, ownerID, id string) error
	Remove(ctx context.Context, ownerID, id string) error
	Count(ctx context.Context, ownerID string) (int64, error)
	Watch(ctx context.Context, ownerID string) (<-chan []models.Address, error)
}

type service struct {
	repo *Repository
	tx   txRunner
	feed *feed.Broker[[]models.Address]
}

// NewService builds the address coordinator.
func NewService(repo *Repository, tx txRunner, broker *feed.Broker[[]models.Address]) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address repository is required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner is required")
	}
	if broker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "feed broker is required")
	}
	return &service{repo: repo, tx: tx, feed: broker}, nil
}

// List returns the owner's addresses newest first.
func (s *service) List(ctx context.Context, ownerID string) ([]models.Address, error) {
	rows, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list addresses")
	}
	return rows, nil
}

// Get returns one address by id.
func (s *service) Get(ctx context.Context, id string) (*models.Address, error) {
	row, err := s.repo.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load address")
	}
	return row, nil
}

// GetDefault returns the owner's default address or a not-found error when no
// address carries the flag. Deleting the default does not promote another
// address, so an owner with saved addresses can legitimately have no default.
func (s *service) GetDefault(ctx context.Context, ownerID string) (*models.Address, error) {
	row, err := s.repo.GetDefault(ctx, ownerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no default address")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load default address")
	}
	return row, nil
}

// Create saves a new address for the owner. When the input asks for default,
// clearing the previous default and inserting happen in one transaction so no
// reader observes two defaults or none where one was promised.
func (s *service) Create(ctx context.Context, ownerID string, input Input) (*models.Address, error) {
	input = trimInput(input)
	if err := validateInput(ownerID, input); err != nil {
		return nil, err
	}

	row := &models.Address{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		FullName:    input.FullName,
		Phone:       input.Phone,
		FullAddress: input.FullAddress,
		IsDefault:   input.IsDefault,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefaults(ctx, ownerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "clear previous default")
			}
		}
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, ownerID)
	return row, nil
}

// Update rewrites an existing address. A missing id is a no-op. Promoting the
// row to default demotes the previous default in the same transaction.
func (s *service) Update(ctx context.Context, ownerID, id string, input Input) error {
	input = trimInput(input)
	if err := validateInput(ownerID, input); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.Get(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load address")
		}
		if row.OwnerID != ownerID {
			return nil
		}

		if input.IsDefault && !row.IsDefault {
			if err := repo.ClearDefaults(ctx, ownerID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "clear previous default")
			}
		}

		row.FullName = input.FullName
		row.Phone = input.Phone
		row.FullAddress = input.FullAddress
		row.IsDefault = input.IsDefault
		if err := repo.Update(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "update address")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, ownerID)
	return nil
}

// SetDefault promotes one address to be the owner's default. The demote of the
// previous default and the promote run in one transaction; an unknown id
// rolls the whole thing back and returns not-found.
func (s *service) SetDefault(ctx context.Context, ownerID, id string) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := repo.Get(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load address")
		}
		if row.OwnerID != ownerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}

		if err := repo.ClearDefaults(ctx, ownerID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "clear previous default")
		}
		affected, err := repo.MarkDefault(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "mark default")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notify(ctx, ownerID)
	return nil
}

// Remove deletes an address. Deleting the default leaves the owner with no
// default; nothing is auto-promoted. A missing id is a no-op.
func (s *service) Remove(ctx context.Context, ownerID, id string) error {
	row, err := s.repo.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load address")
	}
	if row.OwnerID != ownerID {
		return nil
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete address")
	}

	s.notify(ctx, ownerID)
	return nil
}

// Count reports how many addresses the owner has saved.
func (s *service) Count(ctx context.Context, ownerID string) (int64, error) {
	count, err := s.repo.Count(ctx, ownerID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count addresses")
	}
	return count, nil
}

// Watch delivers the owner's current address list followed by a fresh snapshot
// after every committed mutation, until ctx is cancelled.
func (s *service) Watch(ctx context.Context, ownerID string) (<-chan []models.Address, error) {
	sub := s.feed.Subscribe(ctx, Topic(ownerID))
	initial, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make(chan []models.Address, 1)
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

func trimInput(input Input) Input {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Phone = strings.TrimSpace(input.Phone)
	input.FullAddress = strings.TrimSpace(input.FullAddress)
	return input
}

func validateInput(ownerID string, input Input) error {
	if strings.TrimSpace(ownerID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if input.FullName == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}
	if input.Phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if len(input.Phone) < minPhoneDigits {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone must have at least 10 digits")
	}
	if !digitsOnly(input.Phone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone must contain digits only")
	}
	if input.FullAddress == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "full address is required")
	}
	return nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// notify publishes a fresh snapshot of the owner's addresses. Delivery is
// best-effort; the mutation that triggered it has already committed.
func (s *service) notify(ctx context.Context, ownerID string) {
	snapshot, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return
	}
	s.feed.Publish(Topic(ownerID), snapshot)
}
