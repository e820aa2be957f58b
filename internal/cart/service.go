package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/internal/catalog"
	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/feed"
)

// Topic carries cart snapshots through the feed broker.
const Topic = "cart_lines"

// LineRepository is the persistence surface the reconciler needs.
type LineRepository interface {
	List(ctx context.Context) ([]models.CartLine, error)
	Get(ctx context.Context, productID string) (*models.CartLine, error)
	Upsert(ctx context.Context, line *models.CartLine) error
	Delete(ctx context.Context, productID string) error
	DeleteAll(ctx context.Context) error
}

// Service reconciles add/update/remove requests against the cart line set.
//
// Every operation is read-check-then-write with no optimistic locking:
// concurrent callers racing on the same product can lose updates
// (last-write-wins). That race is inherited from the source and documented,
// not remediated.
type Service interface {
	AddOne(ctx context.Context, product catalog.Product) error
	AddN(ctx context.Context, product catalog.Product, n int) error
	SetQuantity(ctx context.Context, productID string, quantity int) error
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
	List(ctx context.Context) ([]models.CartLine, error)
	Get(ctx context.Context, productID string) (*models.CartLine, error)
	Watch(ctx context.Context) (<-chan []models.CartLine, error)
}

type service struct {
	repo LineRepository
	feed *feed.Broker[[]models.CartLine]
}

// NewService builds the cart reconciler.
func NewService(repo LineRepository, broker *feed.Broker[[]models.CartLine]) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository is required")
	}
	if broker == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "feed broker is required")
	}
	return &service{repo: repo, feed: broker}, nil
}

// AddOne merges one unit of the product into the cart: an existing line is
// rewritten with quantity+1, otherwise a fresh quantity-1 line is inserted.
func (s *service) AddOne(ctx context.Context, product catalog.Product) error {
	existing, err := s.repo.Get(ctx, product.ID)
	switch {
	case err == nil:
		existing.Quantity++
		if err := s.repo.Upsert(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "update cart line")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		line := &models.CartLine{
			ProductID:       product.ID,
			ProductName:     product.Name,
			ProductPrice:    product.Price,
			ProductImageURL: product.ImageURL,
			Quantity:        1,
		}
		if err := s.repo.Upsert(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "insert cart line")
		}
	default:
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load cart line")
	}

	s.notify(ctx)
	return nil
}

// AddN adds n units as n independent single-unit merges. Each unit is
// reconciled and published on its own; n <= 0 performs no write. The batch
// is deliberately not atomic: a concurrent reader may observe intermediate
// quantities, matching the source behavior.
func (s *service) AddN(ctx context.Context, product catalog.Product, n int) error {
	for i := 0; i < n; i++ {
		if err := s.AddOne(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

// SetQuantity overwrites the quantity of an existing line. A missing line is
// a no-op; a quantity of zero or less deletes the line.
func (s *service) SetQuantity(ctx context.Context, productID string, quantity int) error {
	existing, err := s.repo.Get(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load cart line")
	}

	if quantity <= 0 {
		if err := s.repo.Delete(ctx, productID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete cart line")
		}
	} else {
		existing.Quantity = quantity
		if err := s.repo.Upsert(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "update cart line")
		}
	}

	s.notify(ctx)
	return nil
}

// Remove deletes the line for a product. Absent lines are a no-op.
func (s *service) Remove(ctx context.Context, productID string) error {
	existing, err := s.repo.Get(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load cart line")
	}

	if err := s.repo.Delete(ctx, existing.ProductID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete cart line")
	}

	s.notify(ctx)
	return nil
}

// Clear empties the cart unconditionally. Used after a successful checkout.
func (s *service) Clear(ctx context.Context) error {
	if err := s.repo.DeleteAll(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "clear cart")
	}
	s.notify(ctx)
	return nil
}

// List returns the current cart snapshot.
func (s *service) List(ctx context.Context) ([]models.CartLine, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list cart lines")
	}
	return rows, nil
}

// Get returns the line for one product.
func (s *service) Get(ctx context.Context, productID string) (*models.CartLine, error) {
	line, err := s.repo.Get(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load cart line")
	}
	return line, nil
}

// Watch delivers the current snapshot followed by a fresh snapshot after
// every committed mutation, until ctx is cancelled.
func (s *service) Watch(ctx context.Context) (<-chan []models.CartLine, error) {
	sub := s.feed.Subscribe(ctx, Topic)
	initial, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan []models.CartLine, 1)
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

// notify publishes a fresh snapshot to subscribers. Delivery is best-effort;
// the mutation that triggered it has already committed.
func (s *service) notify(ctx context.Context) {
	snapshot, err := s.repo.List(ctx)
	if err != nil {
		return
	}
	s.feed.Publish(Topic, snapshot)
}
