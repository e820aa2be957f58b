package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
)

// profileSource yields the signed-in account, if any.
type profileSource interface {
	Get(ctx context.Context) (*models.UserProfile, error)
}

// cartSource exposes the cart operations checkout needs.
type cartSource interface {
	List(ctx context.Context) ([]models.CartLine, error)
	Clear(ctx context.Context) error
}

// addressSource resolves the shipping address.
type addressSource interface {
	Get(ctx context.Context, id string) (*models.Address, error)
	GetDefault(ctx context.Context, ownerID string) (*models.Address, error)
}

// Receipt is the immutable summary handed back for a placed order. Orders are
// not persisted; the receipt is the only artifact.
type Receipt struct {
	OrderID   string            `json:"order_id"`
	PlacedAt  time.Time         `json:"placed_at"`
	Lines     []models.CartLine `json:"lines"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	Total     decimal.Decimal   `json:"total"`
	ShipTo    models.Address    `json:"ship_to"`
}

// Service turns the current cart into an order receipt.
type Service interface {
	PlaceOrder(ctx context.Context, addressID string) (*Receipt, error)
}

type service struct {
	profiles  profileSource
	cart      cartSource
	addresses addressSource
}

// NewService builds the checkout service.
func NewService(profiles profileSource, cart cartSource, addresses addressSource) (Service, error) {
	if profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile source is required")
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart source is required")
	}
	if addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address source is required")
	}
	return &service{profiles: profiles, cart: cart, addresses: addresses}, nil
}

// PlaceOrder checks every precondition before committing anything, and
// reports all violations at once instead of stopping at the first. With an
// empty addressID the owner's default address ships the order. On success the
// cart is emptied and the receipt returned; nothing else is persisted.
func (s *service) PlaceOrder(ctx context.Context, addressID string) (*Receipt, error) {
	var violations error

	profile, err := s.profiles.Get(ctx)
	switch {
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		violations = multierr.Append(violations, errors.New("no account is signed in"))
	case err != nil:
		return nil, err
	case !profile.IsLoggedIn:
		violations = multierr.Append(violations, errors.New("no account is signed in"))
	}

	lines, err := s.cart.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		violations = multierr.Append(violations, errors.New("the cart is empty"))
	}

	var shipTo *models.Address
	if profile != nil {
		shipTo, err = s.resolveAddress(ctx, profile.ID, addressID)
		if err != nil {
			if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return nil, err
			}
			violations = multierr.Append(violations, errors.New("no shipping address is available"))
		}
	} else {
		violations = multierr.Append(violations, errors.New("no shipping address is available"))
	}

	if violations != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, violations, "order cannot be placed")
	}

	subtotal := decimal.Zero
	itemCount := 0
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal())
		itemCount += line.Quantity
	}

	if err := s.cart.Clear(ctx); err != nil {
		return nil, err
	}

	return &Receipt{
		OrderID:   uuid.NewString(),
		PlacedAt:  time.Now().UTC(),
		Lines:     lines,
		ItemCount: itemCount,
		Subtotal:  subtotal,
		Total:     subtotal,
		ShipTo:    *shipTo,
	}, nil
}

// resolveAddress picks the explicitly chosen address or falls back to the
// owner's default. A chosen address belonging to another owner resolves as
// not-found.
func (s *service) resolveAddress(ctx context.Context, ownerID, addressID string) (*models.Address, error) {
	if addressID == "" {
		return s.addresses.GetDefault(ctx, ownerID)
	}
	row, err := s.addresses.Get(ctx, addressID)
	if err != nil {
		return nil, err
	}
	if row.OwnerID != ownerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return row, nil
}
