package shop

import (
	"context"

	"github.com/gymnastic/shopcart-backend/internal/address"
	"github.com/gymnastic/shopcart-backend/internal/cart"
	"github.com/gymnastic/shopcart-backend/internal/catalog"
	"github.com/gymnastic/shopcart-backend/internal/checkout"
	"github.com/gymnastic/shopcart-backend/internal/users"
	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/metrics"
)

// Shop is the single entry point for every storefront operation. Controllers
// and embedding callers go through it rather than through the individual
// services, so mutation accounting happens in exactly one place.
type Shop struct {
	catalog   catalog.Service
	cart      cart.Service
	users     users.Service
	addresses address.Service
	checkout  checkout.Service
	metrics   *metrics.StoreMetrics
}

// Params carries the service set the facade fronts.
type Params struct {
	Catalog   catalog.Service
	Cart      cart.Service
	Users     users.Service
	Addresses address.Service
	Checkout  checkout.Service
	Metrics   *metrics.StoreMetrics
}

// New builds the facade. Metrics may be nil; accounting is then skipped.
func New(params Params) (*Shop, error) {
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service is required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart service is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users service is required")
	}
	if params.Addresses == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "address service is required")
	}
	if params.Checkout == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "checkout service is required")
	}
	return &Shop{
		catalog:   params.Catalog,
		cart:      params.Cart,
		users:     params.Users,
		addresses: params.Addresses,
		checkout:  params.Checkout,
		metrics:   params.Metrics,
	}, nil
}

// Products returns the full catalog.
func (s *Shop) Products() []catalog.Product {
	return s.catalog.List()
}

// SearchProducts filters the catalog by name or description, case-insensitive.
func (s *Shop) SearchProducts(query string) []catalog.Product {
	return s.catalog.Search(query)
}

// Product returns one catalog entry by id.
func (s *Shop) Product(id string) (*catalog.Product, error) {
	return s.catalog.Get(id)
}

// AddToCart merges one unit of the product into the cart.
func (s *Shop) AddToCart(ctx context.Context, productID string) error {
	product, err := s.catalog.Get(productID)
	if err != nil {
		return err
	}
	if err := s.cart.AddOne(ctx, *product); err != nil {
		return err
	}
	s.metrics.IncMutation("cart_lines", "add")
	return nil
}

// AddToCartN merges n units of the product into the cart, one unit at a time.
func (s *Shop) AddToCartN(ctx context.Context, productID string, n int) error {
	product, err := s.catalog.Get(productID)
	if err != nil {
		return err
	}
	if err := s.cart.AddN(ctx, *product, n); err != nil {
		return err
	}
	if n > 0 {
		s.metrics.IncMutation("cart_lines", "add")
	}
	return nil
}

// UpdateCartQuantity overwrites a line's quantity; zero or less removes it.
func (s *Shop) UpdateCartQuantity(ctx context.Context, productID string, quantity int) error {
	if err := s.cart.SetQuantity(ctx, productID, quantity); err != nil {
		return err
	}
	s.metrics.IncMutation("cart_lines", "update")
	return nil
}

// RemoveFromCart drops a line from the cart.
func (s *Shop) RemoveFromCart(ctx context.Context, productID string) error {
	if err := s.cart.Remove(ctx, productID); err != nil {
		return err
	}
	s.metrics.IncMutation("cart_lines", "delete")
	return nil
}

// ClearCart empties the cart.
func (s *Shop) ClearCart(ctx context.Context) error {
	if err := s.cart.Clear(ctx); err != nil {
		return err
	}
	s.metrics.IncMutation("cart_lines", "clear")
	return nil
}

// CartLines returns the current cart snapshot.
func (s *Shop) CartLines(ctx context.Context) ([]models.CartLine, error) {
	return s.cart.List(ctx)
}

// CartLine returns the line for one product.
func (s *Shop) CartLine(ctx context.Context, productID string) (*models.CartLine, error) {
	return s.cart.Get(ctx, productID)
}

// WatchCart streams cart snapshots until ctx is cancelled.
func (s *Shop) WatchCart(ctx context.Context) (<-chan []models.CartLine, error) {
	return s.cart.Watch(ctx)
}

// Register creates the device account.
func (s *Shop) Register(ctx context.Context, input users.RegisterInput) (*models.UserProfile, error) {
	profile, err := s.users.Register(ctx, input)
	if err != nil {
		return nil, err
	}
	s.metrics.IncMutation("user_profile", "register")
	return profile, nil
}

// Login validates credentials and marks the session active.
func (s *Shop) Login(ctx context.Context, email, password string) (*models.UserProfile, error) {
	profile, err := s.users.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.metrics.IncMutation("user_profile", "login")
	return profile, nil
}

// Logout clears the session flag.
func (s *Shop) Logout(ctx context.Context) error {
	if err := s.users.Logout(ctx); err != nil {
		return err
	}
	s.metrics.IncMutation("user_profile", "logout")
	return nil
}

// SetLoginFlag writes the session flag without credential checks. Embedding
// callers use it to restore a session state; the HTTP surface goes through
// Login and Logout instead.
func (s *Shop) SetLoginFlag(ctx context.Context, loggedIn bool) error {
	if err := s.users.SetLoginFlag(ctx, loggedIn); err != nil {
		return err
	}
	s.metrics.IncMutation("user_profile", "set_login_flag")
	return nil
}

// CurrentUser returns the registered profile.
func (s *Shop) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	return s.users.Get(ctx)
}

// WatchUser streams profile snapshots until ctx is cancelled.
func (s *Shop) WatchUser(ctx context.Context) (<-chan *models.UserProfile, error) {
	return s.users.Watch(ctx)
}

// Addresses lists the owner's saved addresses newest first.
func (s *Shop) Addresses(ctx context.Context, ownerID string) ([]models.Address, error) {
	return s.addresses.List(ctx, ownerID)
}

// AddressByID returns one saved address.
func (s *Shop) AddressByID(ctx context.Context, id string) (*models.Address, error) {
	return s.addresses.Get(ctx, id)
}

// CountAddresses reports how many addresses the owner has saved.
func (s *Shop) CountAddresses(ctx context.Context, ownerID string) (int64, error) {
	return s.addresses.Count(ctx, ownerID)
}

// DefaultAddress returns the owner's default address, if one exists.
func (s *Shop) DefaultAddress(ctx context.Context, ownerID string) (*models.Address, error) {
	return s.addresses.GetDefault(ctx, ownerID)
}

// CreateAddress saves a new address for the owner.
func (s *Shop) CreateAddress(ctx context.Context, ownerID string, input address.Input) (*models.Address, error) {
	row, err := s.addresses.Create(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}
	s.metrics.IncMutation("addresses", "create")
	return row, nil
}

// UpdateAddress rewrites an existing address.
func (s *Shop) UpdateAddress(ctx context.Context, ownerID, id string, input address.Input) error {
	if err := s.addresses.Update(ctx, ownerID, id, input); err != nil {
		return err
	}
	s.metrics.IncMutation("addresses", "update")
	return nil
}

// SetDefaultAddress promotes one address to the owner's default.
func (s *Shop) SetDefaultAddress(ctx context.Context, ownerID, id string) error {
	if err := s.addresses.SetDefault(ctx, ownerID, id); err != nil {
		return err
	}
	s.metrics.IncMutation("addresses", "set_default")
	return nil
}

// RemoveAddress deletes an address.
func (s *Shop) RemoveAddress(ctx context.Context, ownerID, id string) error {
	if err := s.addresses.Remove(ctx, ownerID, id); err != nil {
		return err
	}
	s.metrics.IncMutation("addresses", "delete")
	return nil
}

// WatchAddresses streams the owner's address snapshots until ctx is cancelled.
func (s *Shop) WatchAddresses(ctx context.Context, ownerID string) (<-chan []models.Address, error) {
	return s.addresses.Watch(ctx, ownerID)
}

// Checkout places an order from the current cart. An empty addressID ships to
// the owner's default address.
func (s *Shop) Checkout(ctx context.Context, addressID string) (*checkout.Receipt, error) {
	receipt, err := s.checkout.PlaceOrder(ctx, addressID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncMutation("cart_lines", "checkout")
	return receipt, nil
}
