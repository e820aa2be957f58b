package checkout

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/internal/address"
	"github.com/gymnastic/shopcart-backend/internal/cart"
	"github.com/gymnastic/shopcart-backend/internal/catalog"
	"github.com/gymnastic/shopcart-backend/internal/users"
	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	pkgerrors "github.com/gymnastic/shopcart-backend/pkg/errors"
	"github.com/gymnastic/shopcart-backend/pkg/feed"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	checkout  Service
	users     users.Service
	cart      cart.Service
	addresses address.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.CartLine{}, &models.UserProfile{}, &models.Address{}))

	runner := gormTxRunner{db: conn}

	userSvc, err := users.NewService(users.NewRepository(conn), runner, feed.NewBroker[*models.UserProfile]())
	require.NoError(t, err)
	cartSvc, err := cart.NewService(cart.NewRepository(conn), feed.NewBroker[[]models.CartLine]())
	require.NoError(t, err)
	addrSvc, err := address.NewService(address.NewRepository(conn), runner, feed.NewBroker[[]models.Address]())
	require.NoError(t, err)
	checkoutSvc, err := NewService(userSvc, cartSvc, addrSvc)
	require.NoError(t, err)

	return &fixture{checkout: checkoutSvc, users: userSvc, cart: cartSvc, addresses: addrSvc}
}

func (f *fixture) signIn(t *testing.T) *models.UserProfile {
	t.Helper()
	profile, err := f.users.Register(context.Background(), users.RegisterInput{
		DisplayName: "Gabriela Costa",
		Email:       "gabriela@example.com",
		Password:    "secret99",
	})
	require.NoError(t, err)
	return profile
}

func (f *fixture) saveAddress(t *testing.T, ownerID string, isDefault bool) *models.Address {
	t.Helper()
	row, err := f.addresses.Create(context.Background(), ownerID, address.Input{
		FullName:    "Gabriela Costa",
		Phone:       "11988887777",
		FullAddress: "Rua das Flores 123, Sao Paulo",
		IsDefault:   isDefault,
	})
	require.NoError(t, err)
	return row
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	phone, err := catalog.NewService().Get("1")
	require.NoError(t, err)
	laptop, err := catalog.NewService().Get("2")
	require.NoError(t, err)
	require.NoError(t, f.cart.AddN(ctx, *phone, 2))
	require.NoError(t, f.cart.AddOne(ctx, *laptop))
}

func TestPlaceOrderHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile := f.signIn(t)
	addr := f.saveAddress(t, profile.ID, true)
	f.fillCart(t)

	receipt, err := f.checkout.PlaceOrder(ctx, "")
	require.NoError(t, err)

	require.NotEmpty(t, receipt.OrderID)
	require.Equal(t, addr.ID, receipt.ShipTo.ID)
	require.Len(t, receipt.Lines, 2)
	require.Equal(t, 3, receipt.ItemCount)

	// 2 x 299.99 + 1 x 1299.99
	want := decimal.RequireFromString("1899.97")
	require.True(t, receipt.Subtotal.Equal(want), "subtotal %s", receipt.Subtotal)
	require.True(t, receipt.Total.Equal(want), "total %s", receipt.Total)

	lines, err := f.cart.List(ctx)
	require.NoError(t, err)
	require.Empty(t, lines, "cart must be empty after checkout")
}

func TestPlaceOrderWithExplicitAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile := f.signIn(t)
	f.saveAddress(t, profile.ID, true)
	chosen := f.saveAddress(t, profile.ID, false)
	f.fillCart(t)

	receipt, err := f.checkout.PlaceOrder(ctx, chosen.ID)
	require.NoError(t, err)
	require.Equal(t, chosen.ID, receipt.ShipTo.ID)
}

func TestPlaceOrderReportsEveryViolationAtOnce(t *testing.T) {
	f := newFixture(t)

	_, err := f.checkout.PlaceOrder(context.Background(), "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	// no account, empty cart and no address all show up together
	violations := multierr.Errors(errors.Unwrap(pkgerrors.As(err)))
	require.Len(t, violations, 3)
}

func TestPlaceOrderRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile := f.signIn(t)
	f.saveAddress(t, profile.ID, true)
	f.fillCart(t)
	require.NoError(t, f.users.Logout(ctx))

	_, err := f.checkout.PlaceOrder(ctx, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	lines, err := f.cart.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, lines, "a rejected order must not touch the cart")
}

func TestPlaceOrderRejectsForeignAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.signIn(t)
	foreign := f.saveAddress(t, "other", false)
	f.fillCart(t)

	_, err := f.checkout.PlaceOrder(ctx, foreign.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPlaceOrderWithoutDefaultAddressFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile := f.signIn(t)
	f.saveAddress(t, profile.ID, false)
	f.fillCart(t)

	_, err := f.checkout.PlaceOrder(ctx, "")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
