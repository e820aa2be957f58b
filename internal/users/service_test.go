package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

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

func newTestService(t *testing.T) Service {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), gormTxRunner{db: conn}, feed.NewBroker[*models.UserProfile]())
	require.NoError(t, err)
	return svc
}

func registerInput() RegisterInput {
	return RegisterInput{
		DisplayName: "Gabriela Costa",
		Email:       "gabriela@example.com",
		Password:    "secret99",
	}
}

func TestRegisterCreatesLoggedInProfile(t *testing.T) {
	svc := newTestService(t)

	profile, err := svc.Register(context.Background(), registerInput())
	require.NoError(t, err)
	require.Equal(t, models.PrincipalUserID, profile.ID)
	require.Equal(t, "gabriela@example.com", profile.Email)
	require.True(t, profile.IsLoggedIn)

	stored, err := svc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Gabriela Costa", stored.DisplayName)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc := newTestService(t)

	input := registerInput()
	input.Email = "  Gabriela@Example.COM "
	profile, err := svc.Register(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, "gabriela@example.com", profile.Email)
}

func TestRegisterSecondAccountConflictsAndKeepsOriginal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	second := RegisterInput{
		DisplayName: "Someone Else",
		Email:       "else@example.com",
		Password:    "hunter22",
	}
	_, err = svc.Register(ctx, second)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	stored, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "gabriela@example.com", stored.Email)
	require.Equal(t, "Gabriela Costa", stored.DisplayName)
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name  string
		mut   func(*RegisterInput)
	}{
		{"blank display name", func(in *RegisterInput) { in.DisplayName = "  " }},
		{"blank email", func(in *RegisterInput) { in.Email = "" }},
		{"malformed email", func(in *RegisterInput) { in.Email = "not-an-address" }},
		{"short password", func(in *RegisterInput) { in.Password = "abc" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := registerInput()
			tc.mut(&input)
			_, err := svc.Register(context.Background(), input)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

func TestLoginRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx))

	stored, err := svc.Get(ctx)
	require.NoError(t, err)
	require.False(t, stored.IsLoggedIn)

	profile, err := svc.Login(ctx, "gabriela@example.com", "secret99")
	require.NoError(t, err)
	require.True(t, profile.IsLoggedIn)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, err = svc.Login(ctx, "gabriela@example.com", "wrong-pass")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = svc.Login(ctx, "other@example.com", "secret99")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestLoginWithoutAccountIsUnauthorized(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Login(context.Background(), "gabriela@example.com", "secret99")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestGetWithoutAccountIsNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestWatchDeliversProfileTransitions(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := svc.Watch(ctx)
	require.NoError(t, err)

	select {
	case snapshot := <-stream:
		require.Nil(t, snapshot)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}

	_, err = svc.Register(ctx, registerInput())
	require.NoError(t, err)

	select {
	case snapshot := <-stream:
		require.NotNil(t, snapshot)
		require.True(t, snapshot.IsLoggedIn)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for registered snapshot")
	}

	require.NoError(t, svc.Logout(ctx))

	select {
	case snapshot := <-stream:
		require.NotNil(t, snapshot)
		require.False(t, snapshot.IsLoggedIn)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for logged-out snapshot")
	}
}
