package db

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/pkg/config"
	"github.com/gymnastic/shopcart-backend/pkg/db/models"
	"github.com/gymnastic/shopcart-backend/pkg/logger"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	cfg := config.DBConfig{
		Driver: config.DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}
	logg := logger.New(logger.Options{
		ServiceName: "db-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})

	client, err := New(context.Background(), cfg, logg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().AutoMigrate(&models.UserProfile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return client
}

func TestClientPing(t *testing.T) {
	client := newTestClient(t)

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := config.DBConfig{Driver: "oracle", DSN: "whatever"}
	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.UserProfile{
			ID:          models.PrincipalUserID,
			DisplayName: "Gabriela Costa",
			Email:       "gabriela@example.com",
			Password:    "secret99",
		}).Error
	})
	if err != nil {
		t.Fatalf("with tx: %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.UserProfile{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.UserProfile{
			ID:          models.PrincipalUserID,
			DisplayName: "Gabriela Costa",
			Email:       "gabriela@example.com",
			Password:    "secret99",
		}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int64
	if err := client.DB().Model(&models.UserProfile{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback to leave 0 rows, got %d", count)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	client := newTestClient(t)

	row := func() *models.UserProfile {
		return &models.UserProfile{
			ID:          models.PrincipalUserID,
			DisplayName: "Gabriela Costa",
			Email:       "gabriela@example.com",
			Password:    "secret99",
		}
	}

	if err := client.DB().Create(row()).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := client.DB().Create(row()).Error
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !IsUniqueViolation(err, "user_profile") {
		t.Fatalf("expected IsUniqueViolation to match, got %v", err)
	}
}
