package address

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gymnastic/shopcart-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Address{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func testAddress(id, ownerID string, isDefault bool, createdAt time.Time) *models.Address {
	return &models.Address{
		ID:          id,
		OwnerID:     ownerID,
		FullName:    "Gabriela Costa",
		Phone:       "11988887777",
		FullAddress: "Rua das Flores 123, Sao Paulo",
		IsDefault:   isDefault,
		CreatedAt:   createdAt,
	}
}

func TestRepositoryListByOwnerNewestFirst(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		row := testAddress(id, "principal", false, base.Add(time.Duration(i)*time.Minute))
		if err := repo.Create(ctx, row); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	rows, err := repo.ListByOwner(ctx, "principal")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, want := range []string{"c", "b", "a"} {
		if rows[i].ID != want {
			t.Fatalf("expected row %d to be %s, got %s", i, want, rows[i].ID)
		}
	}
}

func TestRepositoryListByOwnerScopesToOwner(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	if err := repo.Create(ctx, testAddress("mine", "principal", false, now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, testAddress("theirs", "other", false, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := repo.ListByOwner(ctx, "principal")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "mine" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestRepositoryGetMissingReturnsRecordNotFound(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected gorm.ErrRecordNotFound, got %v", err)
	}
}

func TestRepositoryClearDefaultsAndMarkDefault(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC()
	if err := repo.Create(ctx, testAddress("a", "principal", true, now)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, testAddress("b", "principal", false, now)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.ClearDefaults(ctx, "principal"); err != nil {
		t.Fatalf("clear defaults: %v", err)
	}
	if _, err := repo.GetDefault(ctx, "principal"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected no default after clear, got %v", err)
	}

	affected, err := repo.MarkDefault(ctx, "b")
	if err != nil {
		t.Fatalf("mark default: %v", err)
	}
	if affected != 1 {
		t.Fatalf("expected 1 row affected, got %d", affected)
	}

	def, err := repo.GetDefault(ctx, "principal")
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def.ID != "b" {
		t.Fatalf("expected b to be default, got %s", def.ID)
	}

	affected, err = repo.MarkDefault(ctx, "ghost")
	if err != nil {
		t.Fatalf("mark default missing: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected 0 rows affected for missing id, got %d", affected)
	}
}

func TestRepositoryDeleteMissingIsNoOp(t *testing.T) {
	repo := NewRepository(newTestDB(t))

	if err := repo.Delete(context.Background(), "ghost"); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
