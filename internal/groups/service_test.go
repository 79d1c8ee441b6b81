package groups

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:groups_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.ItemGroup{}, &models.Stock{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn))
	if err != nil {
		t.Fatalf("group service: %v", err)
	}
	return svc
}

func TestCreateAppendsDisplayOrder(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	first, err := svc.Create(ctx, "drinks")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if first.DisplayOrder != 0 {
		t.Fatalf("expected display order 0, got %d", first.DisplayOrder)
	}

	second, err := svc.Create(ctx, "snacks")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.DisplayOrder != 1 {
		t.Fatalf("expected display order 1, got %d", second.DisplayOrder)
	}
}

func TestCreateDuplicateName(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "drinks"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, "drinks")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRename(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	group, err := svc.Create(ctx, "drinks")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := svc.Create(ctx, "snacks")
	if err != nil {
		t.Fatalf("create other: %v", err)
	}

	renamed, err := svc.Rename(ctx, group.ID, "beverages")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Name != "beverages" {
		t.Fatalf("expected renamed group, got %q", renamed.Name)
	}

	_, err = svc.Rename(ctx, other.ID, "beverages")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = svc.Rename(ctx, uuid.New(), "anything")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteBlockedByLiveStocks(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	group, err := svc.Create(ctx, "hardware")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	stock := &models.Stock{ID: uuid.New(), GroupID: group.ID, ProductName: "bolt", Quantity: 100}
	if err := conn.Create(stock).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	err = svc.Delete(ctx, group.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// Soft-deleted stocks no longer block.
	now := time.Now().UTC()
	if err := conn.Model(stock).UpdateColumn("deleted_at", now).Error; err != nil {
		t.Fatalf("soft delete stock: %v", err)
	}
	if err := svc.Delete(ctx, group.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestReorder(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "a")
	b, _ := svc.Create(ctx, "b")
	c, _ := svc.Create(ctx, "c")

	if err := svc.Reorder(ctx, []uuid.UUID{c.ID, a.ID, b.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(listed))
	}
	want := []string{"c", "a", "b"}
	for i, dto := range listed {
		if dto.Name != want[i] {
			t.Fatalf("expected %q at position %d, got %q", want[i], i, dto.Name)
		}
		if dto.DisplayOrder != i {
			t.Fatalf("expected display order %d, got %d", i, dto.DisplayOrder)
		}
	}
}

func TestReorderPartialSequence(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "a")
	b, _ := svc.Create(ctx, "b")
	c, _ := svc.Create(ctx, "c")

	// Unknown ids are skipped; groups outside the sequence keep their order.
	if err := svc.Reorder(ctx, []uuid.UUID{b.ID, uuid.New(), a.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	orders := map[uuid.UUID]int{}
	for _, dto := range listed {
		orders[dto.ID] = dto.DisplayOrder
	}
	if orders[b.ID] != 0 || orders[a.ID] != 2 {
		t.Fatalf("unexpected display orders: %v", orders)
	}
	if orders[c.ID] != 2 {
		t.Fatalf("expected untouched group to keep order 2, got %d", orders[c.ID])
	}
}

func TestReorderValidation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	a, _ := svc.Create(ctx, "a")

	cases := [][]uuid.UUID{
		nil,          // empty
		{a.ID, a.ID}, // duplicate
	}
	for _, ids := range cases {
		err := svc.Reorder(ctx, ids)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %v, got %v", ids, err)
		}
	}
}

func TestListIncludesStockCounts(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	group, err := svc.Create(ctx, "office")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, name := range []string{"pen", "pad"} {
		stock := &models.Stock{ID: uuid.New(), GroupID: group.ID, ProductName: name, Quantity: 1}
		if err := conn.Create(stock).Error; err != nil {
			t.Fatalf("seed stock: %v", err)
		}
	}

	listed, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].StockCount != 2 {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}
