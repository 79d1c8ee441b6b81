package orders

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/internal/history"
	"github.com/zaikoworks/zaiko-backend/internal/stocks"
	"github.com/zaikoworks/zaiko-backend/pkg/config"
	"github.com/zaikoworks/zaiko-backend/pkg/db"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	conn *gorm.DB
	svc  Service
	user *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.ItemGroup{},
		&models.Stock{},
		&models.StockHistory{},
		&models.OutboundOrder{},
		&models.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	client := db.NewWithConn(conn)
	histories, err := history.NewService(history.NewRepository(conn), client, nil)
	if err != nil {
		t.Fatalf("history service: %v", err)
	}
	ledger, err := stocks.NewService(stocks.NewRepository(conn), client, histories, nil, nil, config.InventoryConfig{
		LowStockThreshold: 5,
	})
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	svc, err := NewService(NewRepository(conn), client, ledger, histories, nil)
	if err != nil {
		t.Fatalf("order service: %v", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		Username:     "tester",
		PasswordHash: "hash",
		SystemRole:   "staff",
		IsActive:     true,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	return &testEnv{conn: conn, svc: svc, user: user}
}

func (e *testEnv) seedStock(t *testing.T, name string, quantity int) *models.Stock {
	t.Helper()
	group := &models.ItemGroup{ID: uuid.New(), Name: "group " + uuid.NewString()}
	if err := e.conn.Create(group).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}
	stock := &models.Stock{ID: uuid.New(), GroupID: group.ID, ProductName: name, Quantity: quantity}
	if err := e.conn.Create(stock).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return stock
}

func (e *testEnv) stockQuantity(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var stock models.Stock
	if err := e.conn.First(&stock, "id = ?", id).Error; err != nil {
		t.Fatalf("reload stock: %v", err)
	}
	return stock.Quantity
}

func TestCreateOrderReservesStock(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	stock := env.seedStock(t, "lamp", 5)

	dto, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID:     stock.ID,
		Quantity:    3,
		Destination: "store 4",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending, got %s", dto.Status)
	}
	if got := env.stockQuantity(t, stock.ID); got != 2 {
		t.Fatalf("expected quantity 2 after reservation, got %d", got)
	}

	var entry models.StockHistory
	if err := env.conn.First(&entry, "stock_id = ?", stock.ID).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if entry.QuantityChange != -3 || entry.Type != enums.TransactionTypeOutbound {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
	if entry.ReferenceID == nil || *entry.ReferenceID != dto.ID {
		t.Fatalf("expected history reference %s, got %v", dto.ID, entry.ReferenceID)
	}
	if entry.Note == nil || *entry.Note != "store 4" {
		t.Fatalf("expected destination carried as note, got %v", entry.Note)
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	stock := env.seedStock(t, "chair", 5)

	if _, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID: stock.ID, Quantity: 3, Destination: "store 1",
	}); err != nil {
		t.Fatalf("first order: %v", err)
	}

	_, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID: stock.ID, Quantity: 3, Destination: "store 2",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}

	if got := env.stockQuantity(t, stock.ID); got != 2 {
		t.Fatalf("expected quantity 2, got %d", got)
	}

	var orderCount, historyCount int64
	if err := env.conn.Model(&models.OutboundOrder{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if err := env.conn.Model(&models.StockHistory{}).Count(&historyCount).Error; err != nil {
		t.Fatalf("count history: %v", err)
	}
	if orderCount != 1 || historyCount != 1 {
		t.Fatalf("expected one order and one movement, got %d/%d", orderCount, historyCount)
	}
}

func TestCancelRestoresStockAndRemovesOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	stock := env.seedStock(t, "desk", 10)

	dto, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID: stock.ID, Quantity: 4, Destination: "store 9",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := env.svc.Cancel(ctx, env.user.ID, dto.ID); err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	if got := env.stockQuantity(t, stock.ID); got != 10 {
		t.Fatalf("expected quantity restored to 10, got %d", got)
	}

	var orderCount int64
	if err := env.conn.Model(&models.OutboundOrder{}).Where("id = ?", dto.ID).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 0 {
		t.Fatal("expected canceled order row to be removed")
	}

	var cancellation models.StockHistory
	if err := env.conn.First(&cancellation, "type = ?", enums.TransactionTypeCancellation).Error; err != nil {
		t.Fatalf("load cancellation entry: %v", err)
	}
	if cancellation.QuantityChange != 4 {
		t.Fatalf("expected +4 cancellation, got %d", cancellation.QuantityChange)
	}
	if cancellation.ReferenceID == nil || *cancellation.ReferenceID != dto.ID {
		t.Fatalf("expected cancellation reference %s, got %v", dto.ID, cancellation.ReferenceID)
	}
}

func TestCancelRequiresPendingStatus(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	stock := env.seedStock(t, "cabinet", 10)

	dto, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID: stock.ID, Quantity: 2, Destination: "store 3",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, dto.ID); err != nil {
		t.Fatalf("confirm order: %v", err)
	}

	err = env.svc.Cancel(ctx, env.user.ID, dto.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if got := env.stockQuantity(t, stock.ID); got != 8 {
		t.Fatalf("expected quantity still 8, got %d", got)
	}
}

func TestOrderLifecycleTransitions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	stock := env.seedStock(t, "shelf", 10)

	dto, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID: stock.ID, Quantity: 1, Destination: "store 2",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Completing a pending order must fail.
	_, err = env.svc.Complete(ctx, dto.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict completing pending order, got %v", err)
	}

	confirmed, err := env.svc.Confirm(ctx, dto.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != enums.OrderStatusWarehouseConfirmed || confirmed.WarehouseConfirmedAt == nil {
		t.Fatalf("unexpected confirmed order: %+v", confirmed)
	}

	// Double confirm loses the race against the stored status.
	_, err = env.svc.Confirm(ctx, dto.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on double confirm, got %v", err)
	}

	reverted, err := env.svc.Revert(ctx, dto.ID)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != enums.OrderStatusPending || reverted.WarehouseConfirmedAt != nil {
		t.Fatalf("unexpected reverted order: %+v", reverted)
	}

	if _, err := env.svc.Confirm(ctx, dto.ID); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	completed, err := env.svc.Complete(ctx, dto.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != enums.OrderStatusCompleted || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed order: %+v", completed)
	}

	// Revert walks back one stage at a time, clearing each timestamp.
	backToConfirmed, err := env.svc.Revert(ctx, dto.ID)
	if err != nil {
		t.Fatalf("revert completed: %v", err)
	}
	if backToConfirmed.Status != enums.OrderStatusWarehouseConfirmed || backToConfirmed.CompletedAt != nil {
		t.Fatalf("unexpected order after reverting completion: %+v", backToConfirmed)
	}
	if backToConfirmed.WarehouseConfirmedAt == nil {
		t.Fatal("expected confirmation timestamp retained after reverting completion")
	}

	backToPending, err := env.svc.Revert(ctx, dto.ID)
	if err != nil {
		t.Fatalf("revert confirmed: %v", err)
	}
	if backToPending.Status != enums.OrderStatusPending || backToPending.WarehouseConfirmedAt != nil {
		t.Fatalf("unexpected order after reverting confirmation: %+v", backToPending)
	}

	_, err = env.svc.Revert(ctx, dto.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict reverting pending order, got %v", err)
	}
}

func TestConcurrentCreatesAllowSingleWinner(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	stock := env.seedStock(t, "printer", 5)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
				StockID:     stock.ID,
				Quantity:    3,
				Destination: fmt.Sprintf("store %d", i),
			})
			results[i] = err
		}()
	}
	wg.Wait()

	var wins, overdraws int
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeInsufficientStock {
			overdraws++
			continue
		}
		t.Fatalf("unexpected error: %v", err)
	}
	if wins != 1 || overdraws != 1 {
		t.Fatalf("expected one winner and one overdraw, got %d/%d", wins, overdraws)
	}

	if got := env.stockQuantity(t, stock.ID); got != 2 {
		t.Fatalf("expected quantity 2 after single reservation, got %d", got)
	}
	var orderCount int64
	if err := env.conn.Model(&models.OutboundOrder{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected one order row, got %d", orderCount)
	}
}

func TestTransitionUnknownOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Confirm(ctx, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListAndBoard(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	stock := env.seedStock(t, "box", 20)

	first, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID: stock.ID, Quantity: 2, Destination: "store a",
	})
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID: stock.ID, Quantity: 3, Destination: "store b",
	})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	third, err := env.svc.Create(ctx, env.user.ID, CreateOrderInput{
		StockID: stock.ID, Quantity: 1, Destination: "store c",
	})
	if err != nil {
		t.Fatalf("create third: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, second.ID); err != nil {
		t.Fatalf("confirm second: %v", err)
	}
	if _, err := env.svc.Confirm(ctx, third.ID); err != nil {
		t.Fatalf("confirm third: %v", err)
	}

	pendingStatus := enums.OrderStatusPending
	listed, err := env.svc.List(ctx, ListFilters{Status: &pendingStatus}, pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed.Orders) != 1 || listed.Orders[0].ID != first.ID {
		t.Fatalf("unexpected pending list: %+v", listed.Orders)
	}

	board, err := env.svc.Board(ctx)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if len(board.Pending) != 1 || len(board.Confirmed) != 2 || len(board.Completed) != 0 {
		t.Fatalf("unexpected board: %d pending, %d confirmed, %d completed",
			len(board.Pending), len(board.Confirmed), len(board.Completed))
	}
	// The confirmed column shows the latest confirmation first.
	if board.Confirmed[0].ID != third.ID || board.Confirmed[1].ID != second.ID {
		t.Fatalf("unexpected confirmed ordering: %+v", board.Confirmed)
	}

	if _, err := env.svc.Complete(ctx, third.ID); err != nil {
		t.Fatalf("complete third: %v", err)
	}
	board, err = env.svc.Board(ctx)
	if err != nil {
		t.Fatalf("board after completion: %v", err)
	}
	if len(board.Confirmed) != 1 || board.Confirmed[0].ID != second.ID {
		t.Fatalf("unexpected confirmed column: %+v", board.Confirmed)
	}
	if len(board.Completed) != 1 || board.Completed[0].ID != third.ID {
		t.Fatalf("unexpected completed column: %+v", board.Completed)
	}
}
