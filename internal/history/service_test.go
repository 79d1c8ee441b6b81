package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/db"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:history_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.ItemGroup{},
		&models.Stock{},
		&models.StockHistory{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn), db.NewWithConn(conn), nil)
	if err != nil {
		t.Fatalf("history service: %v", err)
	}
	return svc
}

func seedStockWithUser(t *testing.T, conn *gorm.DB) (*models.Stock, *models.User) {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		Username:     "recorder",
		PasswordHash: "hash",
		SystemRole:   "staff",
		IsActive:     true,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	group := &models.ItemGroup{ID: uuid.New(), Name: "group " + uuid.NewString()}
	if err := conn.Create(group).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}
	stock := &models.Stock{ID: uuid.New(), GroupID: group.ID, ProductName: "widget", Quantity: 10}
	if err := conn.Create(stock).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
	return stock, user
}

func record(t *testing.T, conn *gorm.DB, svc Service, input RecordEntryInput) *models.StockHistory {
	t.Helper()
	var entry *models.StockHistory
	err := db.NewWithConn(conn).WithTx(context.Background(), func(tx *gorm.DB) error {
		var err error
		entry, err = svc.Record(context.Background(), tx, input)
		return err
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return entry
}

func TestRecordValidation(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	stock, user := seedStockWithUser(t, conn)

	if _, err := svc.Record(ctx, nil, RecordEntryInput{
		StockID: stock.ID, QuantityChange: 1, Type: enums.TransactionTypeInbound, UserID: user.ID,
	}); err == nil {
		t.Fatal("expected error without transaction")
	}

	cases := []RecordEntryInput{
		{StockID: uuid.Nil, QuantityChange: 1, Type: enums.TransactionTypeInbound, UserID: user.ID},
		{StockID: stock.ID, QuantityChange: 0, Type: enums.TransactionTypeInbound, UserID: user.ID},
		{StockID: stock.ID, QuantityChange: 1, Type: enums.TransactionType("bogus"), UserID: user.ID},
		{StockID: stock.ID, QuantityChange: 1, Type: enums.TransactionTypeInbound, UserID: uuid.Nil},
	}
	for _, input := range cases {
		err := db.NewWithConn(conn).WithTx(ctx, func(tx *gorm.DB) error {
			_, err := svc.Record(ctx, tx, input)
			return err
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestQueryFilters(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	stock, user := seedStockWithUser(t, conn)
	otherStock, otherUser := seedStockWithUser(t, conn)

	record(t, conn, svc, RecordEntryInput{
		StockID: stock.ID, QuantityChange: 5, Type: enums.TransactionTypeInbound, UserID: user.ID,
	})
	record(t, conn, svc, RecordEntryInput{
		StockID: stock.ID, QuantityChange: -2, Type: enums.TransactionTypeOutbound, UserID: user.ID,
	})
	record(t, conn, svc, RecordEntryInput{
		StockID: otherStock.ID, QuantityChange: 3, Type: enums.TransactionTypeInbound, UserID: otherUser.ID,
	})

	byStock, err := svc.Query(ctx, QueryFilters{StockID: &stock.ID}, pagination.Params{})
	if err != nil {
		t.Fatalf("query by stock: %v", err)
	}
	if len(byStock.Entries) != 2 {
		t.Fatalf("expected 2 entries for stock, got %d", len(byStock.Entries))
	}

	outbound := enums.TransactionTypeOutbound
	byType, err := svc.Query(ctx, QueryFilters{Type: &outbound}, pagination.Params{})
	if err != nil {
		t.Fatalf("query by type: %v", err)
	}
	if len(byType.Entries) != 1 || byType.Entries[0].QuantityChange != -2 {
		t.Fatalf("unexpected outbound entries: %+v", byType.Entries)
	}

	byUser, err := svc.Query(ctx, QueryFilters{UserID: &otherUser.ID}, pagination.Params{})
	if err != nil {
		t.Fatalf("query by user: %v", err)
	}
	if len(byUser.Entries) != 1 || byUser.Entries[0].StockID != otherStock.ID {
		t.Fatalf("unexpected user entries: %+v", byUser.Entries)
	}

	future := time.Now().Add(time.Hour).UTC()
	none, err := svc.Query(ctx, QueryFilters{From: &future}, pagination.Params{})
	if err != nil {
		t.Fatalf("query with future from: %v", err)
	}
	if len(none.Entries) != 0 {
		t.Fatalf("expected no entries after future cutoff, got %d", len(none.Entries))
	}
}

func TestQueryJoinsNames(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	stock, user := seedStockWithUser(t, conn)

	record(t, conn, svc, RecordEntryInput{
		StockID: stock.ID, QuantityChange: 7, Type: enums.TransactionTypeInbound, UserID: user.ID,
	})

	result, err := svc.Query(ctx, QueryFilters{}, pagination.Params{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}
	entry := result.Entries[0]
	if entry.ProductName != "widget" || entry.Username != "recorder" {
		t.Fatalf("expected joined names, got %+v", entry)
	}
}

func TestQueryPagination(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	stock, user := seedStockWithUser(t, conn)

	for i := 0; i < 5; i++ {
		record(t, conn, svc, RecordEntryInput{
			StockID: stock.ID, QuantityChange: i + 1, Type: enums.TransactionTypeInbound, UserID: user.ID,
		})
	}

	first, err := svc.Query(ctx, QueryFilters{}, pagination.Params{Limit: 3})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Entries) != 3 || first.NextCursor == "" {
		t.Fatalf("expected 3 entries and a cursor, got %d %q", len(first.Entries), first.NextCursor)
	}

	second, err := svc.Query(ctx, QueryFilters{}, pagination.Params{Limit: 3, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Entries) != 2 || second.NextCursor != "" {
		t.Fatalf("expected final page of 2, got %d %q", len(second.Entries), second.NextCursor)
	}

	seen := map[uuid.UUID]bool{}
	for _, entry := range append(first.Entries, second.Entries...) {
		if seen[entry.ID] {
			t.Fatalf("entry %s appeared twice", entry.ID)
		}
		seen[entry.ID] = true
	}
}

func TestRecentForStock(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	stock, user := seedStockWithUser(t, conn)

	for i := 0; i < 3; i++ {
		record(t, conn, svc, RecordEntryInput{
			StockID: stock.ID, QuantityChange: i + 1, Type: enums.TransactionTypeAdjustment, UserID: user.ID,
		})
	}

	entries, err := svc.RecentForStock(ctx, stock.ID, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if _, err := svc.RecentForStock(ctx, uuid.Nil, 5); err == nil {
		t.Fatal("expected validation error for nil stock id")
	}
}

func TestQuerySubstringFilters(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	stock, user := seedStockWithUser(t, conn)

	group := &models.ItemGroup{ID: uuid.New(), Name: "tools"}
	if err := conn.Create(group).Error; err != nil {
		t.Fatalf("seed group: %v", err)
	}
	spanner := &models.Stock{ID: uuid.New(), GroupID: group.ID, ProductName: "spanner", Quantity: 3}
	if err := conn.Create(spanner).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}

	note := "damaged in transit"
	record(t, conn, svc, RecordEntryInput{
		StockID: stock.ID, QuantityChange: 2, Type: enums.TransactionTypeInbound, UserID: user.ID,
	})
	record(t, conn, svc, RecordEntryInput{
		StockID: spanner.ID, QuantityChange: -1, Type: enums.TransactionTypeAdjustment, Note: &note, UserID: user.ID,
	})

	byProduct, err := svc.Query(ctx, QueryFilters{Product: "SPAN"}, pagination.Params{})
	if err != nil {
		t.Fatalf("query by product: %v", err)
	}
	if len(byProduct.Entries) != 1 || byProduct.Entries[0].ProductName != "spanner" {
		t.Fatalf("expected one spanner entry, got %+v", byProduct.Entries)
	}

	byNote, err := svc.Query(ctx, QueryFilters{Note: "transit"}, pagination.Params{})
	if err != nil {
		t.Fatalf("query by note: %v", err)
	}
	if len(byNote.Entries) != 1 || byNote.Entries[0].StockID != spanner.ID {
		t.Fatalf("expected one note match, got %+v", byNote.Entries)
	}

	none, err := svc.Query(ctx, QueryFilters{Product: "drill"}, pagination.Params{})
	if err != nil {
		t.Fatalf("query no match: %v", err)
	}
	if len(none.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(none.Entries))
	}
}
