package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/zaikoworks/zaiko-backend/pkg/config"
	"github.com/zaikoworks/zaiko-backend/pkg/db/models"
	"github.com/zaikoworks/zaiko-backend/pkg/enums"
	pkgerrors "github.com/zaikoworks/zaiko-backend/pkg/errors"
	"github.com/zaikoworks/zaiko-backend/pkg/security"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(conn), testPasswordConfig())
	if err != nil {
		t.Fatalf("user service: %v", err)
	}
	return svc, conn
}

func TestCreateHashesPassword(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, CreateUserInput{
		Email:      "Staff@Example.com",
		Username:   "staffer",
		Password:   "correct horse",
		SystemRole: enums.SystemRoleStaff,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Email != "staff@example.com" {
		t.Fatalf("expected lowercased email, got %q", dto.Email)
	}
	if !dto.IsActive {
		t.Fatal("expected new account to be active")
	}

	var row models.User
	if err := conn.First(&row, "id = ?", dto.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if row.PasswordHash == "correct horse" {
		t.Fatal("password stored in plain text")
	}
	ok, err := security.VerifyPassword("correct horse", row.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []CreateUserInput{
		{Email: "", Username: "x", Password: "long enough", SystemRole: enums.SystemRoleStaff},
		{Email: "a@b.com", Username: "", Password: "long enough", SystemRole: enums.SystemRoleStaff},
		{Email: "a@b.com", Username: "x", Password: "short", SystemRole: enums.SystemRoleStaff},
		{Email: "a@b.com", Username: "x", Password: "long enough", SystemRole: enums.SystemRole("owner")},
	}
	for _, input := range cases {
		_, err := svc.Create(ctx, input)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	input := CreateUserInput{
		Email:      "dup@example.com",
		Username:   "first",
		Password:   "long enough",
		SystemRole: enums.SystemRoleStaff,
	}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("create: %v", err)
	}

	input.Username = "second"
	_, err := svc.Create(ctx, input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdatePatchesFields(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	dto, err := svc.Create(ctx, CreateUserInput{
		Email:      "user@example.com",
		Username:   "before",
		Password:   "long enough",
		SystemRole: enums.SystemRoleStaff,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	username := "after"
	role := enums.SystemRoleAdmin
	inactive := false
	updated, err := svc.Update(ctx, dto.ID, UpdateUserInput{
		Username:   &username,
		SystemRole: &role,
		IsActive:   &inactive,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Username != "after" || updated.SystemRole != enums.SystemRoleAdmin || updated.IsActive {
		t.Fatalf("unexpected updated user: %+v", updated)
	}

	if _, err := svc.Update(ctx, dto.ID, UpdateUserInput{}); err == nil {
		t.Fatal("expected error for empty update")
	}

	badRole := enums.SystemRole("owner")
	_, err = svc.Update(ctx, dto.ID, UpdateUserInput{SystemRole: &badRole})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = svc.Update(ctx, uuid.New(), UpdateUserInput{Username: &username})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListSorting(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		if _, err := svc.Create(ctx, CreateUserInput{
			Email:      name + "@example.com",
			Username:   name,
			Password:   "long enough",
			SystemRole: enums.SystemRoleStaff,
		}); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	listed, err := svc.List(ctx, SortUsernameAsc)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 users, got %d", len(listed))
	}
	want := []string{"alice", "bob", "carol"}
	for i, dto := range listed {
		if dto.Username != want[i] {
			t.Fatalf("expected %q at %d, got %q", want[i], i, dto.Username)
		}
	}
}

func TestDeleteForbidsSelfDeletion(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	admin, err := svc.Create(ctx, CreateUserInput{
		Email:      "admin@example.com",
		Username:   "admin",
		Password:   "long enough",
		SystemRole: enums.SystemRoleAdmin,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	staff, err := svc.Create(ctx, CreateUserInput{
		Email:      "staff@example.com",
		Username:   "staff",
		Password:   "long enough",
		SystemRole: enums.SystemRoleStaff,
	})
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}

	err = svc.Delete(ctx, admin.ID, admin.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for self-deletion, got %v", err)
	}

	if err := svc.Delete(ctx, admin.ID, staff.ID); err != nil {
		t.Fatalf("delete staff: %v", err)
	}

	var count int64
	if err := conn.Model(&models.User{}).Where("id = ?", staff.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected staff row removed, found %d", count)
	}

	err = svc.Delete(ctx, admin.ID, staff.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on repeat delete, got %v", err)
	}
}
