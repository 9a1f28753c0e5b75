package database

import (
	"errors"
	"testing"

	"allowcast/internal/domain"

	"gorm.io/gorm"
)

func TestCreateUser_FirstUserBecomesAdmin(t *testing.T) {
	setupRecordTestDB(t)

	first := domain.User{Email: "first@example.com", Password: "hashed-password"}
	if err := CreateUser(&first); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if first.Role != "admin" {
		t.Fatalf("first user role = %s, want admin", first.Role)
	}

	second := domain.User{Email: "second@example.com", Password: "hashed-password"}
	if err := CreateUser(&second); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if second.Role != "user" {
		t.Fatalf("second user role = %s, want user", second.Role)
	}
}

func TestGetUserByEmail(t *testing.T) {
	setupRecordTestDB(t)

	user := domain.User{Email: "lookup@example.com", Password: "hashed-password"}
	if err := CreateUser(&user); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	got, err := GetUserByEmail("lookup@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail returned error: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("GetUserByEmail returned user %d, want %d", got.ID, user.ID)
	}

	if _, err := GetUserByEmail("missing@example.com"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("GetUserByEmail for missing user = %v, want record not found", err)
	}
}

func TestUpdateUserPassword(t *testing.T) {
	setupRecordTestDB(t)

	user := domain.User{Email: "change@example.com", Password: "old-hash"}
	if err := CreateUser(&user); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if err := UpdateUserPassword(user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdateUserPassword returned error: %v", err)
	}

	got := GetUserFromId(user.ID)
	if got.Password != "new-hash" {
		t.Fatal("password was not updated")
	}

	if err := UpdateUserPassword(9999, "new-hash"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("UpdateUserPassword for missing user = %v, want record not found", err)
	}
}
