package store

import (
	"context"
	"testing"

	"github.com/zaiko-app/zaiko/internal/db"
	"github.com/zaiko-app/zaiko/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "hash123", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Role != model.RoleUser {
		t.Errorf("expected role 'user', got %q", user.Role)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", got.Username)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleAdmin)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestDeleteUserFreesUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleUser)
	ok, err := DeleteUser(ctx, database, user.ID)
	if err != nil || !ok {
		t.Fatalf("DeleteUser: %v, %v", ok, err)
	}

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}
	if n, _ := CountUsers(ctx, database); n != 0 {
		t.Errorf("expected count 0, got %d", n)
	}

	if got, _ := GetUserByUsername(ctx, database, "deleteme"); got != nil {
		t.Error("expected deleted user to be hidden from username lookup")
	}

	// The partial unique index allows reuse of a deleted username.
	if _, err := CreateUser(ctx, database, "deleteme", "hash", model.RoleUser); err != nil {
		t.Errorf("expected username reuse after delete, got %v", err)
	}
}

func TestDuplicateUsernameRejected(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	if _, err := CreateUser(ctx, database, "alice", "hash", model.RoleUser); err == nil {
		t.Error("expected duplicate username to fail")
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleUser)
	ok, err := UpdateUserPassword(ctx, database, user.ID, "newhash")
	if err != nil || !ok {
		t.Fatalf("UpdateUserPassword: %v, %v", ok, err)
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}

	ok, _ = UpdateUserPassword(ctx, database, 999, "x")
	if ok {
		t.Error("expected update of missing user to match nothing")
	}
}
