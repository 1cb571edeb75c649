package main

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/zaiko-app/zaiko/internal/db"
	"github.com/zaiko-app/zaiko/internal/model"
	"github.com/zaiko-app/zaiko/internal/store"
)

func TestBootstrapAdmin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	password, err := bootstrapAdmin(ctx, database, "owner")
	if err != nil {
		t.Fatalf("bootstrapAdmin: %v", err)
	}
	if len(password) != 16 {
		t.Fatalf("password length = %d, want 16", len(password))
	}

	u, err := store.GetUserByUsername(ctx, database, "owner")
	if err != nil || u == nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != model.RoleAdmin {
		t.Errorf("role = %s, want admin", u.Role)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		t.Error("stored hash does not match the printed password")
	}

	again, err := bootstrapAdmin(ctx, database, "someone-else")
	if err != nil {
		t.Fatalf("second bootstrapAdmin: %v", err)
	}
	if again != "" {
		t.Error("second bootstrap created another admin")
	}
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(24)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generatePassword(24)
	if len(a) != 24 || a == b {
		t.Errorf("passwords %q and %q", a, b)
	}
	if err := model.ValidatePassword(a); err != nil {
		t.Errorf("generated password rejected: %v", err)
	}
}
