package app_test

import (
	"context"
	"errors"
	"testing"

	"quizmaster-service/internal/app"
	"quizmaster-service/internal/domain"
	"quizmaster-service/internal/infra/memory"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := app.NewUserService(memory.NewStore())

	user, err := svc.Register(ctx, domain.User{Username: "bob@example.com", FullName: "Bob"}, "s3cret")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected registered account to be a regular user, got %s", user.Role)
	}
	if user.Password == "s3cret" {
		t.Fatalf("password stored in plain text")
	}

	if _, err := svc.Register(ctx, domain.User{Username: "bob@example.com"}, "other"); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	authed, err := svc.Authenticate(ctx, "bob@example.com", "s3cret")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("authenticated wrong account: %d vs %d", authed.ID, user.ID)
	}

	if _, err := svc.Authenticate(ctx, "bob@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.com", "s3cret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestUpdateProfileChecksUsername(t *testing.T) {
	ctx := context.Background()
	svc := app.NewUserService(memory.NewStore())

	bob, err := svc.Register(ctx, domain.User{Username: "bob@example.com", FullName: "Bob"}, "pw")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(ctx, domain.User{Username: "carol@example.com", FullName: "Carol"}, "pw"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	bob.Username = "carol@example.com"
	if err := svc.UpdateProfile(ctx, bob); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	bob.Username = "robert@example.com"
	bob.Qualification = "BSc"
	if err := svc.UpdateProfile(ctx, bob); err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	updated, err := svc.GetUser(ctx, bob.ID)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if updated.Username != "robert@example.com" || updated.Qualification != "BSc" {
		t.Fatalf("profile not updated: %+v", updated)
	}
	if updated.Role != domain.RoleUser {
		t.Fatalf("profile update changed role: %s", updated.Role)
	}
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := app.NewUserService(store)

	if err := svc.EnsureAdmin(ctx, "admin@example.com", "admin"); err != nil {
		t.Fatalf("ensure admin failed: %v", err)
	}
	if err := svc.EnsureAdmin(ctx, "admin@example.com", "admin"); err != nil {
		t.Fatalf("second ensure admin failed: %v", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected one admin account, got %d", len(users))
	}
	if users[0].Role != domain.RoleAdmin {
		t.Fatalf("seeded account is not admin: %s", users[0].Role)
	}

	admin, err := svc.Authenticate(ctx, "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}
}
