package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yeisme/notesphere/pkg/internal/apperr"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/types"
)

func registerRequest(email string) types.RegisterRequest {
	return types.RegisterRequest{
		Name:        "Ama Owusu",
		Email:       email,
		Password:    "secret123",
		Institution: "University of Ghana",
		Level:       "Level 300",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewAuthServiceWith(e.deps())

	resp, err := svc.Register(ctx, registerRequest(" Ama@Example.edu "))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if resp.Email != "ama@example.edu" || resp.Role != model.RoleStudent || resp.Token == "" {
		t.Fatalf("register response = %+v", resp)
	}

	if _, err := svc.Register(ctx, registerRequest("AMA@example.edu")); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("duplicate register err = %v", err)
	}

	login, err := svc.Login(ctx, types.LoginRequest{Email: "ama@example.edu", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	u, err := svc.Resolve(ctx, login.Token)
	if err != nil || u.ID != resp.ID {
		t.Fatalf("resolve = %+v, err = %v", u, err)
	}

	_, err = svc.Login(ctx, types.LoginRequest{Email: "ama@example.edu", Password: "wrong-pass"})
	if !errors.Is(err, apperr.ErrUnauthenticated) || apperr.MessageOf(err) != service.MsgInvalidCredentials {
		t.Fatalf("wrong password err = %v", err)
	}

	_, err = svc.Login(ctx, types.LoginRequest{Email: "nobody@example.edu", Password: "secret123"})
	if apperr.MessageOf(err) != service.MsgInvalidCredentials {
		t.Fatalf("unknown email err = %v", err)
	}

	if _, err := svc.Resolve(ctx, "not-a-token"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("bad token err = %v", err)
	}
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewAuthServiceWith(e.deps())

	resp, err := svc.Register(ctx, registerRequest("kofi@example.edu"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := e.db.Model(&model.User{}).Where("id = ?", resp.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	_, err = svc.Login(ctx, types.LoginRequest{Email: "kofi@example.edu", Password: "secret123"})
	if apperr.MessageOf(err) != service.MsgAccountDeactivated {
		t.Fatalf("login err = %v", err)
	}

	if _, err := svc.Resolve(ctx, resp.Token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("resolve deactivated err = %v", err)
	}
}

func TestLogin_ResetsExpiredWindow(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewAuthServiceWith(e.deps())

	resp, err := svc.Register(ctx, registerRequest("esi@example.edu"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := e.db.Model(&model.User{}).Where("id = ?", resp.ID).Update("weekly_downloads", 3).Error; err != nil {
		t.Fatalf("set downloads: %v", err)
	}

	e.clock.Advance(8 * 24 * time.Hour)

	if _, err := svc.Login(ctx, types.LoginRequest{Email: "esi@example.edu", Password: "secret123"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	got := reload(t, e.db, &model.User{ID: resp.ID})
	if got.WeeklyDownloads != 0 || !got.LastDownloadReset.Equal(e.clock.Now()) {
		t.Fatalf("after login downloads = %d reset = %v", got.WeeklyDownloads, got.LastDownloadReset)
	}
}

func TestMeAndUpdateProfile(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	svc := service.NewAuthServiceWith(e.deps())

	u := e.user(t, func(u *model.User) { u.WeeklyDownloads = 1 })
	e.storedNote(t, u)
	e.storedNote(t, u)

	me, err := svc.Me(ctx, u)
	if err != nil {
		t.Fatalf("me: %v", err)
	}

	if len(me.Notes) != 2 || me.RemainingDownloads != 2 {
		t.Fatalf("me = notes %d remaining %d", len(me.Notes), me.RemainingDownloads)
	}

	if !me.NextReset.Equal(baseTime.Add(e.cfg.Quota.GetWindow())) {
		t.Fatalf("next reset = %v", me.NextReset)
	}

	name, blank, bio := "Yaw Boateng", "  ", "Final year"
	updated, err := svc.UpdateProfile(ctx, u, types.UpdateProfileRequest{Name: &name, Level: &blank, Bio: &bio})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Name != name || updated.Level != "Level 200" || updated.Bio != bio {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := svc.Me(ctx, nil); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("nil user err = %v", err)
	}
}
