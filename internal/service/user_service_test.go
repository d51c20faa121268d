package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"studynotes_backend/internal/util"
	"testing"
)

func TestProfileHidesEmail(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	me, err := env.users.Me(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if me.Email != "alice@example.com" {
		t.Fatalf("me.Email = %q", me.Email)
	}

	profile, err := env.users.Profile(alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if profile.Email != "" || profile.Username != "alice" {
		t.Fatalf("profile = %+v", profile)
	}

	if _, err := env.users.Profile(9999); !errors.Is(err, util.ErrUserNotFound) {
		t.Fatalf("missing user err = %v", err)
	}
}

func TestAvatar(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	if _, err := env.users.Avatar(ctx, alice.ID); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("unset avatar err = %v", err)
	}
	if err := env.users.SetAvatar(ctx, alice.ID, bob.ID, pngBytes); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("foreign avatar err = %v", err)
	}
	if err := env.users.SetAvatar(ctx, alice.ID, alice.ID, []byte("not an image")); !errors.Is(err, util.ErrInvalidFileType) {
		t.Fatalf("non-image err = %v", err)
	}
	big := make([]byte, util.MaxAvatarBytes+1)
	if err := env.users.SetAvatar(ctx, alice.ID, alice.ID, big); !errors.Is(err, util.ErrFileTooLarge) {
		t.Fatalf("oversized err = %v", err)
	}

	if err := env.users.SetAvatar(ctx, alice.ID, alice.ID, pngBytes); err != nil {
		t.Fatal(err)
	}
	// 再次上传会替换旧头像
	if err := env.users.SetAvatar(ctx, alice.ID, alice.ID, pngBytes); err != nil {
		t.Fatal(err)
	}

	body, err := env.users.Avatar(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if !bytes.Equal(data, pngBytes) {
		t.Fatal("avatar content differs")
	}

	me, _ := env.users.Me(alice.ID)
	if !me.HasProfilePicture {
		t.Fatal("hasProfilePicture should be true")
	}
}
