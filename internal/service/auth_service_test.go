package service

import (
	"errors"
	"studynotes_backend/internal/model"
	"studynotes_backend/internal/util"
	"testing"
	"time"
)

func TestRegisterRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "alice")

	if _, err := env.auth.Register("alice", "other@example.com", "pw"); !errors.Is(err, util.ErrUsernameTaken) {
		t.Fatalf("duplicate username err = %v", err)
	}
	if _, err := env.auth.Register("bob", "alice@example.com", "pw"); !errors.Is(err, util.ErrEmailRegistered) {
		t.Fatalf("duplicate email err = %v", err)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")
	if u.Password == "password" || u.Password == "" {
		t.Fatalf("password stored in clear: %q", u.Password)
	}
}

func TestLoginAuthenticateLogout(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")

	if _, err := env.auth.Login("alice", "wrong"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("bad password err = %v", err)
	}
	if _, err := env.auth.Login("nobody", "password"); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Fatalf("unknown user err = %v", err)
	}

	token, err := env.auth.Login("alice", "password")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := env.auth.Authenticate(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != u.ID || claims.Username != "alice" {
		t.Fatalf("claims = %+v", claims)
	}

	if err := env.auth.Logout(token); err != nil {
		t.Fatal(err)
	}
	if _, err := env.auth.Authenticate(token); !errors.Is(err, util.ErrInvalidToken) {
		t.Fatalf("revoked token err = %v", err)
	}
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")

	// 签名正确但从未登记的令牌
	token, _, err := util.GenerateJWT(u.ID, u.Username, "test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.auth.Authenticate(token); !errors.Is(err, util.ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
	if _, err := env.auth.Authenticate("garbage"); !errors.Is(err, util.ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestSweepExpiredTokens(t *testing.T) {
	env := newTestEnv(t)
	u := env.user(t, "alice")

	expired := &model.Token{UserID: u.ID, TokenHash: util.HashToken("old"), ExpiresAt: time.Now().Add(-time.Minute)}
	if err := env.auth.TokenRepo.Create(expired); err != nil {
		t.Fatal(err)
	}
	if _, err := env.auth.Login("alice", "password"); err != nil {
		t.Fatal(err)
	}

	n, err := env.auth.SweepExpiredTokens()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("removed %d tokens, want 1", n)
	}
}
