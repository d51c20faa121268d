package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"studynotes_backend/internal/config"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s := NewStorageService(&config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	ctx := context.Background()

	key := NewKey("files/1", "Page.PNG")
	if !strings.HasPrefix(key, "files/1/") || !strings.HasSuffix(key, ".png") {
		t.Fatalf("key = %q", key)
	}

	if err := s.Put(ctx, key, strings.NewReader("data"), 4, "image/png"); err != nil {
		t.Fatal(err)
	}
	body, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(body)
	body.Close()
	if string(data) != "data" {
		t.Fatalf("data = %q", data)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("after delete err = %v", err)
	}
	// 重复删除不报错
	if err := s.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	p := &LocalStorageProvider{Root: t.TempDir()}
	for _, key := range []string{"../escape", "files/../../etc/passwd", ""} {
		if err := p.Put(context.Background(), key, strings.NewReader("x"), 1, "text/plain"); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestUnknownStorageFallsBackToLocal(t *testing.T) {
	s := NewStorageService(&config.StorageConfig{Type: "ftp", LocalPath: t.TempDir()})
	if _, ok := s.Provider.(*LocalStorageProvider); !ok {
		t.Fatalf("provider = %T", s.Provider)
	}
}
