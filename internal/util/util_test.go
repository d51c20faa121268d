package util

import (
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.png":         "photo.png",
		"../../etc/passwd":  "passwd",
		`C:\Users\me\a.jpg`: "a.jpg",
		"":                  "image",
		"..":                "image",
		"bad:name?.png":     "bad_name_.png",
		"tab\tname.jpg":     "tabname.jpg",
		"  spaced  ":        "spaced",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if mime, err := DetectImage(png); err != nil || mime != "image/png" {
		t.Fatalf("png: mime=%q err=%v", mime, err)
	}
	if _, err := DetectImage([]byte("plain text, not an image")); err == nil {
		t.Fatal("text accepted as image")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, exp, err := GenerateJWT(7, "alice", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry in the past")
	}

	claims, err := ParseJWT(token, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 7 || claims.Username != "alice" || claims.ID == "" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := ParseJWT(token, "other"); err == nil {
		t.Fatal("token accepted with wrong secret")
	}
}

func TestJWTExpired(t *testing.T) {
	token, _, err := GenerateJWT(1, "bob", "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT(token, "secret"); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestHashTokenStable(t *testing.T) {
	if HashToken("abc") != HashToken("abc") || len(HashToken("abc")) != 64 {
		t.Fatal("hash not stable hex sha256")
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("collision")
	}
}

func TestParseID(t *testing.T) {
	if id, ok := ParseID("42"); !ok || id != 42 {
		t.Fatalf("ParseID(42) = %d %v", id, ok)
	}
	for _, bad := range []string{"", "0", "-1", "abc"} {
		if _, ok := ParseID(bad); ok {
			t.Errorf("ParseID(%q) accepted", bad)
		}
	}
}

func TestContentDisposition(t *testing.T) {
	if got := ContentDisposition("attachment", "flashcards-3.xlsx"); got != "attachment; filename=flashcards-3.xlsx" {
		t.Fatalf("got %q", got)
	}
	if got := ContentDisposition("inline", "my page.png"); got != `inline; filename="my page.png"` {
		t.Fatalf("got %q", got)
	}
}
