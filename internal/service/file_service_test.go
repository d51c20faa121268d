package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"studynotes_backend/internal/util"
	"studynotes_backend/pkg/messaging"
	"testing"
)

func upload(t *testing.T, env *testEnv, userID uint, names ...string) []UploadResult {
	t.Helper()
	uploads := make([]UploadedFile, len(names))
	for i, name := range names {
		uploads[i] = UploadedFile{Filename: name, Data: pngBytes}
	}
	results, err := env.files.Upload(context.Background(), userID, uploads)
	if err != nil {
		t.Fatal(err)
	}
	return results
}

func TestUploadAndOpen(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	results := upload(t, env, alice.ID, "page1.png", "page2.png")
	if len(results) != 2 || results[0].Filename != "page1.png" {
		t.Fatalf("results = %+v", results)
	}
	if env.publisher.count(messaging.EventFileUploaded) != 2 {
		t.Fatal("expected one file.uploaded event per file")
	}

	file, body, err := env.files.Open(context.Background(), results[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if !bytes.Equal(data, pngBytes) {
		t.Fatal("stored content differs")
	}
	if file.ContentType != "image/png" || file.UserID != alice.ID {
		t.Fatalf("file = %+v", file)
	}
}

func TestUploadRejectsNonImages(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")

	_, err := env.files.Upload(context.Background(), alice.ID, []UploadedFile{
		{Filename: "ok.png", Data: pngBytes},
		{Filename: "notes.txt", Data: []byte("plain text")},
	})
	if !errors.Is(err, util.ErrInvalidFileType) {
		t.Fatalf("err = %v", err)
	}

	var count int64
	env.db.Table("files").Count(&count)
	if count != 0 {
		t.Fatalf("%d files stored after rejected upload", count)
	}
}

func TestUpdateFileAndOCRText(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	results := upload(t, env, alice.ID, "a.png", "b.png")

	ocr := "first page"
	if _, err := env.files.Update(results[0].ID, bob.ID, UpdateFileInput{OCR: &ocr}); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("update by other user err = %v", err)
	}

	if _, err := env.files.OCRText(alice.ID, []uint{results[0].ID, results[1].ID}); !errors.Is(err, util.ErrNoOCRText) {
		t.Fatalf("no ocr err = %v", err)
	}

	if _, err := env.files.Update(results[0].ID, alice.ID, UpdateFileInput{OCR: &ocr}); err != nil {
		t.Fatal(err)
	}
	second := "second page"
	name := "renamed.png"
	updated, err := env.files.Update(results[1].ID, alice.ID, UpdateFileInput{OCR: &second, Filename: &name})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Filename != name {
		t.Fatalf("filename = %q", updated.Filename)
	}

	text, err := env.files.OCRText(alice.ID, []uint{results[1].ID, results[0].ID})
	if err != nil {
		t.Fatal(err)
	}
	if text != "second page\n\nfirst page" {
		t.Fatalf("text = %q", text)
	}

	if _, err := env.files.OCRText(bob.ID, []uint{results[0].ID}); !errors.Is(err, util.ErrFileNotFound) {
		t.Fatalf("foreign file err = %v", err)
	}
}

func TestNoteWithFiles(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	mine := upload(t, env, alice.ID, "a.png")
	theirs := upload(t, env, bob.ID, "b.png")

	_, err := env.notes.Create(context.Background(), alice.ID, CreateNoteInput{Title: "t", FileIDs: []uint{theirs[0].ID}})
	if !errors.Is(err, util.ErrFileNotFound) {
		t.Fatalf("foreign file err = %v", err)
	}

	n, err := env.notes.Create(context.Background(), alice.ID, CreateNoteInput{Title: "t", FileIDs: []uint{mine[0].ID, mine[0].ID}})
	if err != nil {
		t.Fatal(err)
	}
	if len(n.FileIDs) != 1 || n.FileIDs[0] != mine[0].ID {
		t.Fatalf("fileIds = %v", n.FileIDs)
	}

	empty := env.note(t, alice.ID, "empty", false)
	if empty.FileIDs == nil {
		t.Fatal("fileIds should be an empty list, not nil")
	}
}
