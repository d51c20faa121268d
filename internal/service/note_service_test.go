package service

import (
	"context"
	"errors"
	"studynotes_backend/internal/model"
	"studynotes_backend/internal/util"
	"studynotes_backend/pkg/messaging"
	"testing"
)

func TestNoteVisibility(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	private := env.note(t, alice.ID, "secret", false)
	public := env.note(t, alice.ID, "shared", true)

	if _, err := env.notes.Get(private.ID, bob.ID); !errors.Is(err, util.ErrNoteNotFound) {
		t.Fatalf("private note visible to other user: %v", err)
	}
	if _, err := env.notes.Get(private.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.notes.Get(public.ID, bob.ID); err != nil {
		t.Fatal(err)
	}

	title := "hijack"
	if _, err := env.notes.Update(public.ID, bob.ID, UpdateNoteInput{Title: &title}); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("update by other user err = %v", err)
	}
	if err := env.notes.Delete(public.ID, bob.ID); !errors.Is(err, util.ErrPermissionDenied) {
		t.Fatalf("delete by other user err = %v", err)
	}
	if env.publisher.count(messaging.EventNoteCreated) != 2 {
		t.Fatal("expected a note.created event per note")
	}
}

func TestNoteUpdatePartial(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	n := env.note(t, alice.ID, "draft", false)

	public := true
	updated, err := env.notes.Update(n.ID, alice.ID, UpdateNoteInput{Public: &public})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "draft" || updated.Content != "draft body" || !updated.Public {
		t.Fatalf("updated = %+v", updated)
	}
}

func TestVoteSemantics(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")
	n := env.note(t, alice.ID, "shared", true)

	steps := []struct {
		user      uint
		value     int
		wantScore int
		wantVote  int
	}{
		{bob.ID, 1, 1, 1},
		{bob.ID, 1, 1, 1},
		{carol.ID, -1, 0, -1},
		{bob.ID, -1, -2, -1},
		{bob.ID, 0, -1, 0},
	}
	for i, s := range steps {
		resp, err := env.notes.Vote(n.ID, s.user, s.value)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if resp.Score != s.wantScore || resp.UserVote != s.wantVote {
			t.Fatalf("step %d: score=%d vote=%d, want %d %d", i, resp.Score, resp.UserVote, s.wantScore, s.wantVote)
		}
	}

	if _, err := env.notes.Vote(n.ID, bob.ID, 2); !errors.Is(err, util.ErrInvalidVote) {
		t.Fatalf("invalid vote err = %v", err)
	}
}

func TestBookmarkToggle(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	n := env.note(t, alice.ID, "shared", true)

	on, err := env.notes.ToggleBookmark(n.ID, bob.ID)
	if err != nil || !on {
		t.Fatalf("first toggle = %v, %v", on, err)
	}

	list, err := env.notes.ListBookmarked(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != n.ID || !list[0].UserBookmark || list[0].Saves != 1 {
		t.Fatalf("bookmarks = %+v", list)
	}

	off, err := env.notes.ToggleBookmark(n.ID, bob.ID)
	if err != nil || off {
		t.Fatalf("second toggle = %v, %v", off, err)
	}
	list, _ = env.notes.ListBookmarked(bob.ID)
	if len(list) != 0 {
		t.Fatalf("bookmarks after untoggle = %+v", list)
	}
}

func TestFeedOrderingAndCounter(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")

	start := env.feed.Value()
	env.note(t, alice.ID, "private", false)
	if env.feed.Changed(start) {
		t.Fatal("private note should not change the feed")
	}

	first := env.note(t, alice.ID, "first", true)
	second := env.note(t, bob.ID, "second", true)
	if !env.feed.Changed(start) {
		t.Fatal("public notes should change the feed")
	}

	feed, err := env.notes.ListFeed(bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(feed) != 2 || feed[0].ID != second.ID || feed[1].ID != first.ID {
		t.Fatalf("feed order = %+v", feed)
	}

	before := env.feed.Value()
	if _, err := env.notes.Vote(first.ID, bob.ID, 1); err != nil {
		t.Fatal(err)
	}
	if env.feed.Value() != before+1 {
		t.Fatal("vote should bump the feed counter")
	}
}

func TestDeleteNoteRemovesRelations(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	n := env.note(t, alice.ID, "shared", true)

	env.notes.Vote(n.ID, bob.ID, 1)
	env.notes.ToggleBookmark(n.ID, bob.ID)
	env.ai.reply = `{"questions":[{"title":"q","answers":["a","b"],"correct":0}]}`
	if _, err := env.content.CreateQuiz(context.Background(), n.ID, alice.ID); err != nil {
		t.Fatal(err)
	}

	if err := env.notes.Delete(n.ID, alice.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.notes.Get(n.ID, alice.ID); !errors.Is(err, util.ErrNoteNotFound) {
		t.Fatalf("deleted note err = %v", err)
	}

	var votes, bookmarks, quizzes int64
	env.db.Table("votes").Count(&votes)
	env.db.Table("bookmarks").Count(&bookmarks)
	env.db.Table("quizzes").Count(&quizzes)
	if votes != 0 || bookmarks != 0 || quizzes != 0 {
		t.Fatalf("leftover rows: votes=%d bookmarks=%d quizzes=%d", votes, bookmarks, quizzes)
	}
}

func TestListPublicByUser(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	env.note(t, alice.ID, "private", false)
	pub := env.note(t, alice.ID, "public", true)

	list, err := env.notes.ListPublicByUser(alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != pub.ID {
		t.Fatalf("list = %+v", list)
	}

	own, _ := env.notes.ListOwn(alice.ID)
	if len(own) != 2 {
		t.Fatalf("own notes = %d", len(own))
	}
}

func TestCreateNoteRollsBackWhenAttachFails(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	files := upload(t, env, alice.ID, "page.png")

	if err := env.db.Migrator().DropTable(&model.NoteFile{}); err != nil {
		t.Fatal(err)
	}

	_, err := env.notes.Create(context.Background(), alice.ID, CreateNoteInput{
		Title:   "with files",
		Content: "body",
		Public:  true,
		FileIDs: []uint{files[0].ID},
	})
	if err == nil {
		t.Fatal("expected create to fail without the note_files table")
	}

	var notes int64
	env.db.Model(&model.Note{}).Count(&notes)
	if notes != 0 {
		t.Fatalf("half-written note left behind: %d rows", notes)
	}
	if env.feed.Value() != 0 {
		t.Fatalf("feed bumped for failed create: %d", env.feed.Value())
	}
}

func TestDeleteNoteFailsWholeWhenLookupFails(t *testing.T) {
	env := newTestEnv(t)
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	n := env.note(t, alice.ID, "shared", true)
	env.notes.Vote(n.ID, bob.ID, 1)

	if err := env.db.Migrator().DropTable(&model.FlashcardDeck{}); err != nil {
		t.Fatal(err)
	}

	if err := env.notes.Delete(n.ID, alice.ID); err == nil {
		t.Fatal("expected delete to fail when decks cannot be read")
	}
	if _, err := env.notes.Get(n.ID, alice.ID); err != nil {
		t.Fatalf("note should survive a failed delete: %v", err)
	}
	var votes int64
	env.db.Model(&model.Vote{}).Count(&votes)
	if votes != 1 {
		t.Fatalf("votes = %d, want rollback to keep 1", votes)
	}
}
