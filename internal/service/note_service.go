package service

import (
	"context"
	"errors"
	"fmt"
	"studynotes_backend/internal/model"
	"studynotes_backend/internal/repository"
	"studynotes_backend/internal/session"
	"studynotes_backend/internal/util"
	"studynotes_backend/pkg/logger"
	"studynotes_backend/pkg/messaging"
	"studynotes_backend/pkg/monitoring"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NoteResponse 笔记对外表示，附带聚合数据
// swagger:model NoteResponse
type NoteResponse struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Public       bool      `json:"public"`
	Saves        int       `json:"saves"`
	Score        int       `json:"score"`
	UserVote     int       `json:"userVote"`
	UserBookmark bool      `json:"userBookmark"`
	FileIDs      []uint    `json:"fileIds"`
}

type CreateNoteInput struct {
	Title   string
	Content string
	Public  bool
	FileIDs []uint
}

// UpdateNoteInput nil 字段保持不变
type UpdateNoteInput struct {
	Title   *string
	Content *string
	Public  *bool
}

type NoteService struct {
	NoteRepo  *repository.NoteRepository
	FileRepo  *repository.FileRepository
	Feed      *session.Counter
	Publisher messaging.Publisher
}

func NewNoteService(noteRepo *repository.NoteRepository, fileRepo *repository.FileRepository, feed *session.Counter, publisher messaging.Publisher) *NoteService {
	return &NoteService{
		NoteRepo:  noteRepo,
		FileRepo:  fileRepo,
		Feed:      feed,
		Publisher: publisher,
	}
}

func (s *NoteService) bumpFeed() {
	v := s.Feed.ForceUpdate()
	monitoring.FeedVersion.Set(float64(v))
}

func (s *NoteService) Create(ctx context.Context, userID uint, in CreateNoteInput) (*NoteResponse, error) {
	fileIDs, err := s.ownedFileIDs(userID, in.FileIDs)
	if err != nil {
		return nil, err
	}

	note := &model.Note{
		OwnedModel: model.OwnedModel{UserID: userID},
		Title:      in.Title,
		Content:    in.Content,
		Public:     in.Public,
	}
	if err := s.NoteRepo.Create(note, fileIDs); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	if note.Public {
		s.bumpFeed()
	}

	if err := s.Publisher.Publish(ctx, messaging.NewEvent(messaging.EventNoteCreated, map[string]interface{}{
		"noteId": note.ID,
		"userId": userID,
		"public": note.Public,
	})); err != nil {
		logger.Log.Warn("Failed to publish note event", zap.Uint("noteID", note.ID), zap.Error(err))
	}

	return s.render(note, userID)
}

func (s *NoteService) find(noteID uint) (*model.Note, error) {
	note, err := s.NoteRepo.FindByID(noteID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrNoteNotFound
	}
	return note, err
}

// FindVisible 非公开笔记对其他用户表现为不存在
func (s *NoteService) FindVisible(noteID, userID uint) (*model.Note, error) {
	note, err := s.find(noteID)
	if err != nil {
		return nil, err
	}
	if !note.VisibleTo(userID) {
		return nil, util.ErrNoteNotFound
	}
	return note, nil
}

// FindOwned 可见但非本人时返回 ErrPermissionDenied
func (s *NoteService) FindOwned(noteID, userID uint) (*model.Note, error) {
	note, err := s.FindVisible(noteID, userID)
	if err != nil {
		return nil, err
	}
	if !note.OwnedBy(userID) {
		return nil, util.ErrPermissionDenied
	}
	return note, nil
}

func (s *NoteService) Get(noteID, userID uint) (*NoteResponse, error) {
	note, err := s.FindVisible(noteID, userID)
	if err != nil {
		return nil, err
	}
	return s.render(note, userID)
}

func (s *NoteService) Update(noteID, userID uint, in UpdateNoteInput) (*NoteResponse, error) {
	note, err := s.FindOwned(noteID, userID)
	if err != nil {
		return nil, err
	}

	wasPublic := note.Public
	if in.Title != nil {
		note.Title = *in.Title
	}
	if in.Content != nil {
		note.Content = *in.Content
	}
	if in.Public != nil {
		note.Public = *in.Public
	}

	if err := s.NoteRepo.Update(note); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	if wasPublic || note.Public {
		s.bumpFeed()
	}
	return s.render(note, userID)
}

func (s *NoteService) Delete(noteID, userID uint) error {
	note, err := s.FindOwned(noteID, userID)
	if err != nil {
		return err
	}
	if err := s.NoteRepo.Delete(note.ID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if note.Public {
		s.bumpFeed()
	}
	return nil
}

func (s *NoteService) Vote(noteID, userID uint, value int) (*NoteResponse, error) {
	if value < util.VoteDown || value > util.VoteUp {
		return nil, util.ErrInvalidVote
	}
	note, err := s.FindVisible(noteID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.NoteRepo.SetVote(userID, note.ID, value); err != nil {
		return nil, fmt.Errorf("vote: %w", err)
	}
	if note.Public {
		s.bumpFeed()
	}
	return s.render(note, userID)
}

func (s *NoteService) ToggleBookmark(noteID, userID uint) (bool, error) {
	note, err := s.FindVisible(noteID, userID)
	if err != nil {
		return false, err
	}
	bookmarked, err := s.NoteRepo.ToggleBookmark(userID, note.ID)
	if err != nil {
		return false, fmt.Errorf("toggle bookmark: %w", err)
	}
	if note.Public {
		s.bumpFeed()
	}
	return bookmarked, nil
}

// AttachFiles 只关联调用者自己的文件
func (s *NoteService) AttachFiles(noteID, userID uint, fileIDs []uint) (*NoteResponse, error) {
	note, err := s.FindOwned(noteID, userID)
	if err != nil {
		return nil, err
	}
	ids, err := s.ownedFileIDs(userID, fileIDs)
	if err != nil {
		return nil, err
	}
	if err := s.NoteRepo.AttachFiles(note.ID, ids); err != nil {
		return nil, fmt.Errorf("attach files: %w", err)
	}
	if note.Public {
		s.bumpFeed()
	}
	return s.render(note, userID)
}

// ownedFileIDs 任一文件不存在或不属于 userID 时返回 ErrFileNotFound
func (s *NoteService) ownedFileIDs(userID uint, fileIDs []uint) ([]uint, error) {
	fileIDs = dedupe(fileIDs)
	files, err := s.FileRepo.FindOwned(userID, fileIDs)
	if err != nil {
		return nil, err
	}
	if len(files) != len(fileIDs) {
		return nil, util.ErrFileNotFound
	}
	return fileIDs, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *NoteService) ListOwn(userID uint) ([]NoteResponse, error) {
	notes, err := s.NoteRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.renderAll(notes, userID)
}

func (s *NoteService) ListPublicByUser(ownerID, viewerID uint) ([]NoteResponse, error) {
	notes, err := s.NoteRepo.FindPublicByUser(ownerID)
	if err != nil {
		return nil, err
	}
	return s.renderAll(notes, viewerID)
}

func (s *NoteService) ListBookmarked(userID uint) ([]NoteResponse, error) {
	notes, err := s.NoteRepo.FindBookmarked(userID)
	if err != nil {
		return nil, err
	}
	// 收藏后被设为私有的他人笔记不再展示
	visible := notes[:0]
	for _, n := range notes {
		if n.VisibleTo(userID) {
			visible = append(visible, n)
		}
	}
	return s.renderAll(visible, userID)
}

// ListFeed 公开笔记，按创建时间倒序
func (s *NoteService) ListFeed(userID uint) ([]NoteResponse, error) {
	notes, err := s.NoteRepo.FindPublic()
	if err != nil {
		return nil, err
	}
	return s.renderAll(notes, userID)
}

func (s *NoteService) render(note *model.Note, userID uint) (*NoteResponse, error) {
	list, err := s.renderAll([]model.Note{*note}, userID)
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *NoteService) renderAll(notes []model.Note, userID uint) ([]NoteResponse, error) {
	ids := make([]uint, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ID)
	}
	stats, err := s.NoteRepo.LoadStats(ids, userID)
	if err != nil {
		return nil, fmt.Errorf("load note stats: %w", err)
	}

	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		fileIDs := stats.FileIDs[n.ID]
		if fileIDs == nil {
			fileIDs = []uint{}
		}
		out = append(out, NoteResponse{
			ID:           n.ID,
			UserID:       n.UserID,
			CreatedAt:    n.CreatedAt,
			Title:        n.Title,
			Content:      n.Content,
			Public:       n.Public,
			Saves:        stats.Saves[n.ID],
			Score:        stats.Scores[n.ID],
			UserVote:     stats.UserVotes[n.ID],
			UserBookmark: stats.UserBookmark[n.ID],
			FileIDs:      fileIDs,
		})
	}
	return out, nil
}
