package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chronicle-hq/chronicle/internal/ai"
	"github.com/chronicle-hq/chronicle/internal/common"
	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
)

// Terminal preconditions of the chat-to-post pipeline. Both mean "nothing to
// convert"; which one applies depends on whether the room was ever synced.
var (
	ErrNoMessages    = errors.New("pipeline: no messages from this user in the room")
	ErrNoNewMessages = errors.New("pipeline: no new messages since last sync")
	ErrNoPosts       = errors.New("pipeline: room has no posts to analyze")
)

// Service orchestrates the AI flows: chat-to-post conversion, preview
// confirmation, per-post analysis and room quality scoring. All calls to the
// provider are sequential; nothing here retries.
type Service struct {
	store         store.Store
	provider      ai.Provider
	sampleSize    int
	summaryWindow int
}

func NewService(st store.Store, provider ai.Provider, sampleSize, summaryWindow int) *Service {
	if sampleSize <= 0 || sampleSize > 200 {
		sampleSize = 50
	}
	if summaryWindow <= 0 || summaryWindow > 200 {
		summaryWindow = 50
	}
	return &Service{store: st, provider: provider, sampleSize: sampleSize, summaryWindow: summaryWindow}
}

// Draft is a generated title/content pair awaiting human review.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Preview is the outcome of a pipeline run. When the judgment step decides the
// chat lacks substance, Generated is false and Reason/ContentType explain why;
// no post draft and no summary are produced in that case.
type Preview struct {
	Generated    bool   `json:"generated"`
	Reason       string `json:"reason,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	Post         *Draft `json:"post,omitempty"`
	Summary      string `json:"summary,omitempty"`
	MessageCount int    `json:"message_count"`
}

type judgment struct {
	HasContent  bool   `json:"hasContent"`
	Reason      string `json:"reason"`
	ContentType string `json:"contentType"`
}

// GeneratePreview runs steps 1-4 of the chat-to-post pipeline for (room,
// user). It never writes to the store and never advances the sync cursor;
// persistence only happens in Confirm.
func (s *Service) GeneratePreview(ctx context.Context, roomID, userID string) (*Preview, error) {
	// step 1: gather the user's messages since their cursor
	cursor, _, err := s.store.GetSyncCursor(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.store.ListUserMessagesAfter(ctx, roomID, userID, cursor)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		synced, err := s.store.HasRoomSync(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if !synced {
			return nil, ErrNoMessages
		}
		return nil, ErrNoNewMessages
	}
	// soft cap: keep the most recent sample, chronological
	if len(msgs) > s.sampleSize {
		msgs = msgs[len(msgs)-s.sampleSize:]
	}

	texts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		texts = append(texts, m.Text)
	}
	chatText := strings.Join(texts, "\n")

	// step 2: judge
	raw, err := s.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: ai.PostWriterSystemPrompt},
		{Role: "user", Content: ai.ContentJudgmentPrompt(chatText, userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("judge chat content: %w", err)
	}
	var verdict judgment
	if err := decodeJSON(raw, &verdict); err != nil {
		return nil, fmt.Errorf("parse judgment response: %w", err)
	}
	if !verdict.HasContent {
		return &Preview{
			Generated:    false,
			Reason:       verdict.Reason,
			ContentType:  verdict.ContentType,
			MessageCount: len(msgs),
		}, nil
	}

	// step 3: generate; an unparseable response falls back to a default draft
	// so the caller always gets something reviewable once judgment passed
	raw, err = s.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: ai.PostWriterSystemPrompt},
		{Role: "user", Content: ai.ChatToPostPrompt(chatText, userID)},
	})
	if err != nil {
		return nil, fmt.Errorf("generate post: %w", err)
	}
	fallbackTitle := fmt.Sprintf("[AI] chat digest from %s", userID)
	var draft Draft
	if err := decodeJSON(raw, &draft); err != nil {
		draft = Draft{Title: fallbackTitle, Content: raw}
	}
	if draft.Title == "" {
		draft.Title = fallbackTitle
	}
	if draft.Content == "" {
		draft.Content = raw
	}

	// step 4: room summary over everyone's recent messages. Best effort: a
	// failure here never blocks the draft.
	summary := s.roomSummary(ctx, roomID)

	return &Preview{
		Generated:    true,
		Post:         &draft,
		Summary:      summary,
		MessageCount: len(msgs),
	}, nil
}

func (s *Service) roomSummary(ctx context.Context, roomID string) string {
	recent, err := s.store.ListMessages(ctx, roomID, 0, s.summaryWindow)
	if err != nil {
		log.Printf("room summary skipped room=%s err=%v", roomID, err)
		return ""
	}
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Author, m.Text))
	}
	out, err := s.provider.Chat(ctx, []ai.Message{
		{Role: "user", Content: ai.ChatSummaryPrompt(strings.Join(lines, "\n"))},
	})
	if err != nil {
		log.Printf("room summary skipped room=%s err=%v", roomID, err)
		return ""
	}
	return strings.TrimSpace(out)
}

// Confirm persists a reviewed (possibly edited) draft as a real post and then
// records the sync cursor for (room, user). The cursor is only advanced after
// the post exists; a failed create leaves the cursor untouched so the same
// messages stay eligible for a later attempt.
func (s *Service) Confirm(ctx context.Context, roomID, userID, title, content string) (*models.Post, error) {
	post := &models.Post{
		ID:        common.NewID("post"),
		RoomID:    roomID,
		Title:     strings.TrimSpace(title),
		Content:   strings.TrimSpace(content),
		Author:    userID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	if err := s.store.RecordSync(ctx, roomID, userID, time.Now()); err != nil {
		// the post exists; a missed cursor only means the same messages may be
		// offered again
		log.Printf("record sync failed room=%s user=%s err=%v", roomID, userID, err)
	}
	return post, nil
}

// RecordSync advances the cursor without creating a post.
func (s *Service) RecordSync(ctx context.Context, roomID, userID string) error {
	return s.store.RecordSync(ctx, roomID, userID, time.Now())
}
