package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chronicle-hq/chronicle/internal/models"
	"github.com/chronicle-hq/chronicle/internal/store"
	"github.com/chronicle-hq/chronicle/internal/store/memstore"
)

func seedPost(t *testing.T, st store.Store, roomID, postID string) {
	t.Helper()
	seedRoom(t, st, roomID)
	err := st.CreatePost(context.Background(), &models.Post{
		ID: postID, RoomID: roomID, Title: "On error wrapping", Content: "Wrap at boundaries only.", CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
}

func TestAnalyzePost_JudgmentDeclines(t *testing.T) {
	st := memstore.New()
	seedPost(t, st, "r", "p1")

	prov := &scriptedProvider{responses: []string{
		`{"shouldAnalyze": false, "reason": "too short", "contentType": "note"}`,
	}}
	svc := NewService(st, prov, 50, 50)

	result, err := svc.AnalyzePost(context.Background(), "r", "p1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.ShouldAnalyze || result.Critique != nil {
		t.Fatalf("declined judgment must carry no critique: %+v", result)
	}
	if result.Reason != "too short" {
		t.Fatalf("unexpected reason: %q", result.Reason)
	}
	if len(prov.calls) != 1 {
		t.Fatalf("critique step must not run, got %d calls", len(prov.calls))
	}
}

func TestAnalyzePost_FullCritique(t *testing.T) {
	st := memstore.New()
	seedPost(t, st, "r", "p1")

	prov := &scriptedProvider{responses: []string{
		`{"shouldAnalyze": true, "reason": "debatable claim", "contentType": "opinion"}`,
		`{"hasDebatableContent": true, "contentValidity": "medium",
		  "analysis": {"controversy": "absolutist advice", "validity": "partly supported", "suggestions": "qualify the claim"},
		  "summary": "A reasonable but overstated position."}`,
	}}
	svc := NewService(st, prov, 50, 50)

	result, err := svc.AnalyzePost(context.Background(), "r", "p1")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !result.ShouldAnalyze || result.Critique == nil {
		t.Fatalf("expected critique: %+v", result)
	}
	if result.Critique.ContentValidity != "medium" {
		t.Fatalf("unexpected validity: %q", result.Critique.ContentValidity)
	}
	if result.Critique.Analysis.Suggestions != "qualify the claim" {
		t.Fatalf("unexpected suggestions: %q", result.Critique.Analysis.Suggestions)
	}
}

func TestAnalyzePost_ParseFailureHasNoFallback(t *testing.T) {
	st := memstore.New()
	seedPost(t, st, "r", "p1")

	prov := &scriptedProvider{responses: []string{
		`{"shouldAnalyze": true, "reason": "ok", "contentType": "opinion"}`,
		`I think this post is fine.`,
	}}
	svc := NewService(st, prov, 50, 50)

	_, err := svc.AnalyzePost(context.Background(), "r", "p1")
	if err == nil || !strings.Contains(err.Error(), "parse post analysis response") {
		t.Fatalf("expected terminal parse error, got %v", err)
	}
}

func TestAnalyzePost_MissingPost(t *testing.T) {
	st := memstore.New()
	seedRoom(t, st, "r")
	svc := NewService(st, &scriptedProvider{}, 50, 50)

	_, err := svc.AnalyzePost(context.Background(), "r", "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnalyzeRoomQuality_NoPosts(t *testing.T) {
	st := memstore.New()
	seedRoom(t, st, "r")
	svc := NewService(st, &scriptedProvider{}, 50, 50)

	_, _, err := svc.AnalyzeRoomQuality(context.Background(), "r")
	if !errors.Is(err, ErrNoPosts) {
		t.Fatalf("expected ErrNoPosts, got %v", err)
	}
}

func TestAnalyzeRoomQuality_ScoresAndCount(t *testing.T) {
	st := memstore.New()
	seedPost(t, st, "r", "p1")

	prov := &scriptedProvider{responses: []string{"```json\n" +
		`{"overallScore": 72,
		  "scores": {"contentDepth": 70, "logicalThinking": 75, "discussionQuality": 68, "creativity": 74, "practicality": 73},
		  "strengths": ["clear writing"], "weaknesses": ["few sources"],
		  "recommendations": ["cite references"], "summary": "Solid room."}` + "\n```"}}
	svc := NewService(st, prov, 50, 50)

	report, count, err := svc.AnalyzeRoomQuality(context.Background(), "r")
	if err != nil {
		t.Fatalf("quality: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 post, got %d", count)
	}
	if report.OverallScore != 72 || report.Scores.LogicalThinking != 75 {
		t.Fatalf("unexpected report: %+v", report)
	}
	// only titles and contents reach the model
	prompt := prov.calls[0][1].Content
	if strings.Contains(prompt, "alice") {
		t.Fatalf("author must not be sent to the model:\n%s", prompt)
	}
}
