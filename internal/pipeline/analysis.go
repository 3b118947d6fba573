package pipeline

import (
	"context"
	"fmt"

	"github.com/chronicle-hq/chronicle/internal/ai"
)

// Critique is the structured result of the second analysis step.
type Critique struct {
	HasDebatableContent bool   `json:"hasDebatableContent"`
	ContentValidity     string `json:"contentValidity"` // high | medium | low
	Analysis            struct {
		Controversy string `json:"controversy"`
		Validity    string `json:"validity"`
		Suggestions string `json:"suggestions"`
	} `json:"analysis"`
	Summary string `json:"summary"`
}

// PostAnalysis carries either a declined judgment (ShouldAnalyze false) or a
// full critique.
type PostAnalysis struct {
	ShouldAnalyze bool      `json:"should_analyze"`
	Reason        string    `json:"reason,omitempty"`
	ContentType   string    `json:"content_type,omitempty"`
	Critique      *Critique `json:"analysis,omitempty"`
}

type analysisJudgment struct {
	ShouldAnalyze bool   `json:"shouldAnalyze"`
	Reason        string `json:"reason"`
	ContentType   string `json:"contentType"`
}

// AnalyzePost judges whether a post merits critical analysis and, if so,
// produces the critique. Parse failures at either step are terminal: unlike
// post generation there is no fallback here, a wrong critique being worse
// than no critique.
func (s *Service) AnalyzePost(ctx context.Context, roomID, postID string) (*PostAnalysis, error) {
	post, err := s.store.GetPost(ctx, roomID, postID)
	if err != nil {
		return nil, err
	}

	raw, err := s.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: ai.CriticSystemPrompt},
		{Role: "user", Content: ai.PostAnalysisJudgmentPrompt(post.Title, post.Content)},
	})
	if err != nil {
		return nil, fmt.Errorf("judge post: %w", err)
	}
	var verdict analysisJudgment
	if err := decodeJSON(raw, &verdict); err != nil {
		return nil, fmt.Errorf("parse post judgment response: %w", err)
	}
	if !verdict.ShouldAnalyze {
		return &PostAnalysis{
			ShouldAnalyze: false,
			Reason:        verdict.Reason,
			ContentType:   verdict.ContentType,
		}, nil
	}

	raw, err = s.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: ai.CriticSystemPrompt},
		{Role: "user", Content: ai.PostAnalysisPrompt(post.Title, post.Content)},
	})
	if err != nil {
		return nil, fmt.Errorf("analyze post: %w", err)
	}
	var critique Critique
	if err := decodeJSON(raw, &critique); err != nil {
		return nil, fmt.Errorf("parse post analysis response: %w", err)
	}

	return &PostAnalysis{
		ShouldAnalyze: true,
		Reason:        verdict.Reason,
		ContentType:   verdict.ContentType,
		Critique:      &critique,
	}, nil
}
