package pipeline

import (
	"context"
	"fmt"

	"github.com/chronicle-hq/chronicle/internal/ai"
)

// QualityReport scores a room's post collection against a fixed rubric.
type QualityReport struct {
	OverallScore int `json:"overallScore"`
	Scores       struct {
		ContentDepth      int `json:"contentDepth"`
		LogicalThinking   int `json:"logicalThinking"`
		DiscussionQuality int `json:"discussionQuality"`
		Creativity        int `json:"creativity"`
		Practicality      int `json:"practicality"`
	} `json:"scores"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"summary"`
}

// AnalyzeRoomQuality scores every post in the room in a single call. A room
// with zero posts is a rejected precondition, never a zero score. Only
// title/content pairs reach the model; author and date are withheld to avoid
// bias.
func (s *Service) AnalyzeRoomQuality(ctx context.Context, roomID string) (*QualityReport, int, error) {
	posts, err := s.store.ListPosts(ctx, roomID, 50)
	if err != nil {
		return nil, 0, err
	}
	if len(posts) == 0 {
		return nil, 0, ErrNoPosts
	}

	qp := make([]ai.QualityPost, 0, len(posts))
	for _, p := range posts {
		qp = append(qp, ai.QualityPost{Title: p.Title, Content: p.Content})
	}

	raw, err := s.provider.Chat(ctx, []ai.Message{
		{Role: "system", Content: ai.QualitySystemPrompt},
		{Role: "user", Content: ai.RoomQualityPrompt(qp)},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("analyze room quality: %w", err)
	}
	var report QualityReport
	if err := decodeJSON(raw, &report); err != nil {
		return nil, 0, fmt.Errorf("parse quality analysis response: %w", err)
	}
	return &report, len(posts), nil
}
