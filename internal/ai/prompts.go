package ai

import (
	"fmt"
	"strings"
)

// Prompt templates are data, not code: the pipeline's control flow never
// depends on the wording here, only on the JSON contracts described in each
// template.

// PostWriterSystemPrompt constrains generation to the user's own words.
const PostWriterSystemPrompt = "You are Chronicle's AI assistant specialized in converting user chat messages into posts. " +
	"Your job is to transform the user's actual words into a post format without adding any new information, " +
	"interpretations, or content that the user did not say. You must preserve the user's exact writing style, " +
	"tone, and expressions. Do not add explanations, conclusions, or additional details that the user did not mention. " +
	"For the title, create a natural, engaging title that the user would write themselves when posting to a " +
	"community board. Avoid summary-like titles or AI-generated phrases."

// CriticSystemPrompt drives both steps of the per-post analysis.
const CriticSystemPrompt = "You are a critical content analyst. You must be extremely strict and critical when " +
	"evaluating content. Do not be overly positive or lenient. Focus on identifying logical flaws, insufficient " +
	"evidence, and areas that need improvement."

// QualitySystemPrompt drives the room-level quality analysis. Author and date
// information is deliberately withheld from the model.
const QualitySystemPrompt = "You are an objective room quality analyst. You must be extremely strict and critical " +
	"when evaluating content quality. Focus only on the actual content value, logical structure, and practical " +
	"applicability. Do not consider author information or posting dates. Apply very high standards: only truly " +
	"valuable, well-structured, and substantive content should receive high scores. Be objective and unbiased."

func ContentJudgmentPrompt(chatText, userID string) string {
	return fmt.Sprintf(`Below are chat messages written by user %q.

%s

Decide whether these messages contain enough substance to be worth converting into a community post.
Casual small talk, greetings, and one-word reactions do not qualify. Opinions, experiences, questions
with context, and shared knowledge do.

Respond with JSON only, no other text:
{"hasContent": true or false, "reason": "short explanation", "contentType": "e.g. opinion, experience, question, smalltalk"}`,
		userID, chatText)
}

func ChatToPostPrompt(chatText, userID string) string {
	return fmt.Sprintf(`Convert the chat messages below, all written by user %q, into a community post.
Use only the user's own words and facts; do not invent anything they did not say.

%s

Respond with JSON only, no other text:
{"title": "a natural title the user would write", "content": "the post body built from the messages"}`,
		userID, chatText)
}

func ChatSummaryPrompt(chatText string) string {
	return fmt.Sprintf(`Summarize the following room conversation in two or three sentences.
Mention the main topics and the overall mood. Respond with plain text, no JSON.

%s`, chatText)
}

func PostAnalysisJudgmentPrompt(title, content string) string {
	return fmt.Sprintf(`Title: %s

%s

Decide whether this post contains claims or arguments worth a critical analysis. Posts that are pure
smalltalk, logistics, or bare links are not worth analyzing.

Respond with JSON only, no other text:
{"shouldAnalyze": true or false, "reason": "short explanation", "contentType": "e.g. argument, experience, announcement"}`,
		title, content)
}

func PostAnalysisPrompt(title, content string) string {
	return fmt.Sprintf(`Critically analyze the post below.

Title: %s

%s

Respond with JSON only, no other text:
{
  "hasDebatableContent": true or false,
  "contentValidity": "high" or "medium" or "low",
  "analysis": {
    "controversy": "which claims could be disputed and why",
    "validity": "how well-supported the claims are",
    "suggestions": "what would make the post stronger"
  },
  "summary": "one-paragraph verdict"
}`, title, content)
}

// QualityPost is the title/content pair fed into the room quality analysis.
// Author and date are excluded on purpose.
type QualityPost struct {
	Title   string
	Content string
}

func RoomQualityPrompt(posts []QualityPost) string {
	var b strings.Builder
	for i, p := range posts {
		fmt.Fprintf(&b, "[post %d]\ntitle: %s\n%s\n\n", i+1, p.Title, p.Content)
	}
	return fmt.Sprintf(`Evaluate the overall quality of the community posts below. Score each dimension 0-100.

%s
Respond with JSON only, no other text:
{
  "overallScore": 0-100,
  "scores": {
    "contentDepth": 0-100,
    "logicalThinking": 0-100,
    "discussionQuality": 0-100,
    "creativity": 0-100,
    "practicality": 0-100
  },
  "strengths": ["..."],
  "weaknesses": ["..."],
  "recommendations": ["..."],
  "summary": "one-paragraph overall assessment"
}`, b.String())
}
