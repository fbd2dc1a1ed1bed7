package ai

import "context"

// GradingInput contains what a reviewer would look at to grade an open-ended answer.
type GradingInput struct {
	QuestionType    string
	QuestionText    string
	ReferenceAnswer string
	Explanation     string
	CandidateAnswer string
	LanguageCode    string
	MaxPoints       float64
}

// Suggestion is a proposed grade. Reviewers decide the final points.
type Suggestion struct {
	Points    float64 `json:"points"`
	Rationale string  `json:"rationale"`
}

// Grader proposes points for open-ended answers.
type Grader interface {
	Suggest(ctx context.Context, input GradingInput) (Suggestion, error)
}
