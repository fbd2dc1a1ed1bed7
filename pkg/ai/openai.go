package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "talent",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of AI grading suggestion requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "talent",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of AI grading suggestion failures",
	}, []string{"model"})
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	BaseURL     string
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 400
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIGrader{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_grader").Logger(),
	}, nil
}

// Suggest asks the model for a grade and clamps it to [0, MaxPoints].
func (g *OpenAIGrader) Suggest(parent context.Context, input GradingInput) (Suggestion, error) {
	ctx, span := g.tracer.Start(parent, "openai.suggest_grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("question.type", input.QuestionType),
	))
	defer span.End()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: graderSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(input)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	aiDuration.WithLabelValues(g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		aiFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Suggestion{}, fmt.Errorf("openai suggest: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Suggestion{}, err
	}

	suggestion, err := parseSuggestion(strings.TrimSpace(resp.Choices[0].Message.Content), input.MaxPoints)
	if err != nil {
		aiFailures.WithLabelValues(g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Suggestion{}, err
	}

	span.SetAttributes(attribute.Float64("grade.points", suggestion.Points))
	return suggestion, nil
}

func graderSystemPrompt() string {
	return "You assist recruiters grading open-ended assessment answers for commodity trading roles. " +
		"Respond with a JSON object containing points (number between 0 and the maximum) and rationale (short string)."
}

func buildUserPrompt(input GradingInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Question type\n")
	builder.WriteString(input.QuestionType)
	builder.WriteString("\n\n## Question\n")
	builder.WriteString(input.QuestionText)
	if input.ReferenceAnswer != "" {
		builder.WriteString("\n\n## Reference answer\n")
		builder.WriteString(input.ReferenceAnswer)
	}
	if input.Explanation != "" {
		builder.WriteString("\n\n## Grading notes\n")
		builder.WriteString(input.Explanation)
	}
	builder.WriteString("\n\n## Candidate answer (")
	builder.WriteString(input.LanguageCode)
	builder.WriteString(")\n")
	builder.WriteString(input.CandidateAnswer)
	builder.WriteString("\n\n## Maximum points\n")
	builder.WriteString(strconv.FormatFloat(input.MaxPoints, 'f', -1, 64))
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseSuggestion(content string, maxPoints float64) (Suggestion, error) {
	var data Suggestion
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return Suggestion{}, fmt.Errorf("parse grading json: %w", err)
	}

	if data.Points < 0 {
		data.Points = 0
	}
	if data.Points > maxPoints {
		data.Points = maxPoints
	}
	data.Rationale = strings.TrimSpace(data.Rationale)

	return data, nil
}
