package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
)

func TestTransitionCandidateRejectsEveryNonEdge(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	for i, from := range models.FunnelOrder {
		for j, to := range models.FunnelOrder {
			if from.CanTransitionTo(to) {
				continue
			}
			candidate := f.addCandidate(t, fmt.Sprintf("c%d-%d@example.com", i, j), from)

			err := transitionCandidate(ctx, f.candidateRepo, candidate, to, map[string]interface{}{"admin_notes": "touched"})
			var transition *InvalidTransitionError
			require.True(t, errors.As(err, &transition), "%s -> %s", from, to)
			require.Equal(t, from, transition.From)
			require.Equal(t, to, transition.To)

			stored := f.reload(t, candidate.ID)
			require.Equal(t, from, stored.Status)
			require.Empty(t, stored.AdminNotes)
		}
	}
}

func TestTransitionCandidateDetectsConcurrentChange(t *testing.T) {
	f := newPipelineFixture(t)
	candidate := f.addCandidate(t, "ada@example.com", models.CandidateStatusPending)
	require.NoError(t, f.candidateRepo.TransitionStatus(context.Background(), candidate.ID, models.CandidateStatusPending, models.CandidateStatusRejected, nil))

	err := transitionCandidate(context.Background(), f.candidateRepo, candidate, models.CandidateStatusShortlisted, nil)
	require.ErrorIs(t, err, ErrConcurrentUpdate)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, models.CandidateStatusRejected, f.reload(t, candidate.ID).Status)
}

func TestApplyCreatesPendingCandidate(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	response, err := f.pipeline.Apply(ctx, f.program.Slug, dto.ApplicationRequest{
		FullName:          "  Ada <b>Moreno</b> ",
		Email:             "Ada@Example.com",
		Country:           "Spain",
		Background:        "<script>alert(1)</script>Broker",
		PreferredLanguage: "es-MX",
	})
	require.NoError(t, err)
	require.Equal(t, models.CandidateStatusPending, response.Status)
	require.True(t, response.EmailQueued)

	stored := f.reload(t, response.CandidateID)
	require.Equal(t, "ada@example.com", stored.Email)
	require.Equal(t, "Ada Moreno", stored.FullName)
	require.Equal(t, "Broker", stored.Background)
	require.Equal(t, "es", stored.PreferredLanguage)
	require.Equal(t, 1, f.cache.calls)

	_, err = f.pipeline.Apply(ctx, f.program.Slug, dto.ApplicationRequest{FullName: "Ada Moreno", Email: "ada@example.com"})
	require.ErrorIs(t, err, ErrDuplicateCandidate)
	require.ErrorIs(t, err, ErrConflict)
}

func TestApplyValidatesProgramRules(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()

	settings := f.program.Config()
	settings.RequireLinkedIn = true
	f.program.Settings = datatypes.NewJSONType(settings)
	require.NoError(t, f.programRepo.Update(ctx, &f.program))

	_, err := f.pipeline.Apply(ctx, f.program.Slug, dto.ApplicationRequest{FullName: "Ada Moreno", Email: "ada@example.com"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.pipeline.Apply(ctx, f.program.Slug, dto.ApplicationRequest{FullName: "Ada Moreno", Email: "ada@example.com", LinkedInURL: "https://example.com/in/ada"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.pipeline.Apply(ctx, f.program.Slug, dto.ApplicationRequest{FullName: "Ada Moreno", Email: "ada@example.com", LinkedInURL: "https://www.linkedin.com/in/ada", PreferredLanguage: "fr"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.pipeline.Apply(ctx, "unknown", dto.ApplicationRequest{FullName: "Ada Moreno", Email: "ada@example.com", LinkedInURL: "https://www.linkedin.com/in/ada"})
	require.ErrorIs(t, err, ErrProgramNotFound)

	_, err = f.pipeline.Apply(ctx, f.program.Slug, dto.ApplicationRequest{FullName: "Ada Moreno", Email: "ada@example.com", LinkedInURL: "https://www.linkedin.com/in/ada"})
	require.NoError(t, err)
}

func TestShortlistAndRejectFollowStateMachine(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	candidate := f.addCandidate(t, "ada@example.com", models.CandidateStatusPending)

	shortlisted, err := f.pipeline.Shortlist(ctx, candidate.ID)
	require.NoError(t, err)
	require.Equal(t, models.CandidateStatusShortlisted, shortlisted.Status)

	_, err = f.pipeline.Reject(ctx, candidate.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, models.CandidateStatusShortlisted, f.reload(t, candidate.ID).Status)

	other := f.addCandidate(t, "lin@example.com", models.CandidateStatusPending)
	rejected, err := f.pipeline.Reject(WithActor(ctx, Actor{ID: 3, Role: "Admin"}), other.ID)
	require.NoError(t, err)
	require.Equal(t, models.CandidateStatusRejected, rejected.Status)
	require.Contains(t, f.mail.templates(), models.TemplateApplicationRejected)

	entries, err := f.audit.List(ctx, dto.AuditListRequest{ActorID: 3})
	require.NoError(t, err)
	require.Len(t, entries.Items, 1)
	require.Equal(t, "admin", entries.Items[0].ActorRole)
	require.Equal(t, "rejected", entries.Items[0].Metadata["to"])

	_, err = f.pipeline.Shortlist(ctx, 9999)
	require.ErrorIs(t, err, ErrCandidateNotFound)
}

func TestStartAssessmentCountsAttempts(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	candidate := f.addCandidate(t, "ada@example.com", models.CandidateStatusPending)

	invitation, err := f.invitations.Issue(ctx, candidate.ID, 0)
	require.NoError(t, err)

	session, err := f.pipeline.StartAssessment(ctx, f.program.Slug, invitation.Token, "")
	require.NoError(t, err)
	require.Equal(t, models.CandidateStatusInProgress, session.Status)
	require.True(t, session.Outline.ForCandidate)
	require.NotNil(t, f.reload(t, candidate.ID).StartedAt)

	_, err = f.pipeline.StartAssessment(ctx, f.program.Slug, invitation.Token, "")
	require.NoError(t, err, "second attempt resumes")

	_, err = f.pipeline.StartAssessment(ctx, f.program.Slug, invitation.Token, "")
	require.ErrorIs(t, err, ErrAttemptsExhausted)

	validation, err := f.invitations.Validate(ctx, invitation.Token)
	require.NoError(t, err)
	require.Equal(t, 2, validation.AttemptsUsed)
	require.Equal(t, 0, *validation.AttemptsRemaining)
}

func TestOpenAssessmentHidesAnswerKeyAndFallsBack(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	candidate := f.addCandidate(t, "ada@example.com", models.CandidateStatusPending)
	_, err := f.content.Upsert(ctx, DisclaimerContentKey, "en", dto.UpsertContentCommand{Content: "Answers are your own."})
	require.NoError(t, err)

	invitation, err := f.invitations.Issue(ctx, candidate.ID, 0)
	require.NoError(t, err)

	session, err := f.pipeline.OpenAssessment(ctx, f.program.Slug, invitation.Token, "es")
	require.NoError(t, err)
	require.Equal(t, models.CandidateStatusInvited, session.Status, "opening records nothing")
	require.Equal(t, "Answers are your own.", session.Disclaimer.Content)
	require.Equal(t, models.ResolutionFellBack, session.Disclaimer.Resolution.Status)
	require.Len(t, session.Outline.Stages, 2)

	for _, stage := range session.Outline.Stages {
		for _, question := range stage.Questions {
			require.Empty(t, question.CorrectAnswer)
			require.Empty(t, question.Explanation)
			if question.ID == f.choiceA.ID {
				require.Equal(t, models.ResolutionFound, question.Resolution.Status)
			}
			if question.ID == f.essayA.ID {
				require.Equal(t, models.ResolutionFellBack, question.Resolution.Status)
				require.Equal(t, "en", question.Resolution.Language)
			}
		}
	}

	_, err = f.pipeline.OpenAssessment(ctx, "other-program", invitation.Token, "en")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubmitResponsesGradesChoiceQuestions(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	candidate := f.addCandidate(t, "ada@example.com", models.CandidateStatusPending)
	invitation, err := f.invitations.Issue(ctx, candidate.ID, 0)
	require.NoError(t, err)

	answers := dto.SubmitResponsesRequest{Answers: []dto.AnswerPayload{{QuestionID: f.choiceA.ID, Answer: "WTI"}}}
	_, err = f.pipeline.SubmitResponses(ctx, f.program.Slug, invitation.Token, answers)
	require.ErrorIs(t, err, ErrAssessmentNotActive)

	_, err = f.pipeline.StartAssessment(ctx, f.program.Slug, invitation.Token, "en")
	require.NoError(t, err)

	result, err := f.pipeline.SubmitResponses(ctx, f.program.Slug, invitation.Token, dto.SubmitResponsesRequest{
		Answers: []dto.AnswerPayload{
			{QuestionID: f.choiceA.ID, Answer: "Brent"},
			{QuestionID: f.essayA.ID, Answer: "<i>Futures</i> above spot"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, dto.SubmitResponsesResponse{Stored: 2, AutoGraded: 1, PendingReview: 1}, result)

	result, err = f.pipeline.SubmitResponses(ctx, f.program.Slug, invitation.Token, dto.SubmitResponsesRequest{
		Answers: []dto.AnswerPayload{{QuestionID: f.choiceA.ID, Answer: "wti"}},
	})
	require.NoError(t, err)
	require.Equal(t, 1, result.AutoGraded)

	responses, err := f.pipeline.ListResponses(ctx, candidate.ID)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	for _, response := range responses {
		switch response.QuestionID {
		case f.choiceA.ID:
			require.Equal(t, 8.0, *response.PointsAwarded, "resubmission replaces the earlier grade")
		case f.essayA.ID:
			require.Nil(t, response.PointsAwarded)
			require.Equal(t, "Futures above spot", response.Answer)
		}
	}

	_, err = f.pipeline.SubmitResponses(ctx, f.program.Slug, invitation.Token, dto.SubmitResponsesRequest{
		Answers: []dto.AnswerPayload{{QuestionID: 9999, Answer: "x"}},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.pipeline.SubmitResponses(ctx, f.program.Slug, invitation.Token, dto.SubmitResponsesRequest{
		Answers: []dto.AnswerPayload{{QuestionID: f.choiceA.ID, Answer: "x"}, {QuestionID: f.choiceA.ID, Answer: "y"}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCandidateListFilters(t *testing.T) {
	f := newPipelineFixture(t)
	ctx := context.Background()
	f.addCandidate(t, "ada@example.com", models.CandidateStatusPending)
	f.addCandidate(t, "lin@example.com", models.CandidateStatusRejected)

	list, err := f.pipeline.List(ctx, dto.CandidateListRequest{Status: "pending"})
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Pagination.TotalItems)
	require.Equal(t, "ada@example.com", list.Items[0].Email)

	_, err = f.pipeline.List(ctx, dto.CandidateListRequest{Status: "archived"})
	require.ErrorIs(t, err, ErrValidation)

	updated, err := f.pipeline.UpdateNotes(ctx, list.Items[0].ID, dto.UpdateNotesRequest{Notes: " strong trader "})
	require.NoError(t, err)
	require.Equal(t, "strong trader", updated.AdminNotes)
}
