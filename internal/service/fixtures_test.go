package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/database"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/mailer"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.ConnectSQLite(fmt.Sprintf("file:pipeline_%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		names = append(names, msg.TemplateName)
	}
	return names
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []PipelineEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, event PipelineEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) error {
	c.calls++
	return nil
}

type testClock struct {
	current time.Time
}

func (c *testClock) now() time.Time { return c.current }

func (c *testClock) advance(d time.Duration) { c.current = c.current.Add(d) }

// pipelineFixture wires every pipeline service over one in-memory database with a
// two-stage program: stage A (weight 25, threshold 60) and stage B (weight 75,
// threshold 70).
type pipelineFixture struct {
	db       *gorm.DB
	clock    *testClock
	mail     *recordingMailer
	events   *recordingPublisher
	cache    *countingInvalidator
	settings PipelineSettings

	programRepo   repository.ProgramRepository
	questionRepo  repository.QuestionRepository
	candidateRepo repository.CandidateRepository
	linkRepo      repository.AssessmentLinkRepository
	responseRepo  repository.CandidateResponseRepository
	auditRepo     repository.AuditLogRepository

	templates   EmailTemplateService
	programs    ProgramService
	questions   QuestionBankService
	content     ContentService
	invitations InvitationService
	pipeline    CandidatePipelineService
	scoring     ScoringService
	audit       AuditService

	program models.Program
	stageA  models.Stage
	stageB  models.Stage
	choiceA models.Question
	essayA  models.Question
	choiceB models.Question
	rankB   models.Question
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	db := setupTestDB(t)
	f := &pipelineFixture{
		db:     db,
		clock:  &testClock{current: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		mail:   &recordingMailer{},
		events: &recordingPublisher{},
		cache:  &countingInvalidator{},
		settings: PipelineSettings{
			PublicOrigin:        "https://jobs.example.com/",
			CompanyName:         "Petrodeal",
			MailFrom:            "talent@example.com",
			StoreTimeout:        5 * time.Second,
			EnforceStageWeights: true,
			RevokePreviousLinks: true,
		},
		programRepo:   repository.NewProgramRepository(db),
		questionRepo:  repository.NewQuestionRepository(db),
		candidateRepo: repository.NewCandidateRepository(db),
		linkRepo:      repository.NewAssessmentLinkRepository(db),
		responseRepo:  repository.NewCandidateResponseRepository(db),
		auditRepo:     repository.NewAuditLogRepository(db),
	}

	validate := dto.NewValidator()
	tx := repository.NewTransactor(db)
	logger := testLogger()

	f.audit = NewAuditService(f.auditRepo, logger)
	f.templates = NewEmailTemplateService(repository.NewEmailTemplateRepository(db), validate, f.settings, f.audit, logger)
	notifier := NewCandidateNotifier(f.templates, f.mail, f.settings, logger)
	notifier.(*candidateNotifier).now = f.clock.now

	f.programs = NewProgramService(f.programRepo, f.questionRepo, validate, f.settings, f.audit, logger)
	f.questions = NewQuestionBankService(f.programRepo, f.questionRepo, validate, f.settings, logger)
	f.content = NewContentService(repository.NewContentTranslationRepository(db), validate, f.settings, logger)

	f.invitations = NewInvitationService(f.programRepo, f.candidateRepo, f.linkRepo, tx, notifier, f.events, f.cache, f.audit, f.settings, logger)
	f.invitations.(*invitationService).now = f.clock.now

	f.pipeline = NewCandidatePipelineService(f.programRepo, f.questionRepo, f.candidateRepo, f.responseRepo, tx, f.invitations, f.questions, f.content, notifier, f.events, f.cache, f.audit, validate, logger)
	f.pipeline.(*candidatePipelineService).now = f.clock.now

	f.scoring = NewScoringService(f.programRepo, f.questionRepo, f.candidateRepo, f.responseRepo, tx, nil, notifier, f.events, f.cache, f.audit, validate, logger)
	f.scoring.(*scoringService).now = f.clock.now

	f.seedProgram(t)
	f.seedTemplates(t)
	return f
}

func (f *pipelineFixture) seedProgram(t *testing.T) {
	t.Helper()

	f.program = models.Program{
		Slug:     "trade-desk",
		Name:     "Trade Desk Associates",
		IsActive: true,
		Settings: datatypes.NewJSONType(models.ProgramSettings{
			SupportedLanguages: []string{"en", "es"},
			LinkExpiryHours:    72,
			MaxAttempts:        2,
		}),
	}
	require.NoError(t, f.db.Create(&f.program).Error)

	f.stageA = models.Stage{ProgramID: f.program.ID, StageNumber: 1, Name: "Market basics", PassingThreshold: 60, WeightPercentage: 25, Enabled: true, DisplayOrder: 1}
	f.stageB = models.Stage{ProgramID: f.program.ID, StageNumber: 2, Name: "Negotiation", PassingThreshold: 70, WeightPercentage: 75, Enabled: true, DisplayOrder: 2}
	require.NoError(t, f.db.Create(&f.stageA).Error)
	require.NoError(t, f.db.Create(&f.stageB).Error)

	f.choiceA = f.createQuestion(t, f.stageA.ID, models.QuestionMultipleChoice, 8, 1,
		models.QuestionTranslation{LanguageCode: "en", Text: "Which grade is lighter?", Options: []string{"Brent", "WTI", "Urals"}, CorrectAnswer: "WTI", Explanation: "Lower density"},
		models.QuestionTranslation{LanguageCode: "es", Text: "¿Qué crudo es más ligero?", Options: []string{"Brent", "WTI", "Urales"}, CorrectAnswer: "WTI"},
	)
	f.essayA = f.createQuestion(t, f.stageA.ID, models.QuestionShortAnswer, 2, 2,
		models.QuestionTranslation{LanguageCode: "en", Text: "Define contango.", CorrectAnswer: "Futures above spot"},
	)
	f.choiceB = f.createQuestion(t, f.stageB.ID, models.QuestionTrueFalse, 13, 1,
		models.QuestionTranslation{LanguageCode: "en", Text: "Laytime counts during weather delays.", Options: []string{"true", "false"}, CorrectAnswer: "false"},
	)
	f.rankB = f.createQuestion(t, f.stageB.ID, models.QuestionRanking, 7, 2,
		models.QuestionTranslation{LanguageCode: "en", Text: "Order the deal steps.", Options: []string{"LOI", "ICPO", "SPA"}},
	)
}

func (f *pipelineFixture) createQuestion(t *testing.T, stageID uint, kind models.QuestionType, points float64, order int, translations ...models.QuestionTranslation) models.Question {
	t.Helper()
	question := models.Question{StageID: stageID, Type: kind, Points: points, Enabled: true, Order: order, Translations: translations}
	require.NoError(t, f.db.Create(&question).Error)
	return question
}

func (f *pipelineFixture) seedTemplates(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		models.TemplateApplicationReceived,
		models.TemplateAssessmentInvitation,
		models.TemplateAssessmentPassed,
		models.TemplateAssessmentFailed,
		models.TemplateApplicationRejected,
	} {
		_, err := f.templates.Upsert(context.Background(), name, "en", dto.UpsertEmailTemplateCommand{
			Subject:  "{{company_name}}: " + name,
			HTMLBody: "<p>Hello {{full_name}}</p><p>{{assessment_link}} {{score}}</p>",
			TextBody: "Hello {{full_name}}",
		})
		require.NoError(t, err)
	}
}

func (f *pipelineFixture) addCandidate(t *testing.T, email string, status models.CandidateStatus) models.Candidate {
	t.Helper()
	candidate := models.Candidate{
		ProgramID:         f.program.ID,
		FullName:          "Ada Moreno",
		Email:             email,
		Country:           "Spain",
		AreaOfInterest:    "crude",
		PreferredLanguage: "en",
		Status:            status,
	}
	require.NoError(t, f.db.Create(&candidate).Error)
	return candidate
}

func (f *pipelineFixture) reload(t *testing.T, id uint) models.Candidate {
	t.Helper()
	candidate, err := f.candidateRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return candidate
}

// startedCandidate invites a fresh candidate and starts the assessment, returning the token.
func (f *pipelineFixture) startedCandidate(t *testing.T, email string) (models.Candidate, string) {
	t.Helper()
	ctx := context.Background()
	candidate := f.addCandidate(t, email, models.CandidateStatusPending)

	invitation, err := f.invitations.Issue(ctx, candidate.ID, 0)
	require.NoError(t, err)

	_, err = f.pipeline.StartAssessment(ctx, f.program.Slug, invitation.Token, "en")
	require.NoError(t, err)
	return f.reload(t, candidate.ID), invitation.Token
}

func (f *pipelineFixture) gradeEssay(t *testing.T, candidateID uint, points float64) {
	t.Helper()
	responses, err := f.responseRepo.ListByCandidate(context.Background(), candidateID)
	require.NoError(t, err)
	for _, response := range responses {
		if response.QuestionID == f.essayA.ID {
			_, err := f.scoring.GradeResponse(context.Background(), response.ID, dto.GradeResponseRequest{Points: &points})
			require.NoError(t, err)
			return
		}
	}
	t.Fatalf("no essay response for candidate %d", candidateID)
}
