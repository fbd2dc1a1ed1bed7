// Package app assembles repositories, services and handlers for the binaries and the
// end-to-end tests.
package app

import (
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/config"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/handler"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/router"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/ai"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/pkg/mailer"
)

// Infrastructure holds the connections the services run on. Only DB and Mailer are
// required.
type Infrastructure struct {
	DB     *gorm.DB
	Redis  *redis.Client
	NATS   *nats.Conn
	Mailer mailer.Mailer
	Grader ai.Grader
}

// Services is the full pipeline service graph.
type Services struct {
	Audit       service.AuditService
	Templates   service.EmailTemplateService
	Content     service.ContentService
	Programs    service.ProgramService
	Questions   service.QuestionBankService
	Profiles    service.SimulationProfileService
	Invitations service.InvitationService
	Pipeline    service.CandidatePipelineService
	Scoring     service.ScoringService
	Funnel      service.FunnelAnalyticsService
}

// Settings derives the service settings from cfg.
func Settings(cfg config.Config) service.PipelineSettings {
	return service.PipelineSettings{
		PublicOrigin:        cfg.PublicOrigin,
		CompanyName:         cfg.CompanyName,
		MailFrom:            cfg.MailFrom,
		StoreTimeout:        cfg.StoreTimeout,
		EnforceStageWeights: cfg.EnforceStageWeights,
		RevokePreviousLinks: cfg.RevokePreviousLinks,
		AnalyticsCacheTTL:   cfg.AnalyticsCacheTTL,
	}
}

// NewServices wires every service over infra.
func NewServices(cfg config.Config, infra Infrastructure, logger zerolog.Logger) Services {
	db := infra.DB
	settings := Settings(cfg)
	validate := dto.NewValidator()
	tx := repository.NewTransactor(db)

	programRepo := repository.NewProgramRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	responseRepo := repository.NewCandidateResponseRepository(db)
	linkRepo := repository.NewAssessmentLinkRepository(db)

	transport := infra.Mailer
	if transport == nil {
		transport = mailer.NewLogMailer(logger)
	}

	var s Services
	s.Audit = service.NewAuditService(repository.NewAuditLogRepository(db), logger)
	s.Templates = service.NewEmailTemplateService(repository.NewEmailTemplateRepository(db), validate, settings, s.Audit, logger)
	s.Content = service.NewContentService(repository.NewContentTranslationRepository(db), validate, settings, logger)
	s.Programs = service.NewProgramService(programRepo, questionRepo, validate, settings, s.Audit, logger)
	s.Questions = service.NewQuestionBankService(programRepo, questionRepo, validate, settings, logger)
	s.Profiles = service.NewSimulationProfileService(programRepo, repository.NewSimulationProfileRepository(db), validate, settings, logger)
	s.Funnel = service.NewFunnelAnalyticsService(candidateRepo, infra.Redis, settings.AnalyticsCacheTTL, logger)

	notifier := service.NewCandidateNotifier(s.Templates, transport, settings, logger)
	events := service.NewEventPublisher(infra.NATS, infra.Redis)

	s.Invitations = service.NewInvitationService(programRepo, candidateRepo, linkRepo, tx, notifier, events, s.Funnel, s.Audit, settings, logger)
	s.Pipeline = service.NewCandidatePipelineService(programRepo, questionRepo, candidateRepo, responseRepo, tx, s.Invitations, s.Questions, s.Content, notifier, events, s.Funnel, s.Audit, validate, logger)
	s.Scoring = service.NewScoringService(programRepo, questionRepo, candidateRepo, responseRepo, tx, infra.Grader, notifier, events, s.Funnel, s.Audit, validate, logger)

	return s
}

// RouterDependencies builds the handlers for every route group.
func RouterDependencies(cfg config.Config, s Services, health map[string]handler.Pinger, logger zerolog.Logger) router.Dependencies {
	return router.Dependencies{
		ProgramHandler:   handler.NewAdminProgramHandler(s.Programs, s.Questions, logger),
		ProfileHandler:   handler.NewAdminProfileHandler(s.Profiles, logger),
		CandidateHandler: handler.NewAdminCandidateHandler(s.Pipeline, s.Invitations, s.Scoring, logger),
		ContentHandler:   handler.NewAdminContentHandler(s.Templates, s.Content, logger),
		AnalyticsHandler: handler.NewAdminAnalyticsHandler(s.Funnel, logger),
		AuditHandler:     handler.NewAdminAuditHandler(s.Audit, logger),
		CareersHandler:   handler.NewCareersHandler(s.Pipeline, logger),
		Health:           health,
		CareersRateLimit: 30,
		CareersWindow:    time.Minute,
	}
}
