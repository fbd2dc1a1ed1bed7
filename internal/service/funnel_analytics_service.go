package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/models"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
)

const (
	funnelCachePrefix = "analytics:funnel:"
	defaultFunnelTopN = 5
	maxFunnelTopN     = 50
)

// FunnelAnalyticsService derives read-only pipeline metrics.
type FunnelAnalyticsService interface {
	CacheInvalidator
	Funnel(ctx context.Context, programID *uint, topN int) (dto.FunnelResponse, error)
}

type funnelAnalyticsService struct {
	candidates repository.CandidateRepository
	cache      *redis.Client
	cacheTTL   time.Duration
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewFunnelAnalyticsService constructs the analytics service. cache may be nil.
func NewFunnelAnalyticsService(candidates repository.CandidateRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) FunnelAnalyticsService {
	return &funnelAnalyticsService{
		candidates: candidates,
		cache:      cache,
		cacheTTL:   ttl,
		logger:     logger.With().Str("component", "funnel_analytics_service").Logger(),
		tracer:     otel.Tracer(tracerPrefix + "funnel_analytics"),
		now:        time.Now,
	}
}

func (s *funnelAnalyticsService) Funnel(ctx context.Context, programID *uint, topN int) (dto.FunnelResponse, error) {
	topN = clampTopN(topN)
	cacheKey := funnelCacheKey(programID, topN)

	ctx, span := s.tracer.Start(ctx, "analytics.funnel")
	defer span.End()
	span.SetAttributes(attribute.String("analytics.cache_key", cacheKey))

	if s.cache != nil && s.cacheTTL > 0 {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.FunnelResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("analytics.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read funnel cache")
			span.RecordError(err)
		}
	}

	candidates, err := s.candidates.ListAll(ctx, programID)
	if err != nil {
		return dto.FunnelResponse{}, failSpan(span, err, "list_candidates_failed")
	}

	response := BuildFunnel(candidates, topN, s.now().UTC())
	span.SetAttributes(attribute.Int64("analytics.total_candidates", response.TotalCandidates))

	if s.cache != nil && s.cacheTTL > 0 {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store funnel cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

// Invalidate drops every cached funnel.
func (s *funnelAnalyticsService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	var keys []string
	iter := s.cache.Scan(ctx, 0, funnelCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return s.cache.Del(ctx, keys...).Err()
}

// BuildFunnel aggregates a candidate snapshot. Empty input yields zero counts and rates.
//
// completion_rate divides by every candidate that reached the invited step, so it stays
// within [0, 1] as candidates move past invited.
func BuildFunnel(candidates []models.Candidate, topN int, now time.Time) dto.FunnelResponse {
	counts := make(map[models.CandidateStatus]int64, len(models.FunnelOrder))
	countries := make(map[string]int64)
	interests := make(map[string]int64)
	languages := make(map[string]int64)

	for _, candidate := range candidates {
		counts[candidate.Status]++
		tally(countries, candidate.Country)
		tally(interests, candidate.AreaOfInterest)
		tally(languages, candidate.PreferredLanguage)
	}

	response := dto.FunnelResponse{
		TotalCandidates: int64(len(candidates)),
		StatusCounts:    make(map[string]int64, len(models.FunnelOrder)),
		Funnel:          make([]dto.FunnelStep, 0, len(models.FunnelOrder)),
		TopCountries:    topBuckets(countries, topN),
		TopInterests:    topBuckets(interests, topN),
		TopLanguages:    topBuckets(languages, topN),
		GeneratedAt:     now,
	}
	for _, status := range models.FunnelOrder {
		response.StatusCounts[string(status)] = counts[status]
		response.Funnel = append(response.Funnel, dto.FunnelStep{Status: string(status), Count: counts[status]})
	}

	passed := counts[models.CandidateStatusPassed]
	finished := counts[models.CandidateStatusCompleted] + passed + counts[models.CandidateStatusFailed]
	reachedInvite := finished + counts[models.CandidateStatusInvited] + counts[models.CandidateStatusInProgress]

	response.PassRate = ratio(passed, finished)
	response.CompletionRate = ratio(finished, reachedInvite)
	response.ConversionRate = ratio(passed, response.TotalCandidates)
	return response
}

func ratio(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return math.Round(float64(numerator)/float64(denominator)*10000) / 10000
}

func tally(counts map[string]int64, value string) {
	if value = strings.TrimSpace(value); value != "" {
		counts[value]++
	}
}

func topBuckets(counts map[string]int64, topN int) []dto.Bucket {
	buckets := make([]dto.Bucket, 0, len(counts))
	for label, count := range counts {
		buckets = append(buckets, dto.Bucket{Label: label, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Label < buckets[j].Label
	})
	if topN > 0 && len(buckets) > topN {
		buckets = buckets[:topN]
	}
	return buckets
}

func clampTopN(topN int) int {
	switch {
	case topN <= 0:
		return defaultFunnelTopN
	case topN > maxFunnelTopN:
		return maxFunnelTopN
	default:
		return topN
	}
}

func funnelCacheKey(programID *uint, topN int) string {
	scope := "all"
	if programID != nil {
		scope = fmt.Sprintf("program:%d", *programID)
	}
	return fmt.Sprintf("%s%s:top:%d", funnelCachePrefix, scope, topN)
}
