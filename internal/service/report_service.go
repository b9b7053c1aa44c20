package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/config"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/model"
	"github.com/joaopedroangelo/Estrela-do-Saber/internal/util"
	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnswerHistory is the read-only slice of the store the report engine needs.
// Ordering is irrelevant: aggregation is order-independent except for the
// temporal split, which uses timestamps directly.
type AnswerHistory interface {
	ListByContact(contact string) ([]model.Answer, error)
}

type LearnerInfo struct {
	Name            string `json:"name"`
	Grade           string `json:"grade"`
	GuardianContact string `json:"guardianContact"`
}

type PerformanceSummary struct {
	TotalActivities    int     `json:"totalActivities"`
	CorrectAnswers     int     `json:"correctAnswers"`
	IncorrectAnswers   int     `json:"incorrectAnswers"`
	AccuracyPercentage float64 `json:"accuracyPercentage"`
	RecentAccuracy     float64 `json:"recentAccuracy"`
}

type TemporalAnalysis struct {
	TotalRecentActivities int     `json:"totalRecentActivities"`
	TotalOlderActivities  int     `json:"totalOlderActivities"`
	ImprovementSignal     float64 `json:"improvementSignal"`
	PerformanceTrend      string  `json:"performanceTrend"`
}

type DailyPattern struct {
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// Report is the structured performance report handed to guardians.
type Report struct {
	GeneratedAt         time.Time               `json:"generatedAt"`
	LearnerInfo         LearnerInfo             `json:"learnerInfo"`
	PerformanceSummary  PerformanceSummary      `json:"performanceSummary"`
	TemporalAnalysis    *TemporalAnalysis       `json:"temporalAnalysis,omitempty"`
	DailyPatterns       map[string]DailyPattern `json:"dailyPatterns,omitempty"`
	PedagogicalInsights string                  `json:"pedagogicalInsights,omitempty"`
	Recommendations     []string                `json:"recommendations,omitempty"`
	Message             string                  `json:"message,omitempty"`
}

const (
	TrendImprovement    = "improvement"
	TrendStable         = "stable"
	TrendNeedsAttention = "needs_attention"
)

const reportCacheKeyPrefix = "report:"

// ReportService aggregates a learner's answer history into a structured
// report: overall and recent accuracy, weekday breakdown, trend, narrative
// insight and tiered recommendations. Reads only from the store; the single
// generative call goes through the feedback collaborator.
type ReportService struct {
	learners LearnerStore
	history  AnswerHistory
	insights FeedbackGenerator
	notifier NotificationSink
	Redis    *redis.Client
	cfg      config.ReportConfig

	// Now supplies the evaluation clock; overridable in tests.
	Now func() time.Time
}

func NewReportService(
	learners LearnerStore,
	history AnswerHistory,
	insights FeedbackGenerator,
	notifier NotificationSink,
	rdb *redis.Client,
	cfg config.ReportConfig,
) *ReportService {
	return &ReportService{
		learners: learners,
		history:  history,
		insights: insights,
		notifier: notifier,
		Redis:    rdb,
		cfg:      cfg,
		Now:      time.Now,
	}
}

// roundPct rounds a percentage to one decimal place.
func roundPct(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

// GenerateReport assembles the report for one learner. When fresh is false a
// cached copy may be served. The notification side effect runs only on fresh
// assembly and its failure never fails the report.
func (s *ReportService) GenerateReport(ctx context.Context, contact string, fresh bool) (*Report, error) {
	learner, err := s.learners.FindByContact(contact)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLearnerNotFound
		}
		return nil, &PersistenceError{Op: "resolve learner", Err: err}
	}

	if !fresh {
		if cached := s.cachedReport(ctx, contact); cached != nil {
			return cached, nil
		}
	}

	answers, err := s.history.ListByContact(contact)
	if err != nil {
		return nil, &PersistenceError{Op: "load answer history", Err: err}
	}

	now := s.Now().UTC()
	report := &Report{
		GeneratedAt: now,
		LearnerInfo: LearnerInfo{
			Name:            learner.Name,
			Grade:           fmt.Sprintf("%dº ano", learner.Grade),
			GuardianContact: contact,
		},
	}

	// Empty history short-circuits before any statistics: nothing to divide.
	if len(answers) == 0 {
		report.Message = "Ainda não há atividades realizadas para gerar relatório."
		return report, nil
	}

	total := len(answers)
	correct := 0
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}
	accuracy := roundPct(correct, total)

	cutoff := now.AddDate(0, 0, -s.cfg.RecentWindowDays)
	recentTotal, recentCorrect, olderTotal := 0, 0, 0
	for _, a := range answers {
		if a.SubmittedAt.Before(cutoff) {
			olderTotal++
			continue
		}
		recentTotal++
		if a.Correct {
			recentCorrect++
		}
	}
	recentAccuracy := roundPct(recentCorrect, recentTotal)

	// The improvement signal only carries meaning once an older partition
	// exists; until then it is reported as zero.
	improvement := 0.0
	if olderTotal > 0 {
		improvement = recentAccuracy - accuracy
	}
	trend := TrendStable
	switch {
	case recentAccuracy > accuracy:
		trend = TrendImprovement
	case recentAccuracy < accuracy:
		trend = TrendNeedsAttention
	}

	daily := make(map[string]DailyPattern)
	for _, a := range answers {
		day := a.SubmittedAt.Weekday().String()
		pattern := daily[day]
		pattern.Total++
		if a.Correct {
			pattern.Correct++
		}
		daily[day] = pattern
	}
	for day, pattern := range daily {
		pattern.Accuracy = roundPct(pattern.Correct, pattern.Total)
		daily[day] = pattern
	}

	report.PerformanceSummary = PerformanceSummary{
		TotalActivities:    total,
		CorrectAnswers:     correct,
		IncorrectAnswers:   total - correct,
		AccuracyPercentage: accuracy,
		RecentAccuracy:     recentAccuracy,
	}
	report.TemporalAnalysis = &TemporalAnalysis{
		TotalRecentActivities: recentTotal,
		TotalOlderActivities:  olderTotal,
		ImprovementSignal:     improvement,
		PerformanceTrend:      trend,
	}
	report.DailyPatterns = daily
	report.PedagogicalInsights = s.pedagogicalInsights(ctx, learner, report)
	report.Recommendations = Recommendations(accuracy)

	s.cacheReport(ctx, contact, report)

	summary := ReportSummaryText(learner.Name, total, accuracy)
	if err := s.notifier.Notify(contact, summary); err != nil {
		logger.Log.Warn("report notification failed",
			zap.String("recipient", contact),
			zap.Error(err),
		)
	}

	return report, nil
}

func (s *ReportService) pedagogicalInsights(ctx context.Context, learner *model.Learner, report *Report) string {
	summary := report.PerformanceSummary
	temporal := report.TemporalAnalysis

	prompt := fmt.Sprintf(`Você é um especialista em pedagogia e alfabetização infantil.
Analise os dados de desempenho e forneça insights pedagógicos para os responsáveis,
em linguagem técnica mas acessível, construtiva e encorajadora, em 3-4 parágrafos.

Criança: %s - %s
Total de atividades: %d
Acertos: %d
Taxa de acerto: %.1f%%
Performance recente: %.1f%%
Tendência: %+.1f pontos percentuais`,
		learner.Name, report.LearnerInfo.Grade,
		summary.TotalActivities, summary.CorrectAnswers,
		summary.AccuracyPercentage, summary.RecentAccuracy,
		temporal.ImprovementSignal,
	)

	insights, err := s.insights.GenerateFeedback(ctx, prompt)
	if err != nil {
		logger.Log.Warn("insight generation degraded, using deterministic summary",
			zap.String("learner", learner.Name),
			zap.Error(err),
		)
		return fmt.Sprintf(
			"Análise pedagógica: %s demonstra %.1f%% de acerto nas atividades, indicando desenvolvimento adequado para o %s.",
			learner.Name, summary.AccuracyPercentage, report.LearnerInfo.Grade,
		)
	}
	return insights
}

// Recommendations maps overall accuracy onto a fixed recommendation tier.
// Tier lower bounds are inclusive: 80.0 is "excellent", 60.0 is
// "satisfactory".
func Recommendations(accuracy float64) []string {
	switch {
	case accuracy >= 80:
		return []string{
			"Excelente desempenho! Continue estimulando com atividades diversificadas.",
			"Considere introduzir desafios um pouco mais avançados.",
			"Elogie o progresso e mantenha a motivação alta.",
		}
	case accuracy >= 60:
		return []string{
			"Desempenho satisfatório. Continue praticando regularmente.",
			"Foque em reforçar conceitos com mais dificuldade.",
			"Considere sessões de estudo mais frequentes e curtas.",
		}
	default:
		return []string{
			"Recomenda-se atenção especial ao desenvolvimento da alfabetização.",
			"Considere atividades lúdicas complementares em casa.",
			"Pode ser útil conversar com o professor para alinhamento pedagógico.",
		}
	}
}

func (s *ReportService) cachedReport(ctx context.Context, contact string) *Report {
	if s.Redis == nil {
		return nil
	}

	val, err := s.Redis.Get(ctx, reportCacheKeyPrefix+contact).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		logger.Log.Debug("report cache read failed", zap.Error(err))
		return nil
	}

	var report Report
	if err := json.Unmarshal([]byte(val), &report); err != nil {
		logger.Log.Debug("report cache entry corrupt, ignoring", zap.Error(err))
		return nil
	}
	return &report
}

func (s *ReportService) cacheReport(ctx context.Context, contact string, report *Report) {
	if s.Redis == nil || s.cfg.CacheTTL <= 0 {
		return
	}

	raw, err := json.Marshal(report)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, reportCacheKeyPrefix+contact, raw, s.cfg.CacheTTL).Err(); err != nil {
		logger.Log.Debug("report cache write failed", zap.Error(err))
	}
}
