package service

import (
	"fmt"

	"github.com/joaopedroangelo/Estrela-do-Saber/pkg/logger"
	"go.uber.org/zap"
)

// NotificationSink delivers a report summary to a guardian. Failures are
// logged by the caller and never surface past report generation.
type NotificationSink interface {
	Notify(recipient string, summary string) error
}

// LogNotificationService simulates the guardian e-mail by writing the summary
// to the application log, as the product currently specifies.
type LogNotificationService struct{}

func NewLogNotificationService() *LogNotificationService {
	return &LogNotificationService{}
}

func (s *LogNotificationService) Notify(recipient string, summary string) error {
	logger.Log.Info("Sending progress report to guardian",
		zap.String("recipient", recipient),
		zap.String("summary", summary),
	)
	return nil
}

// ReportSummaryText renders the short e-mail body for a report notification.
func ReportSummaryText(learnerName string, total int, accuracy float64) string {
	return fmt.Sprintf(
		"Relatório de Progresso - %s | Total de atividades: %d | Taxa de acerto: %.1f%% | Relatório completo disponível no aplicativo.",
		learnerName, total, accuracy,
	)
}
