// Package metrics: счётчики Prometheus и HTTP-эндпоинт /metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// Исходы открытия кейса
const (
	OutcomeNewItem   = "new_item"
	OutcomeDuplicate = "duplicate"
)

var (
	CasesOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casebot_cases_opened_total",
			Help: "Успешные открытия кейсов",
		},
		[]string{"outcome"},
	)

	CaseOpenFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casebot_case_open_failures_total",
			Help: "Неудачные открытия кейсов по причине",
		},
		[]string{"reason"},
	)

	// SelectionFallbacks растёт, только если веса таблицы не покрыли бросок.
	// Для проверенной таблицы должно быть 0.
	SelectionFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "casebot_selection_fallbacks_total",
			Help: "Выборы предмета через запасную ветку (последний предмет)",
		},
	)

	CaseOpenDuration = promauto.NewSummary(
		prometheus.SummaryOpts{
			Name: "casebot_case_open_duration_seconds",
			Help: "Длительность открытия кейса",
			Objectives: map[float64]float64{
				0.5:  0.05,
				0.9:  0.01,
				0.99: 0.001,
			},
		},
	)

	FairnessFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casebot_fairness_flags_total",
			Help: "Подозрительные результаты аудита честности",
		},
		[]string{"kind"},
	)

	BotCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "casebot_bot_commands_total",
			Help: "Обработанные команды бота",
		},
		[]string{"command"},
	)
)

// Serve поднимает /metrics и останавливается вместе с ctx.
// Пустой адрес: метрики не отдаём.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("Метрики доступны на /metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
