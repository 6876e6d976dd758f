// Package jobs управляет фоновыми задачами (cron).
// scheduler.go запускает плановый аудит честности кейсов
// и оповещает администраторов о подозрительных результатах.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/casebot/internal/config"
	"serotonyl.ru/casebot/internal/features/cases"
)

// FairnessAuditor: то, что умеет проверять накопленные броски.
type FairnessAuditor interface {
	AuditFairness(ctx context.Context, since time.Time) ([]cases.FairnessReport, error)
}

// NotifyFunc отправляет сообщение пользователю в личку.
type NotifyFunc func(ctx context.Context, userID int64, text string)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron    *cron.Cron
	auditor FairnessAuditor
	notify  NotifyFunc
	cfg     *config.Config
	now     func() time.Time
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(auditor FairnessAuditor, notify NotifyFunc, cfg *config.Config) *Scheduler {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		log.WithError(err).Warn("Не удалось загрузить Europe/Moscow, используем UTC+3")
		loc = time.FixedZone("MSK", 3*60*60)
	}

	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		auditor: auditor,
		notify:  notify,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Start регистрирует задачи и запускает cron.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.FairnessCron, func() { s.runFairnessAudit(ctx) }); err != nil {
		return fmt.Errorf("некорректное расписание FAIRNESS_CRON %q: %w", s.cfg.FairnessCron, err)
	}

	s.cron.Start()
	log.WithField("fairness_cron", s.cfg.FairnessCron).Info("Планировщик задач запущен (Europe/Moscow)")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// runFairnessAudit проверяет броски за окно FAIRNESS_WINDOW.
func (s *Scheduler) runFairnessAudit(ctx context.Context) {
	since := s.now().Add(-s.cfg.FairnessWindow)
	log.WithField("since", since).Info("[CRON] Аудит честности кейсов")

	reports, err := s.auditor.AuditFairness(ctx, since)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка аудита честности")
		return
	}

	alert := fairnessAlert(reports)
	if alert == "" || s.notify == nil {
		return
	}
	for _, adminID := range s.cfg.AdminIDs {
		s.notify(ctx, adminID, alert)
	}
}

// fairnessAlert собирает текст оповещения. Пустая строка: оповещать не о чем.
func fairnessAlert(reports []cases.FairnessReport) string {
	var lines []string
	for _, r := range reports {
		if !r.Suspicious() {
			continue
		}
		line := fmt.Sprintf("• #%d «%s» [%s]: бросков %d", r.CaseID, r.CaseName, r.TableHash, r.Samples)
		if r.Tampered > 0 {
			line += fmt.Sprintf(", подделано %d", r.Tampered)
		}
		for _, it := range r.Items {
			if it.Flagged {
				line += fmt.Sprintf(", %s z=%.2f", it.Name, it.Z)
			}
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return ""
	}
	return "🚨 Аудит честности нашёл подозрительные кейсы:\n\n" + strings.Join(lines, "\n") +
		"\n\nПодробности: /fairness"
}
