// Package cases, fairness.go: аудит честности по накопленным броскам.
package cases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"serotonyl.ru/casebot/internal/metrics"
)

// fairnessParallelism: сколько кейсов проверяем одновременно.
const fairnessParallelism = 4

// ItemFairness: наблюдаемая и ожидаемая частота одного предмета.
type ItemFairness struct {
	ItemID   int64
	Name     string
	Observed int64
	Expected float64
	Z        float64
	Flagged  bool
}

// FairnessReport: итог по одной версии таблицы шансов кейса.
type FairnessReport struct {
	CaseID    int64
	CaseName  string
	TableHash string // короткий хэш снимка таблицы
	Samples   int64
	Tampered  int // записи, не прошедшие Verify
	Evaluated bool
	Items     []ItemFairness
}

// Suspicious: есть подделанные записи или перекос частот.
func (r *FairnessReport) Suspicious() bool {
	if r.Tampered > 0 {
		return true
	}
	for _, it := range r.Items {
		if it.Flagged {
			return true
		}
	}
	return false
}

// EvaluateFairness сравнивает частоты выпадения с ожидаемыми по весам.
// Для каждого предмета z = (наблюдали − n·p) / sqrt(n·p·(1−p)).
// Пока выборка меньше minSamples, ничего не помечается.
func EvaluateFairness(snapshot []SnapshotEntry, counts map[int64]int64, total int64, minSamples int, zLimit float64) ([]ItemFairness, bool) {
	var totalWeight int64
	for _, s := range snapshot {
		totalWeight += s.Weight
	}

	evaluated := total >= int64(minSamples) && totalWeight > 0
	out := make([]ItemFairness, 0, len(snapshot))
	for _, s := range snapshot {
		it := ItemFairness{ItemID: s.ItemID, Name: s.Name, Observed: counts[s.ItemID]}
		if totalWeight > 0 {
			p := float64(s.Weight) / float64(totalWeight)
			n := float64(total)
			it.Expected = n * p
			variance := n * p * (1 - p)
			switch {
			case variance > 0:
				it.Z = (float64(it.Observed) - it.Expected) / math.Sqrt(variance)
			case float64(it.Observed) != it.Expected:
				it.Z = math.Inf(1)
			}
		}
		it.Flagged = evaluated && math.Abs(it.Z) > zLimit
		out = append(out, it)
	}
	return out, evaluated
}

// AuditFairness проверяет все кейсы, открытые начиная с since.
// Подозрительные отчёты пишутся в журнал админки.
func (s *Service) AuditFairness(ctx context.Context, since time.Time) ([]FairnessReport, error) {
	caseIDs, err := s.store.RolledCases(ctx, since)
	if err != nil {
		return nil, err
	}

	perCase := make([][]FairnessReport, len(caseIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fairnessParallelism)
	for i, caseID := range caseIDs {
		g.Go(func() error {
			rolls, err := s.store.RollsForCase(gctx, caseID, since)
			if err != nil {
				return fmt.Errorf("кейс %d: %w", caseID, err)
			}
			perCase[i] = s.evaluateCase(caseID, rolls)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var reports []FairnessReport
	for _, rs := range perCase {
		reports = append(reports, rs...)
	}

	for i := range reports {
		r := &reports[i]
		if !r.Suspicious() {
			continue
		}
		if r.Tampered > 0 {
			metrics.FairnessFlags.WithLabelValues("tampered").Inc()
		}
		flagged := 0
		for _, it := range r.Items {
			if it.Flagged {
				flagged++
			}
		}
		if flagged > 0 {
			metrics.FairnessFlags.WithLabelValues("distribution").Inc()
		}

		log.WithFields(log.Fields{
			"case_id":  r.CaseID,
			"table":    r.TableHash,
			"samples":  r.Samples,
			"tampered": r.Tampered,
			"flagged":  flagged,
		}).Warn("Аудит честности: подозрительный кейс")

		if s.adminAudit != nil {
			details := fmt.Sprintf("case=%d table=%s samples=%d tampered=%d flagged=%d",
				r.CaseID, r.TableHash, r.Samples, r.Tampered, flagged)
			if err := s.adminAudit.Record(ctx, 0, "fairness_flag", details); err != nil {
				log.WithError(err).Warn("Не удалось записать результат аудита в журнал админки")
			}
		}
	}

	log.WithFields(log.Fields{
		"cases":   len(caseIDs),
		"reports": len(reports),
	}).Info("Аудит честности завершён")
	return reports, nil
}

// evaluateCase делит броски кейса по версиям таблицы и оценивает каждую.
func (s *Service) evaluateCase(caseID int64, rolls []RollRecord) []FairnessReport {
	type group struct {
		report   FairnessReport
		snapshot []SnapshotEntry
		counts   map[int64]int64
	}
	var order []string
	groups := make(map[string]*group)

	for i := range rolls {
		rec := &rolls[i]
		key := tableHash(rec.ContentsSnapshot)
		g, ok := groups[key]
		if !ok {
			g = &group{
				report:   FairnessReport{CaseID: caseID, CaseName: rec.CaseName, TableHash: key},
				snapshot: rec.ContentsSnapshot,
				counts:   make(map[int64]int64),
			}
			groups[key] = g
			order = append(order, key)
		}
		g.report.Samples++
		g.counts[rec.WonItemID]++
		if !Verify(rec).OK() {
			g.report.Tampered++
		}
	}

	out := make([]FairnessReport, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.report.Items, g.report.Evaluated = EvaluateFairness(
			g.snapshot, g.counts, g.report.Samples, s.cfg.FairnessMinSamples, s.cfg.FairnessZLimit)
		out = append(out, g.report)
	}
	return out
}

// tableHash: первые 12 hex-символов sha256 от снимка таблицы.
func tableHash(snapshot []SnapshotEntry) string {
	raw, _ := json.Marshal(snapshot)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])[:12]
}
