package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/casebot/internal/config"
	"serotonyl.ru/casebot/internal/features/cases"
)

type stubAuditor struct {
	reports []cases.FairnessReport
	since   time.Time
}

func (a *stubAuditor) AuditFairness(_ context.Context, since time.Time) ([]cases.FairnessReport, error) {
	a.since = since
	return a.reports, nil
}

type notifications struct {
	mu   sync.Mutex
	sent map[int64]string
}

func (n *notifications) notify(_ context.Context, userID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent[userID] = text
}

func TestRunFairnessAudit_NotifiesAdmins(t *testing.T) {
	auditor := &stubAuditor{reports: []cases.FairnessReport{
		{CaseID: 1, CaseName: "Чистый", Samples: 5000, Evaluated: true},
		{CaseID: 2, CaseName: "Кривой", TableHash: "abc123", Samples: 5000, Evaluated: true,
			Items: []cases.ItemFairness{{Name: "Корона", Z: 7.5, Flagged: true}}},
	}}
	n := &notifications{sent: map[int64]string{}}
	cfg := &config.Config{AdminIDs: []int64{10, 20}, FairnessWindow: 24 * time.Hour, FairnessCron: "@hourly"}

	s := NewScheduler(auditor, n.notify, cfg)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.runFairnessAudit(context.Background())

	assert.Equal(t, now.Add(-24*time.Hour), auditor.since)
	require.Len(t, n.sent, 2)
	assert.Contains(t, n.sent[10], "#2 «Кривой» [abc123]")
	assert.Contains(t, n.sent[10], "Корона z=7.50")
	assert.NotContains(t, n.sent[10], "Чистый")
}

func TestRunFairnessAudit_QuietWhenClean(t *testing.T) {
	auditor := &stubAuditor{reports: []cases.FairnessReport{{CaseID: 1, Samples: 10}}}
	n := &notifications{sent: map[int64]string{}}
	s := NewScheduler(auditor, n.notify, &config.Config{AdminIDs: []int64{10}})

	s.runFairnessAudit(context.Background())
	assert.Empty(t, n.sent)
}

func TestStart_RejectsBadCron(t *testing.T) {
	s := NewScheduler(&stubAuditor{}, nil, &config.Config{FairnessCron: "когда-нибудь"})
	assert.Error(t, s.Start(context.Background()))
}
