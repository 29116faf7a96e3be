package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Moiss/building/internal/domain"
	"github.com/google/uuid"
)

var testShortIDCounter atomic.Int64

// Work options
type WorkOption func(*domain.Work)

func WithWorkState(s domain.WorkState) WorkOption {
	return func(w *domain.Work) {
		w.State = s
	}
}

func WithTenant(id string) WorkOption {
	return func(w *domain.Work) {
		w.TenantID = id
	}
}

func WithShortID(id string) WorkOption {
	return func(w *domain.Work) {
		w.ShortID = id
	}
}

func WithAccounting(cutover time.Time) WorkOption {
	return func(w *domain.Work) {
		w.CostSource = domain.CostSourceAccounting
		w.CutoverDate = &cutover
	}
}

func WithClientAdvance(amount float64) WorkOption {
	return func(w *domain.Work) {
		w.ClientAdvancePlanned = amount
	}
}

func WithTolerance(pct float64) WorkOption {
	return func(w *domain.Work) {
		w.FinancialTolerance = pct
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestWork(name string, opts ...WorkOption) *domain.Work {
	now := time.Now().UTC().Truncate(time.Second)
	w := &domain.Work{
		ID:         uuid.New().String(),
		TenantID:   "tenant-1",
		ShortID:    defaultShortID(name),
		Name:       name,
		State:      domain.WorkRunning,
		CostSource: domain.CostSourceInternal,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Stage options
type StageOption func(*domain.Stage)

func WithStageState(s domain.StageState) StageOption {
	return func(st *domain.Stage) {
		st.State = s
	}
}

func WithSchedule(start, deadline time.Time) StageOption {
	return func(st *domain.Stage) {
		st.StartDate = &start
		st.Deadline = &deadline
	}
}

func WithSequence(n int) StageOption {
	return func(st *domain.Stage) {
		st.Sequence = n
	}
}

func NewTestStage(workID, name string, opts ...StageOption) *domain.Stage {
	now := time.Now().UTC().Truncate(time.Second)
	s := &domain.Stage{
		ID:           uuid.New().String(),
		WorkID:       workID,
		Name:         name,
		State:        domain.StageInProgress,
		TrafficLight: domain.LightGreen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Budget options
type BudgetOption func(*domain.Budget)

func WithValidated(at time.Time) BudgetOption {
	return func(b *domain.Budget) {
		b.State = domain.BudgetValidated
		b.VersionNo = 1
		b.ValidatedAt = &at
	}
}

func NewTestBudget(workID string, opts ...BudgetOption) *domain.Budget {
	b := &domain.Budget{
		ID:        uuid.New().String(),
		WorkID:    workID,
		Name:      "Presupuesto base",
		State:     domain.BudgetDraft,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func NewTestChapter(budgetID, code string, advance float64) *domain.Chapter {
	return &domain.Chapter{
		ID:            uuid.New().String(),
		BudgetID:      budgetID,
		Code:          code,
		Name:          "Capitulo " + code,
		AdvanceAmount: advance,
	}
}

// Line options
type LineOption func(*domain.BudgetLine)

func WithStage(stageID string) LineOption {
	return func(l *domain.BudgetLine) {
		l.StageID = &stageID
	}
}

func WithCostType(c domain.CostType) LineOption {
	return func(l *domain.BudgetLine) {
		l.CostType = c
	}
}

func WithDistributed(amount float64) LineOption {
	return func(l *domain.BudgetLine) {
		l.Distributed = amount
	}
}

func NewTestLine(b *domain.Budget, chapterID, code string, amount float64, opts ...LineOption) *domain.BudgetLine {
	now := time.Now().UTC().Truncate(time.Second)
	l := &domain.BudgetLine{
		ID:           uuid.New().String(),
		WorkID:       b.WorkID,
		BudgetID:     b.ID,
		ChapterID:    chapterID,
		Code:         code,
		Name:         "Partida " + code,
		CostType:     domain.CostBudgeted,
		Amount:       amount,
		TrafficLight: domain.LightGreen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Cost options
type CostOption func(*domain.RealCostEntry)

func WithCostLine(l *domain.BudgetLine) CostOption {
	return func(c *domain.RealCostEntry) {
		c.LineID = &l.ID
		c.StageID = l.StageID
	}
}

func WithMigrated() CostOption {
	return func(c *domain.RealCostEntry) {
		c.Migrated = true
	}
}

func NewTestCostEntry(workID string, amount float64, date time.Time, opts ...CostOption) *domain.RealCostEntry {
	c := &domain.RealCostEntry{
		ID:        uuid.New().String(),
		WorkID:    workID,
		Date:      date,
		Amount:    amount,
		Source:    domain.CostSourceInternal,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewTestEvent builds a confirmed line-level progress event.
func NewTestEvent(l *domain.BudgetLine, seq int, date time.Time, delta float64) *domain.ProgressEvent {
	return &domain.ProgressEvent{
		ID:           uuid.New().String(),
		WorkID:       l.WorkID,
		StageID:      l.StageIDOrEmpty(),
		LineID:       &l.ID,
		Seq:          seq,
		Date:         date,
		PercentDelta: delta,
		AuthorID:     "user-1",
		Origin:       domain.OriginUser,
		State:        domain.EventConfirmed,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
}
