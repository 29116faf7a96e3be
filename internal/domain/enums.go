package domain

type WorkState string

const (
	WorkDraft    WorkState = "draft"
	WorkPlanning WorkState = "planning"
	WorkRunning  WorkState = "running"
	WorkPaused   WorkState = "paused"
	WorkDone     WorkState = "done"
)

type StageState string

const (
	StagePlanning   StageState = "planning"
	StageInProgress StageState = "in_progress"
	StageToApprove  StageState = "to_approve"
	StageDone       StageState = "done"
)

// ValidStageStates is the canonical set of accepted stage state strings.
var ValidStageStates = map[string]bool{
	"planning": true, "in_progress": true, "to_approve": true, "done": true,
}

type BudgetState string

const (
	BudgetDraft     BudgetState = "draft"
	BudgetValidated BudgetState = "validated"
)

// CostSource selects which real-cost records count toward totals.
type CostSource string

const (
	CostSourceInternal   CostSource = "internal"
	CostSourceAccounting CostSource = "accounting"
)

type CostType string

const (
	CostBudgeted   CostType = "budgeted"
	CostAdditional CostType = "additional"
)

type EventState string

const (
	EventConfirmed EventState = "confirmed"
	EventCancelled EventState = "cancelled"
)

type EventOrigin string

const (
	OriginUser         EventOrigin = "user"
	OriginStageClosure EventOrigin = "stage_closure"
)

type TrafficLight string

const (
	LightGreen  TrafficLight = "green"
	LightYellow TrafficLight = "yellow"
	LightRed    TrafficLight = "red"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for display; higher is more urgent.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

type AlertType string

const (
	AlertPlanning    AlertType = "planning"
	AlertFinancial   AlertType = "financial"
	AlertOperational AlertType = "operational"
	AlertLiquidity   AlertType = "liquidity"
	AlertBudget      AlertType = "budget"
	AlertApproval    AlertType = "approval"
	AlertTime        AlertType = "time"
	AlertManual      AlertType = "manual"
)

type Role string

const (
	RoleUser     Role = "user"
	RoleDirector Role = "director"
	RoleAdmin    Role = "admin"
)
