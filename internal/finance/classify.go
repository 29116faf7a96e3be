package finance

import "github.com/Moiss/building/internal/domain"

// ConsumptionSentinel stands for "undefined / very large" consumption when
// money was spent against a zero plan.
const ConsumptionSentinel = 999.0

// Thresholds are consumption percentages above which a figure turns
// yellow (Warning) or red (Critical).
type Thresholds struct {
	Warning  float64
	Critical float64
}

var (
	DefaultLineThresholds  = Thresholds{Warning: 90, Critical: 100}
	DefaultStageThresholds = Thresholds{Warning: 80, Critical: 100}
)

// Classify maps spending against plan to a traffic light. Both thresholds
// are exclusive: consumption equal to Warning is still green.
func Classify(planned, real float64, th Thresholds) domain.TrafficLight {
	if planned <= 0 {
		if real > 0 {
			return domain.LightRed
		}
		return domain.LightGreen
	}
	pct := real / planned * 100
	switch {
	case pct > th.Critical:
		return domain.LightRed
	case pct > th.Warning:
		return domain.LightYellow
	default:
		return domain.LightGreen
	}
}

// Consumption returns real as a percentage of planned.
func Consumption(planned, real float64) float64 {
	if planned <= 0 {
		if real > 0 {
			return ConsumptionSentinel
		}
		return 0
	}
	return real / planned * 100
}

// Variance is planned minus real; negative means overrun.
func Variance(planned, real float64) float64 {
	return planned - real
}

// Snapshot bundles the financial figures stored on a line or stage.
type Snapshot struct {
	Planned        float64
	Real           float64
	Variance       float64
	ConsumptionPct float64
	Light          domain.TrafficLight
}

// Evaluate computes every financial figure for one planned/real pair.
func Evaluate(planned, real float64, th Thresholds) Snapshot {
	return Snapshot{
		Planned:        planned,
		Real:           real,
		Variance:       Variance(planned, real),
		ConsumptionPct: Consumption(planned, real),
		Light:          Classify(planned, real, th),
	}
}
