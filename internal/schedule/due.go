package schedule

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/vbonduro/plantcare/internal/domain"
)

// Class buckets a due date relative to today.
type Class string

const (
	ClassOverdue Class = "overdue"
	ClassDue     Class = "due"
	ClassSoon    Class = "soon"
	ClassOK      Class = "ok"
)

func baseInterval(p *domain.Plant) int {
	if p.IntervalDays < 1 {
		return domain.DefaultIntervalDays
	}
	return p.IntervalDays
}

// Factor is the product of the seasonal, micro-environment and interval
// tuning multipliers; pot and light are excluded.
func Factor(p *domain.Plant, s domain.Settings) float64 {
	return SeasonalMultiplier(s, p.WeatherOverride) *
		MicroEnvironmentMultiplier(p) *
		(1 + p.TuneIntervalPct/100)
}

// ModeledInterval is the base interval after every multiplier, rounded to
// whole days and never below one.
func ModeledInterval(p *domain.Plant, s domain.Settings) int {
	raw := float64(baseInterval(p)) *
		IntervalMultiplier(p.LightLevel, p.PotSize, p.PotSizeIn) *
		Factor(p, s)
	return max(1, int(math.Round(raw)))
}

// NextDue returns the next watering date. A missing last-watered date counts
// as today.
func NextDue(p *domain.Plant, s domain.Settings, now time.Time) time.Time {
	since := domain.DateOr(p.LastWatered, now)
	return since.AddDate(0, 0, ModeledInterval(p, s))
}

// NextTaskDue adds the task cadence to last (today when empty). It reports
// false for a task without a type or a positive cadence.
func NextTaskDue(t domain.Task, last string, now time.Time) (time.Time, bool) {
	if t.Type == "" || t.EveryDays <= 0 {
		return time.Time{}, false
	}
	return domain.DateOr(last, now).AddDate(0, 0, max(1, t.EveryDays)), true
}

// TaskDue resolves the i-th task of p, falling back to the plant's
// last-watered date when the task was never completed.
func TaskDue(p *domain.Plant, i int, now time.Time) (time.Time, bool) {
	if i < 0 || i >= len(p.Tasks) {
		return time.Time{}, false
	}
	t := p.Tasks[i]
	last := t.LastDone
	if last == "" {
		last = p.LastWatered
	}
	return NextTaskDue(t, last, now)
}

// Refresh recomputes the cached next-due fields of p and its tasks.
func Refresh(p *domain.Plant, s domain.Settings, now time.Time) {
	p.NextDue = domain.FormatDate(NextDue(p, s, now))
	for i := range p.Tasks {
		if due, ok := TaskDue(p, i, now); ok {
			p.Tasks[i].NextDue = domain.FormatDate(due)
		} else {
			p.Tasks[i].NextDue = ""
		}
	}
}

// Delta is the signed number of days from today to due.
func Delta(due, now time.Time) int {
	return domain.DaysBetween(now, due)
}

func Classify(due, now time.Time) Class {
	switch d := Delta(due, now); {
	case d <= -1:
		return ClassOverdue
	case d == 0:
		return ClassDue
	case d <= 2:
		return ClassSoon
	default:
		return ClassOK
	}
}

// HumanDue describes due relative to today, e.g. "due tomorrow".
func HumanDue(due, now time.Time) string {
	switch d := Delta(due, now); {
	case d < -1:
		return fmt.Sprintf("%d days overdue", -d)
	case d == -1:
		return "1 day overdue"
	case d == 0:
		return "due today"
	case d == 1:
		return "due tomorrow"
	default:
		return fmt.Sprintf("in %d days", d)
	}
}

// HydrationPct estimates the share of the modeled interval still remaining.
func HydrationPct(p *domain.Plant, s domain.Settings, now time.Time) int {
	last := domain.DateOr(p.LastWatered, now)
	total := domain.DaysBetween(last, NextDue(p, s, now))
	if total <= 0 {
		return 0
	}
	used := domain.DaysBetween(last, now)
	pct := math.Round(float64(total-used) / float64(total) * 100)
	return int(clamp(pct, 0, 100))
}

// WateringIntervals returns the day gaps between consecutive water events in
// chronological order.
func WateringIntervals(h domain.History, loc *time.Location) []int {
	var days []time.Time
	for _, ev := range h {
		if ev.Type != domain.HistoryWater {
			continue
		}
		if d, ok := domain.ParseDate(ev.At, loc); ok {
			days = append(days, d)
		}
	}
	slices.SortFunc(days, time.Time.Compare)

	out := make([]int, 0, max(0, len(days)-1))
	for i := 1; i < len(days); i++ {
		out = append(out, domain.DaysBetween(days[i-1], days[i]))
	}
	return out
}
